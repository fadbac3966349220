package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/autogroup/pkg/resolver"
	"github.com/praetorian-inc/autogroup/pkg/serve"
)

var (
	resolveFormat     string
	resolveCandidates bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>...",
	Short: "Show which group each URL belongs to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "text", "Output format: text, json")
	resolveCmd.Flags().BoolVar(&resolveCandidates, "candidates", false, "List every matching pattern with its score")
}

func runResolve(cmd *cobra.Command, args []string) error {
	if resolveFormat != "text" && resolveFormat != "json" {
		return fmt.Errorf("unknown output format: %s", resolveFormat)
	}

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	out := cmd.OutOrStdout()
	results := make([]serve.ResolveResult, 0, len(args))
	for _, url := range args {
		candidates := engine.Candidates(url)
		best := resolver.Best(candidates)

		result := serve.ResolveResult{URL: url}
		if best != nil {
			g := best.Group.Clone()
			result.Group = &g
			result.Pattern = best.Pattern
			result.Score = resolver.MatchScore(best.Pattern, g.Options.PriorityValue())
		}
		results = append(results, result)

		if resolveFormat != "text" {
			continue
		}
		if result.Group == nil {
			fmt.Fprintf(out, "%s\t(no group)\n", url)
		} else {
			fmt.Fprintf(out, "%s\t%s\t(%s, score %d)\n", url, swatch(result.Group.Color, result.Group.Title), result.Pattern, result.Score)
		}
		if !resolveCandidates {
			continue
		}
		for i, c := range candidates {
			marker := " "
			if best != nil && &candidates[i] == best {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s\t%s\tscore %d\n", marker, c.Group.Title, c.Pattern, resolver.MatchScore(c.Pattern, c.Group.Options.PriorityValue()))
		}
	}

	if resolveFormat == "json" {
		return writeJSON(out, results)
	}
	return nil
}
