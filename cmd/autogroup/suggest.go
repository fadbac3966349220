package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/autogroup/pkg/suggest"
)

var (
	suggestFormat  string
	suggestCatalog string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <url>",
	Short: "Suggest URL patterns for a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestFormat, "format", "text", "Output format: text, json")
	suggestCmd.Flags().StringVar(&suggestCatalog, "catalog", "", "YAML message catalog for the descriptions")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(suggestCatalog)
	if err != nil {
		return err
	}

	options := suggest.For(args[0], catalog)
	if options == nil {
		return fmt.Errorf("cannot suggest patterns for %q", args[0])
	}

	out := cmd.OutOrStdout()
	switch suggestFormat {
	case "json":
		return writeJSON(out, options)
	case "text":
		for _, o := range options {
			fmt.Fprintf(out, "%s\n    %s\n", o.Description, strings.Join(o.Patterns, "  "))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", suggestFormat)
	}
}

func loadCatalog(path string) (*suggest.Catalog, error) {
	if path == "" {
		return suggest.English(), nil
	}
	data, err := readInput(path, nil)
	if err != nil {
		return nil, err
	}
	return suggest.LoadCatalog(data)
}
