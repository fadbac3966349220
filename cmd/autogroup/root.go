package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup"
	"github.com/praetorian-inc/autogroup/pkg/store"
)

var (
	storePath string
	areaName  string
	colorMode string
	verbose   bool
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "autogroup",
	Short: "Group browser tabs by URL patterns",
	Long: `autogroup manages tab group configurations: named, colored groups with
URL patterns. It resolves which group a URL belongs to, suggests patterns,
converts between stored formats and serves the same operations over NDJSON.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&storePath, "store", "autogroup.db", "Path to the SQLite store (:memory: for a throwaway store)")
	flags.StringVar(&areaName, "area", string(store.AreaSync), "Storage area: sync, local or managed")
	flags.StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd.OutOrStdout()); err != nil {
		return err
	}

	if verbose && quiet {
		return errors.New("--verbose and --quiet cannot be combined")
	}
	if !verbose && !quiet {
		return nil
	}
	level := pslog.DebugLevel
	if quiet {
		level = pslog.ErrorLevel
	}
	logger := pslog.NewWithOptions(cmd.ErrOrStderr(), pslog.Options{Mode: pslog.ModeConsole, MinLevel: level})
	cmd.SetContext(pslog.ContextWithLogger(commandContext(cmd), logger))
	return nil
}

func applyColorMode(out io.Writer) error {
	switch colorMode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(out) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("unknown color mode: %s", colorMode)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// commandContext returns the command's context, which is unset when a
// command function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openEngine opens the configured store and loads the engine over it. The
// returned function closes both.
func openEngine(cmd *cobra.Command) (*autogroup.Engine, func(), error) {
	ctx := commandContext(cmd)
	area, err := store.ParseArea(areaName)
	if err != nil {
		return nil, nil, err
	}

	logger := pslog.Ctx(ctx)
	s, err := store.New(store.Config{Path: storePath, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("opening store %s: %w", storePath, err)
	}
	engine, err := autogroup.Load(ctx, s, autogroup.WithArea(area), autogroup.WithLogger(logger))
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return engine, func() {
		engine.Close()
		s.Close()
	}, nil
}
