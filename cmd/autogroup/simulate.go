package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup/pkg/browser"
	"github.com/praetorian-inc/autogroup/pkg/orchestrator"
)

var simulatePinned []string

var simulateCmd = &cobra.Command{
	Use:   "simulate <url>...",
	Short: "Group tabs in a simulated browser window",
	Long: `Open one tab per URL in an in-memory browser window, group them with the
stored configurations and print the resulting tab groups.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringArrayVar(&simulatePinned, "pinned", nil, "Open an additional pinned tab (repeatable)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx := commandContext(cmd)
	logger := pslog.Ctx(ctx)

	b := browser.NewMemory(logger)
	window := b.OpenWindow()
	for _, url := range args {
		if _, err := b.OpenTab(browser.TabSpec{WindowID: window, URL: url}); err != nil {
			return err
		}
	}
	for _, url := range simulatePinned {
		if _, err := b.OpenTab(browser.TabSpec{WindowID: window, URL: url, Pinned: true}); err != nil {
			return err
		}
	}

	o, err := orchestrator.New(orchestrator.Config{Browser: b, Configurations: engine, Logger: logger})
	if err != nil {
		return err
	}
	if err := o.SetGroups(ctx, engine.Groups()); err != nil {
		return err
	}
	if err := o.AssignAll(ctx); err != nil {
		return fmt.Errorf("grouping tabs: %w", err)
	}

	return printWindow(cmd, b, window)
}

func printWindow(cmd *cobra.Command, b browser.API, window browser.WindowID) error {
	ctx := commandContext(cmd)
	groups, err := b.Groups(ctx, window)
	if err != nil {
		return err
	}
	tabs, err := b.Tabs(ctx, window)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, g := range groups {
		fmt.Fprintln(out, swatch(g.Color, g.Title))
		for _, t := range tabs {
			if t.GroupID == g.ID {
				fmt.Fprintf(out, "    %s\n", t.URL)
			}
		}
	}

	header := false
	for _, t := range tabs {
		if t.GroupID != browser.NoGroup {
			continue
		}
		if !header {
			fmt.Fprintln(out, "Ungrouped")
			header = true
		}
		suffix := ""
		if t.Pinned {
			suffix = " (pinned)"
		}
		fmt.Fprintf(out, "    %s%s\n", t.URL, suffix)
	}
	return nil
}
