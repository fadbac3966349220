package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/autogroup/pkg/group"
	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

var (
	groupsFormat  string
	groupsInclude string
	groupsExclude string

	importReplace bool
	importPresets bool

	exportOutput string

	addTitle    string
	addColor    string
	addPatterns []string
	addRegex    bool
	addPriority int
	addStrict   bool
	addMerge    bool
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage group configurations",
	Long:  "Commands for listing, importing, exporting and validating group configurations",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List group configurations",
	RunE:  runGroupsList,
}

var groupsImportCmd = &cobra.Command{
	Use:   "import [file.yml]",
	Short: "Import groups from a YAML file or the built-in presets",
	Long: `Import groups from a YAML groups document. Imported groups replace
stored groups with the same id and are appended otherwise; --replace
discards every stored group first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGroupsImport,
}

var groupsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export groups as a YAML document",
	RunE:  runGroupsExport,
}

var groupsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report problems in the stored configuration",
	RunE:  runGroupsValidate,
}

var groupsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a group",
	RunE:  runGroupsAdd,
}

var groupsRemoveCmd = &cobra.Command{
	Use:   "remove <id-or-title>...",
	Short: "Remove groups by id or title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGroupsRemove,
}

func init() {
	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsImportCmd)
	groupsCmd.AddCommand(groupsExportCmd)
	groupsCmd.AddCommand(groupsValidateCmd)
	groupsCmd.AddCommand(groupsAddCmd)
	groupsCmd.AddCommand(groupsRemoveCmd)

	groupsListCmd.Flags().StringVar(&groupsFormat, "format", "table", "Output format: table, json, yaml")
	groupsListCmd.Flags().StringVar(&groupsInclude, "include", "", "Comma-separated title regexes to include")
	groupsListCmd.Flags().StringVar(&groupsExclude, "exclude", "", "Comma-separated title regexes to exclude")

	groupsImportCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace all stored groups")
	groupsImportCmd.Flags().BoolVar(&importPresets, "presets", false, "Import the built-in preset groups")

	groupsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	groupsAddCmd.Flags().StringVar(&addTitle, "title", "", "Group title")
	groupsAddCmd.Flags().StringVar(&addColor, "color", string(types.ColorGrey), "Group color")
	groupsAddCmd.Flags().StringArrayVarP(&addPatterns, "pattern", "p", nil, "URL pattern (repeatable)")
	groupsAddCmd.Flags().BoolVar(&addRegex, "regex", false, "Treat every pattern as a regular expression")
	groupsAddCmd.Flags().IntVar(&addPriority, "priority", 0, "Priority added to every match score")
	groupsAddCmd.Flags().BoolVar(&addStrict, "strict", false, "Set the strict option")
	groupsAddCmd.Flags().BoolVar(&addMerge, "merge", false, "Set the merge option")
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	groups, err := group.Filter(engine.Groups(), group.FilterConfig{
		Include: group.ParsePatterns(groupsInclude),
		Exclude: group.ParsePatterns(groupsExclude),
	})
	if err != nil {
		return fmt.Errorf("filtering groups: %w", err)
	}

	out := cmd.OutOrStdout()
	switch groupsFormat {
	case "json":
		return writeJSON(out, groups)
	case "yaml":
		data, err := group.Marshal(groups)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "table":
		return writeGroupsTable(out, groups)
	default:
		return fmt.Errorf("unknown output format: %s", groupsFormat)
	}
}

func runGroupsImport(cmd *cobra.Command, args []string) error {
	loader := group.NewLoader()

	var imported []types.GroupConfiguration
	var err error
	switch {
	case importPresets && len(args) == 0:
		imported, err = loader.LoadPresets()
	case !importPresets && len(args) == 1:
		imported, err = loader.LoadFile(args[0])
	default:
		return errors.New("give either a file or --presets")
	}
	if err != nil {
		return err
	}

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	groups := mergeGroups(engine.Groups(), imported, importReplace)
	if err := engine.Save(commandContext(cmd), groups); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d groups (%d total)\n", len(imported), len(groups))
	return nil
}

// mergeGroups replaces stored groups by id and appends the rest.
func mergeGroups(stored, imported []types.GroupConfiguration, replace bool) []types.GroupConfiguration {
	if replace {
		return imported
	}
	out := types.CloneGroups(stored)
	for _, g := range imported {
		i := slices.IndexFunc(out, func(s types.GroupConfiguration) bool { return s.ID == g.ID })
		if i >= 0 {
			out[i] = g
			continue
		}
		out = append(out, g)
	}
	return out
}

func runGroupsExport(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	data, err := group.Marshal(engine.Groups())
	if err != nil {
		return err
	}
	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d groups to %s\n", len(engine.Groups()), exportOutput)
	return nil
}

func runGroupsValidate(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	return printReport(cmd, engine.Groups(), engine.Report())
}

// printReport writes a decode report and fails when it found problems.
func printReport(cmd *cobra.Command, groups []types.GroupConfiguration, report *normalize.Report) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Format: %s\n", report.Format)
	fmt.Fprintf(out, "Groups: %d\n", len(groups))
	for _, u := range report.Upgrades {
		fmt.Fprintf(out, "Upgraded: %s\n", u)
	}
	if report.Malformed != nil {
		fmt.Fprintf(out, "Malformed: %v\n", report.Malformed)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(out, "Invalid: %v\n", e)
	}
	if err := report.Err(); err != nil {
		return errors.New("configuration is invalid")
	}
	fmt.Fprintln(out, "Configuration is valid")
	return nil
}

func runGroupsAdd(cmd *cobra.Command, args []string) error {
	if addTitle == "" {
		return errors.New("--title is required")
	}
	c, err := types.ParseColor(addColor)
	if err != nil {
		return err
	}

	g := types.GroupConfiguration{
		ID:       uuid.NewString(),
		Title:    addTitle,
		Color:    c,
		Options:  types.SaveOptions{Strict: addStrict, Merge: addMerge},
		Matchers: make([]types.Matcher, 0, len(addPatterns)),
	}
	if addPriority != 0 {
		g.Options.Priority = types.Priority(addPriority)
	}
	for _, p := range addPatterns {
		g.Matchers = append(g.Matchers, types.Matcher{Pattern: p, IsRegex: addRegex})
	}

	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	if err := engine.Save(commandContext(cmd), append(engine.Groups(), g)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", swatch(g.Color, g.Title), g.ID)
	return nil
}

func runGroupsRemove(cmd *cobra.Command, args []string) error {
	engine, closeEngine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine()

	groups := engine.Groups()
	kept := slices.DeleteFunc(slices.Clone(groups), func(g types.GroupConfiguration) bool {
		return slices.Contains(args, g.ID) || slices.Contains(args, g.Title)
	})
	removed := len(groups) - len(kept)
	if removed == 0 {
		return fmt.Errorf("no group matches %v", args)
	}
	if err := engine.Save(commandContext(cmd), kept); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d groups\n", removed)
	return nil
}
