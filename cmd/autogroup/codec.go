package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/autogroup/pkg/group"
	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

var (
	decodeReport bool
	decodeValid  bool
	encodeRaw    bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file|-]",
	Short: "Decode a stored configuration into canonical JSON",
	Long: `Decode reads a stored configuration in any historical format (compressed
string, JSON text or array) from a file or stdin and prints the canonical
JSON groups.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

var encodeCmd = &cobra.Command{
	Use:   "encode [file|-]",
	Short: "Encode groups into the compressed storage format",
	Long: `Encode reads groups as a JSON array or a YAML groups document from a file
or stdin and prints the compressed string that is stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeReport, "report", false, "Print the decode report instead of the groups")
	decodeCmd.Flags().BoolVar(&decodeValid, "valid-only", false, "Drop groups that fail validation")
	encodeCmd.Flags().BoolVar(&encodeRaw, "raw", false, "Keep conflict markers instead of preparing the groups for saving")
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "" || name == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := readInput(inputArg(args), cmd.InOrStdin())
	if err != nil {
		return err
	}

	groups, report := normalize.DecodeWithReport(bytes.TrimSpace(data))
	if decodeReport {
		return printReport(cmd, groups, report)
	}
	if decodeValid {
		groups = report.Valid(groups)
	}
	return writeJSON(cmd.OutOrStdout(), groups)
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := readInput(inputArg(args), cmd.InOrStdin())
	if err != nil {
		return err
	}

	groups, err := parseGroups(data)
	if err != nil {
		return err
	}
	if err := group.Validate(groups).Err(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var encoded string
	if encodeRaw {
		encoded, err = normalize.Encode(groups)
	} else {
		encoded, err = normalize.EncodeForSave(groups)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return nil
}

// parseGroups accepts a canonical JSON array or a YAML groups document.
func parseGroups(data []byte) ([]types.GroupConfiguration, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var groups []types.GroupConfiguration
		if err := json.Unmarshal(trimmed, &groups); err != nil {
			return nil, fmt.Errorf("parsing JSON groups: %w", err)
		}
		return groups, nil
	}
	return group.NewLoader().Load(trimmed)
}
