package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pjsipwatch"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse saved status output and print its fingerprint",
		Long: `Parse "pjsip list endpoints" output from a file, or from stdin when no
file is given, and print the endpoint records and the snapshot fingerprint.

Use it to check what the watcher would see without running asterisk or
sending notifications.

Example:
  asterisk -rx "pjsip list endpoints" | pjsipwatch parse
  pjsipwatch parse --json endpoints.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().BoolP("verbose", "v", false, "also list lines that were not endpoint lines")
	return cmd
}

// parseOutput is the --json document.
type parseOutput struct {
	Fingerprint string                      `json:"fingerprint"`
	Endpoints   []pjsipwatch.EndpointRecord `json:"endpoints"`
	Unmatched   int                         `json:"unmatched_lines"`
	Garbage     bool                        `json:"garbage"`
}

func runParse(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	result := pjsipwatch.Parse(string(raw))
	fp := pjsipwatch.FingerprintOf(result.Snapshot)
	out := cmd.OutOrStdout()

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		doc := parseOutput{
			Fingerprint: fp.String(),
			Endpoints:   result.Snapshot.Endpoints,
			Unmatched:   len(result.Unmatched),
			Garbage:     result.Garbage(),
		}
		if doc.Endpoints == nil {
			doc.Endpoints = []pjsipwatch.EndpointRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	fmt.Fprintln(out, result.Snapshot.Render())
	fmt.Fprintf(out, "\n%d endpoints, %d unmatched lines\n", result.Snapshot.Len(), len(result.Unmatched))
	fmt.Fprintf(out, "fingerprint: %s\n", fp)

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		for _, l := range result.Unmatched {
			fmt.Fprintf(out, "  skipped line %d: %s\n", l.Number, l.Text)
		}
	}
	if result.Garbage() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: input contained no endpoint lines")
	}
	return nil
}
