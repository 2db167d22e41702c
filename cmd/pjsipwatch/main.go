// Package main is the entry point for the pjsipwatch CLI.
//
// pjsipwatch runs the status command of an Asterisk PBX on a fixed interval
// and posts to Slack whenever the PJSIP endpoint table changes.
//
// Usage:
//
//	pjsipwatch config.yaml                    # Watch until interrupted
//	pjsipwatch validate config.yaml           # Validate configuration
//	asterisk -rx "pjsip list endpoints" | pjsipwatch parse
//	pjsipwatch version                        # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. The root command runs the watcher.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pjsipwatch <config-file>",
		Short: "Watch PJSIP endpoint state and report changes to Slack",
		Long: `pjsipwatch polls "asterisk -rx 'pjsip list endpoints'" at a fixed
interval, fingerprints the endpoint table, and posts the full table to Slack
whenever it changes. It also posts once on startup, and once more before
exiting if the status command cannot be run.

The config file format is chosen by extension (.yaml, .toml, .json/.jsonc).

Example config:
  sleep_time_seconds: 60
  slack:
    webhook_url: ${SLACK_WEBHOOK_URL}
  http:
    listen: ":9108"`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	root.AddCommand(newValidateCmd(), newParseCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this pjsipwatch binary.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pjsipwatch %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
