package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pjsipwatch/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a config file",
		Long: `Validate a pjsipwatch configuration file without starting the watcher.

This command parses the file, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pjsipwatch validate /etc/pjsipwatch/config.toml`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// the notifier validates the URL and token further
	if _, err := config.BuildNotifier(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	transport := "Slack Web API (" + cfg.Slack.Channel + ")"
	if cfg.UsesWebhook() {
		transport = "Slack incoming webhook"
	}
	statusAddr := cfg.HTTP.Listen
	if statusAddr == "" {
		statusAddr = "disabled"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Format:        %s\n", config.FormatFromPath(args[0]))
	fmt.Fprintf(out, "  Interval:      %s\n", cfg.Interval())
	fmt.Fprintf(out, "  Command:       %s %s (timeout %s)\n",
		cfg.Command.Path, strings.Join(quoteArgs(cfg.Command.Args), " "), cfg.Command.Timeout.Duration())
	fmt.Fprintf(out, "  Notifications: %s\n", transport)
	fmt.Fprintf(out, "  Status server: %s\n", statusAddr)

	return nil
}

func quoteArgs(args []string) []string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = fmt.Sprintf("%q", a)
		}
		quoted[i] = a
	}
	return quoted
}
