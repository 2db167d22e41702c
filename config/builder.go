package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jpalmerr/pjsipwatch"
	"github.com/jpalmerr/pjsipwatch/internal/notify"
)

// BuildNotifier creates the Slack transport selected by the config: an
// incoming webhook when webhook_url is set, otherwise the Web API.
func BuildNotifier(cfg *Config) (pjsipwatch.Notifier, error) {
	if cfg.UsesWebhook() {
		n, err := notify.NewWebhook(cfg.Slack.WebhookURL, cfg.Slack.Timeout.Duration())
		if err != nil {
			return nil, fmt.Errorf("failed to build webhook notifier: %w", err)
		}
		return n, nil
	}

	n, err := notify.NewSlackAPI(cfg.Slack.APIToken, cfg.Slack.Channel, cfg.Slack.Timeout.Duration(),
		notify.WithBaseURL(cfg.Slack.APIURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build Slack API notifier: %w", err)
	}
	return n, nil
}

// BuildOptions converts the config into watcher options, including the
// notifier and logger.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]pjsipwatch.Option, error) {
	n, err := BuildNotifier(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pjsipwatch.Option{
		pjsipwatch.WithNotifier(n),
		pjsipwatch.WithInterval(cfg.Interval()),
		pjsipwatch.WithCommand(cfg.Command.Path, cfg.Command.Args, cfg.Command.Timeout.Duration()),
		pjsipwatch.WithLogger(logger),
	}
	if cfg.HTTP.Listen != "" {
		opts = append(opts, pjsipwatch.WithStatusAddr(cfg.HTTP.Listen))
	}
	return opts, nil
}

// NewLogger creates a logger writing to w with the configured level and
// format. The config must have been validated.
func NewLogger(lc LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(lc.Level))

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
