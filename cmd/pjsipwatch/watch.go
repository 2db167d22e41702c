package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pjsipwatch"
	"github.com/jpalmerr/pjsipwatch/config"
)

const shutdownTimeout = 15 * time.Second

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// arguments and config are fine; later errors are runtime failures
	cmd.SilenceUsage = true

	logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	transport := "slack-api"
	if cfg.UsesWebhook() {
		transport = "slack-webhook"
	}
	logger.Info("config loaded",
		"file", args[0],
		"interval", cfg.Interval().String(),
		"transport", transport,
		"status_addr", cfg.HTTP.Listen,
	)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return err
	}
	w, err := pjsipwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Run(ctx)
	}()

	select {
	case err := <-errChan:
		return watchResult(err)

	case <-ctx.Done():
		// interrupted; Run is finishing its current step
		select {
		case err := <-errChan:
			if err == nil {
				logger.Info("shutdown complete")
			}
			return watchResult(err)
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

func watchResult(err error) error {
	if err != nil {
		return fmt.Errorf("watcher stopped: %w", err)
	}
	return nil
}

