// Command svscan supervises a directory of service definitions, keeping one
// live process per service run script and retiring processes whose
// definition disappears or changes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	svscan "github.com/axondata/go-svscan"
)

// shutdownTimeout bounds the graceful teardown of tracked children on exit
const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "svscan:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		interval time.Duration
		logLevel string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "svscan [flags] DIR",
		Short: "Supervise a directory of service definitions",
		Long: `svscan periodically scans DIR, launches the executable run script found
in each subdirectory, and keeps exactly one live process per distinct
(path, content) identity. When a definition disappears or changes, the
previously spawned process receives SIGTERM and its exit is reaped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()

			if cfgPath != "" {
				fileCfg, err := loadConfig(cfgPath)
				if err != nil {
					return err
				}
				cfg = cfg.merge(fileCfg)
			}

			// Flags take precedence over the config file.
			if cmd.Flags().Changed("interval") {
				cfg.Interval = interval
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			if len(args) == 1 {
				cfg.Dir = args[0]
			}

			if cfg.Dir == "" {
				return fmt.Errorf("no scan directory specified")
			}

			cmd.SilenceUsage = true
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML config file")
	cmd.Flags().DurationVarP(&interval, "interval", "i", svscan.DefaultScanInterval, "pause between scan passes")
	cmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "trigger an immediate pass on directory changes")

	return cmd
}

// run drives the scan loop until the process receives SIGINT or SIGTERM,
// then tears down tracked children within shutdownTimeout.
func run(ctx context.Context, cfg config) error {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	scanner, err := svscan.NewScanner(cfg.Dir, svscan.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var changed <-chan struct{}
	if cfg.Watch {
		ch, cleanup, err := scanner.Watch(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = cleanup() }()
		changed = ch
	}

	logger.Info("supervising", "dir", scanner.Dir(), "interval", cfg.Interval, "watch", cfg.Watch)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		// Per-pass errors are reported, never fatal: the next tick retries
		// from scratch.
		if err := scanner.Scan(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scan pass failed", "err", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := scanner.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown incomplete", "err", err)
			}
			return nil
		case <-ticker.C:
		case <-changed:
			logger.Debug("scan directory changed")
		}
	}
}
