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

	"github.com/ghalamif/commsentinel"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "commsentinel: %v\n", err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "commsentinel",
		Short:         "Comm-pass watcher and telemetry limit auditor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "./data/config.yaml", "Path to configuration file")

	root.AddCommand(runCmd(&cfgPath), validateCmd(&cfgPath), statsCmd())
	return root
}

func runCmd(cfgPath *string) *cobra.Command {
	var (
		fakeComm     bool
		reportErrors bool
		dataSource   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll telemetry, report comm passes and audit limits until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if reportErrors {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: level,
			})))

			cfg, err := commsentinel.LoadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rt, err := commsentinel.NewRuntime(cfg,
				commsentinel.WithForceContact(fakeComm),
				commsentinel.WithVerboseErrors(reportErrors),
				commsentinel.WithDataSource(dataSource),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return rt.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&fakeComm, "fake-comm", false, "Treat every poll as in comm and notify the test channel")
	cmd.Flags().BoolVar(&reportErrors, "report-errors", false, "Log full detail for every failed poll cycle")
	cmd.Flags().StringVar(&dataSource, "data-source", "", "Override telemetry.mode (live, archive, opcua)")
	return cmd
}

func validateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file without starting the runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commsentinel.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config %s looks good: mode=%s rules=%d\n",
				*cfgPath, cfg.Telemetry.Mode, len(cfg.Rules))
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	var (
		url      string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Poll the metrics endpoint and print live counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Streaming metrics from %s (Ctrl+C to stop)\n", url)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					line, err := metricsSnapshot(ctx, url)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "stats error: %v\n", err)
						continue
					}
					fmt.Fprintf(out, "[%s] %s\n", time.Now().Format(time.RFC3339), line)
				}
			}
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Refresh interval")
	return cmd
}
