package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/spf13/cobra"

	"github.com/tracegen/tracegen/internal/config"
	"github.com/tracegen/tracegen/internal/exporter"
	"github.com/tracegen/tracegen/pkg/scenario"
)

func runCmd() *cobra.Command {
	var (
		scenariosDir string
		endpoint     string
		protocol     string
		profile      bool
		storeDSN     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the worker pool and generate traces until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), runOptions{
				scenariosDir: scenariosDir,
				endpoint:     endpoint,
				protocol:     protocol,
				profile:      profile,
				storeDSN:     storeDSN,
			})
		},
	}

	cmd.Flags().StringVar(&scenariosDir, "scenarios-dir", "", "override SCENARIOS_DIR")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "OTLP endpoint (e.g. localhost:4318); empty uses the exporter's default endpoint; ignored for --protocol stdout")
	cmd.Flags().StringVar(&protocol, "protocol", "stdout", "export protocol: stdout, grpc, or http/protobuf")
	cmd.Flags().BoolVar(&profile, "profile", false, "enable continuous CPU/heap profiling via Pyroscope")
	cmd.Flags().StringVar(&storeDSN, "store", "", "trace record store: empty for in-memory, sqlite:///path.db, or postgres://...")

	return cmd
}

type runOptions struct {
	scenariosDir string
	endpoint     string
	protocol     string
	profile      bool
	storeDSN     string
}

func runGenerate(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.scenariosDir != "" {
		cfg.ScenariosDir = opts.scenariosDir
	}

	if opts.profile {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "tracegen",
			ServerAddress:   os.Getenv("PYROSCOPE_SERVER_ADDRESS"),
		})
		if err != nil {
			return fmt.Errorf("starting profiler: %w", err)
		}
		defer profiler.Stop()
	}

	set, errs := scenario.LoadDirectory(cfg.ScenariosDir)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "error: %v\n", e)
		}
		return fmt.Errorf("%d validation error(s) in %s", len(errs), cfg.ScenariosDir)
	}
	cfg.ContextStoreMaxSize = scenario.ResolveContextStoreMaxSize(cfg, set)

	recordStore, err := newStoreBackend(ctx, opts.storeDSN)
	if err != nil {
		return err
	}
	defer recordStore.Close()

	expOpts := exporter.Options{Protocol: exporter.Protocol(opts.protocol), Endpoint: opts.endpoint}
	providers, err := exporter.New(ctx, expOpts)
	if err != nil {
		return fmt.Errorf("creating export pipeline: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "error shutting down providers: %v\n", err)
		}
	}()

	contextStore := scenario.NewContextStore(cfg.ContextStoreMaxSize)
	pool := buildPool(cfg, set.Scenarios, contextStore, providers, expOpts, recordStore)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "tracegen: starting %d worker(s), scenarios from %s\n", cfg.TraceNumWorkers, cfg.ScenariosDir)

	if err := pool.Run(runCtx); err != nil {
		return err
	}

	totals := pool.Totals()
	fmt.Fprintf(os.Stderr, "tracegen: stopped. traces=%d spans=%d errors=%d failed_traces=%d\n",
		totals.Traces, totals.Spans, totals.Errors, totals.FailedTraces)
	return nil
}
