package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tracegen/tracegen/internal/exporter"
	"github.com/tracegen/tracegen/pkg/scenario"
	"github.com/tracegen/tracegen/pkg/store"
	"github.com/tracegen/tracegen/pkg/store/postgres"
	"github.com/tracegen/tracegen/pkg/store/sqlite"
)

// newStoreBackend builds the trace record Store named by dsn:
//   - ""                -> bounded in-memory store
//   - "sqlite://<path>" -> embedded SQLite file
//   - "postgres://..."  -> shared PostgreSQL database
func newStoreBackend(ctx context.Context, dsn string) (store.Store, error) {
	switch {
	case dsn == "":
		return store.NewInMemory(100), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("unrecognised store DSN %q (expected sqlite:// or postgres://)", dsn)
	}
}

// buildPool wires a scenario.Pool whose workers each own their own
// TracerProvider (for deterministic trace/span IDs), share the shutdown-
// managed Logger/Meter providers, and persist a summary record per trace
// into recordStore.
func buildPool(cfg scenario.Config, scenarios []scenario.Scenario, contextStore *scenario.ContextStore, providers *exporter.Providers, expOpts exporter.Options, recordStore store.Store) *scenario.Pool {
	metricObserver, err := scenario.NewMetricObserver(providers.Meter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracegen: metrics disabled: %v\n", err)
	}

	return &scenario.Pool{
		Config:    cfg,
		Scenarios: scenarios,
		Store:     contextStore,

		NewProvider: func(rng *rand.Rand) trace.TracerProvider {
			tp, err := providers.NewWorkerTracerProvider(context.Background(), expOpts, scenario.NewIDGenerator(rng))
			if err != nil {
				fmt.Fprintf(os.Stderr, "tracegen: worker tracer provider: %v\n", err)
				return noop.NewTracerProvider()
			}
			return tp
		},

		BuildObservers: func(workerID int, provider trace.TracerProvider) []scenario.SpanObserver {
			var obs []scenario.SpanObserver
			obs = append(obs, scenario.NewLogObserver(providers.Logger, 0))
			if metricObserver != nil {
				obs = append(obs, metricObserver)
			}
			return obs
		},

		TraceObserver: func(provider trace.TracerProvider) *scenario.TraceStartObserver {
			return scenario.NewTraceStartObserver(providers.Logger)
		},

		TraceCompleted: func(workerID int, summary scenario.TraceSummary) {
			rec := store.Record{
				TraceID:       summary.TraceID.String(),
				RootService:   summary.RootService,
				RootOperation: summary.RootOperation,
				ScenarioName:  summary.ScenarioName,
				StatusOK:      !summary.IsError,
				ErrorType:     summary.ErrorType,
				SpanCount:     summary.SpanCount,
				Duration:      summary.Duration,
				Timestamp:     summary.Start,
			}
			if err := recordStore.Add(context.Background(), rec); err != nil {
				fmt.Fprintf(os.Stderr, "tracegen: store trace record: %v\n", err)
			}
		},
	}
}
