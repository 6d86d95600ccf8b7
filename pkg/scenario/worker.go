// Worker pool: N independent goroutines, each generating traces on its own
// jittered interval from its own deterministically-derived RNG stream,
// shaped around per-worker isolation rather than a single shared producer,
// since reproducibility must hold per worker rather than for the pool as a
// whole.
package scenario

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// WorkerFactory builds a worker's TracerProvider from that worker's RNG
// stream, so that trace/span ID generation stays deterministic per worker.
// cmd/tracegen supplies one backed by internal/exporter's
// NewWorkerTracerProvider, which gives every worker its own span exporter.
type WorkerFactory func(rng *rand.Rand) trace.TracerProvider

// Pool runs TraceNumWorkers independent generation loops until stopped.
type Pool struct {
	Config        Config
	Scenarios     []Scenario
	Store         *ContextStore
	NewProvider   WorkerFactory
	BuildObservers func(workerID int, provider trace.TracerProvider) []SpanObserver
	TraceObserver func(provider trace.TracerProvider) *TraceStartObserver

	// TraceCompleted, if set, receives a TraceSummary after every trace any
	// worker finishes, for callers persisting a trace record log.
	TraceCompleted func(workerID int, summary TraceSummary)

	mu     sync.Mutex
	stats  []Stats
}

// deriveSeed produces worker i's seed deterministically from the master
// seed, using splitmix64-style mixing so that nearby worker indices do not
// produce correlated low-order bits.
func deriveSeed(master uint64, workerID int) uint64 {
	x := master + uint64(workerID)*0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// Run launches Config.TraceNumWorkers goroutines and blocks until ctx is
// cancelled, at which point every worker finishes its current trace (never
// mid-trace) and returns.
func (p *Pool) Run(ctx context.Context) error {
	n := p.Config.TraceNumWorkers
	if n <= 0 {
		n = 1
	}
	if p.Config.TraceIntervalMax < p.Config.TraceIntervalMin {
		return fmt.Errorf("trace interval max (%s) is less than min (%s)", p.Config.TraceIntervalMax, p.Config.TraceIntervalMin)
	}

	var masterSeed uint64
	if p.Config.RngSeed != nil {
		masterSeed = *p.Config.RngSeed
	} else {
		masterSeed = uint64(time.Now().UnixNano())
	}

	p.stats = make([]Stats, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.runWorker(ctx, workerID, deriveSeed(masterSeed, workerID))
		}(i)
	}
	wg.Wait()
	return nil
}

func (p *Pool) runWorker(ctx context.Context, workerID int, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0xD1B54A32D192ED03))

	var provider trace.TracerProvider
	if p.NewProvider != nil {
		provider = p.NewProvider(rng)
	} else {
		provider = sdktrace.NewTracerProvider(sdktrace.WithIDGenerator(newIDGenerator(rng)))
	}

	engine := NewEngine(p.Scenarios, p.Store, provider, rng, p.Config.MaxTemplateIterations)
	engine.MaxSpansPerTrace = DefaultMaxSpansPerTrace
	if p.BuildObservers != nil {
		engine.Observers = p.BuildObservers(workerID, provider)
	}
	if p.TraceObserver != nil {
		engine.TraceObserver = p.TraceObserver(provider)
	}
	if p.TraceCompleted != nil {
		engine.TraceCompleted = func(s TraceSummary) { p.TraceCompleted(workerID, s) }
	}

	lo, hi := p.Config.TraceIntervalMin, p.Config.TraceIntervalMax

	for {
		interval := lo
		if hi > lo {
			interval += time.Duration(rng.Int64N(int64(hi - lo)))
		}

		select {
		case <-ctx.Done():
			p.recordStats(workerID, engine.StatsSnapshot())
			return
		case <-time.After(interval):
		}

		if _, err := engine.EmitOnce(ctx); err != nil {
			// A single malformed trace must not stop the worker; the error is
			// surfaced to observers via the stats counters instead.
			continue
		}

		select {
		case <-ctx.Done():
			p.recordStats(workerID, engine.StatsSnapshot())
			return
		default:
		}
	}
}

func (p *Pool) recordStats(workerID int, s Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if workerID < len(p.stats) {
		p.stats[workerID] = s
	}
}

// Totals sums every worker's stats snapshot, for CLI/status reporting.
func (p *Pool) Totals() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total Stats
	for _, s := range p.stats {
		total.Traces += s.Traces
		total.Spans += s.Spans
		total.Errors += s.Errors
		total.FailedTraces += s.FailedTraces
		total.UnresolvedTemplates += s.UnresolvedTemplates
	}
	return total
}
