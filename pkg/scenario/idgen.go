package scenario

import (
	"context"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// idGenerator implements sdktrace.IDGenerator over a caller-supplied RNG
// stream, so that trace and span identifiers are reproducible for a fixed
// seed, unlike the SDK's default crypto/rand-backed
// generator. One instance, and the TracerProvider it backs, is owned by a
// single worker; each worker owns its own RNG stream precisely so
// this generator needs no cross-worker synchronisation.
type idGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// newIDGenerator returns an IDGenerator drawing from rng.
func newIDGenerator(rng *rand.Rand) *idGenerator {
	return &idGenerator{rng: rng}
}

// NewIDGenerator returns an sdktrace.IDGenerator drawing trace and span IDs
// from rng, for callers outside this package (internal/exporter) building
// a per-worker TracerProvider.
func NewIDGenerator(rng *rand.Rand) sdktrace.IDGenerator { return newIDGenerator(rng) }

// NewIDs generates a fresh trace ID and its root span's ID.
func (g *idGenerator) NewIDs(_ context.Context) (trace.TraceID, trace.SpanID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var tid trace.TraceID
	for isZero(tid[:]) {
		binary.BigEndian.PutUint64(tid[0:8], g.rng.Uint64())
		binary.BigEndian.PutUint64(tid[8:16], g.rng.Uint64())
	}
	return tid, g.newSpanIDLocked()
}

// NewSpanID generates a span ID for a non-root span in an existing trace.
func (g *idGenerator) NewSpanID(_ context.Context, _ trace.TraceID) trace.SpanID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.newSpanIDLocked()
}

func (g *idGenerator) newSpanIDLocked() trace.SpanID {
	var sid trace.SpanID
	for isZero(sid[:]) {
		binary.BigEndian.PutUint64(sid[:], g.rng.Uint64())
	}
	return sid
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
