// Cross-trace context store: a bounded, keyed registry of previously
// exported span identifiers, used to wire up asynchronous Link
// relationships between producer and consumer traces. Grounded on the
// deque-plus-lock-plus-fnmatch shape of the original engine.py's
// context_store, translated into an idiomatic Go FIFO queue protected by a
// single mutex (the store sees low traffic, so one lock suffices).
package scenario

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ExportedContext is one entry in the Context Store.
type ExportedContext struct {
	Key        string
	TraceID    trace.TraceID
	SpanID     trace.SpanID
	InsertedAt time.Time
}

// ContextStore is a bounded FIFO of ExportedContext entries, safe for
// concurrent use by every worker.
type ContextStore struct {
	mu      sync.Mutex
	entries []ExportedContext
	maxSize int
}

// NewContextStore returns a store bounded to maxSize entries.
func NewContextStore(maxSize int) *ContextStore {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &ContextStore{maxSize: maxSize}
}

// Insert records key -> (traceID, spanID), evicting the oldest entry (by
// InsertedAt, which is FIFO order for a single-writer-at-a-time queue) if
// the store is at capacity.
func (s *ContextStore) Insert(key string, traceID trace.TraceID, spanID trace.SpanID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxSize {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, ExportedContext{
		Key:        key,
		TraceID:    traceID,
		SpanID:     spanID,
		InsertedAt: time.Now(),
	})
}

// Find returns every entry whose key matches pattern, in insertion order.
// pattern supports '*' as a wildcard matching any substring, anywhere in
// the pattern; matching is case-sensitive.
func (s *ContextStore) Find(pattern string) []ExportedContext {
	re := globToRegexp(pattern)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []ExportedContext
	for _, e := range s.entries {
		if re.MatchString(e.Key) {
			matches = append(matches, e)
		}
	}
	return matches
}

// Len reports the current number of retained entries, for the bounded-store
// test property.
func (s *ContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var globCache sync.Map // pattern -> *regexp.Regexp

// globToRegexp compiles a '*'-wildcard glob pattern into an anchored
// regexp, caching the result since scenario definitions reuse a small set
// of patterns across every trace.
func globToRegexp(pattern string) *regexp.Regexp {
	if cached, ok := globCache.Load(pattern); ok {
		return cached.(*regexp.Regexp)
	}

	segments := strings.Split(pattern, "*")
	for i, seg := range segments {
		segments[i] = regexp.QuoteMeta(seg)
	}
	re := regexp.MustCompile("^" + strings.Join(segments, ".*") + "$")
	globCache.Store(pattern, re)
	return re
}
