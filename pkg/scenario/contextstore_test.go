package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestContextStoreFindExactMatch(t *testing.T) {
	t.Parallel()

	s := NewContextStore(10)
	s.Insert("checkout-abc123", trace.TraceID{1}, trace.SpanID{1})

	found := s.Find("checkout-abc123")
	assert.Len(t, found, 1)
	assert.Equal(t, "checkout-abc123", found[0].Key)
}

func TestContextStoreFindGlobSuffix(t *testing.T) {
	t.Parallel()

	s := NewContextStore(10)
	s.Insert("order-1", trace.TraceID{1}, trace.SpanID{1})
	s.Insert("order-2", trace.TraceID{2}, trace.SpanID{2})
	s.Insert("payment-1", trace.TraceID{3}, trace.SpanID{3})

	found := s.Find("order-*")
	assert.Len(t, found, 2)
}

func TestContextStoreFindNoMatch(t *testing.T) {
	t.Parallel()

	s := NewContextStore(10)
	s.Insert("order-1", trace.TraceID{1}, trace.SpanID{1})

	assert.Empty(t, s.Find("shipment-*"))
}

func TestContextStoreBoundedEviction(t *testing.T) {
	t.Parallel()

	s := NewContextStore(2)
	s.Insert("a", trace.TraceID{1}, trace.SpanID{1})
	s.Insert("b", trace.TraceID{2}, trace.SpanID{2})
	s.Insert("c", trace.TraceID{3}, trace.SpanID{3})

	assert.Equal(t, 2, s.Len(), "store must never exceed its configured bound")
	assert.Empty(t, s.Find("a"), "oldest entry must be evicted once the bound is exceeded")
	assert.Len(t, s.Find("b"), 1)
	assert.Len(t, s.Find("c"), 1)
}

func TestContextStoreGlobCacheReused(t *testing.T) {
	t.Parallel()

	re1 := globToRegexp("order-*")
	re2 := globToRegexp("order-*")
	assert.Same(t, re1, re2, "identical glob patterns must share a cached regexp")
}
