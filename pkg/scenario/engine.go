// Trace generation engine: walks a selected scenario's span tree, emitting
// real OTel spans with proper causal context, applying the error-condition
// roulette, and consulting/updating the Context Store for cross-trace
// Links. Span creation, attribute collection, error cascading, and observer
// firing follow a recursive walkTrace-style shape, with one deliberate
// departure: synthesized timestamps alone only need to look realistic
// after the fact, but this generator's spans are real-time replay targets
// for a downstream collector, so emission requires genuine time.Sleep
// delays, split half before and half after a span's own children the same
// way a single goroutine's call stack would naturally spend wall-clock
// time on preamble then nested calls then postamble.
package scenario

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSpansPerTrace bounds runaway scenario trees.
const DefaultMaxSpansPerTrace = 10_000

// Stats accumulates counters across the lifetime of an Engine.
type Stats struct {
	Traces               int64
	Spans                int64
	Errors               int64
	FailedTraces         int64
	UnresolvedTemplates  int64
}

// Engine drives trace generation against a normalised ScenarioSet.
type Engine struct {
	Scenarios        []Scenario
	Selector         *WeightedSelector
	Store            *ContextStore
	Provider         trace.TracerProvider
	Rng              *rand.Rand
	Resolver         *Resolver
	Observers        []SpanObserver
	TraceObserver    *TraceStartObserver
	MaxSpansPerTrace int

	// TraceCompleted, if set, is called once per trace after every span in
	// it has ended, for callers (the CLI's Store-backed trace log) that
	// need a single summary record rather than a callback per span.
	TraceCompleted func(TraceSummary)

	stats Stats
}

// TraceSummary describes one fully-emitted trace, for TraceCompleted.
type TraceSummary struct {
	TraceID       trace.TraceID
	ScenarioName  string
	RootService   string
	RootOperation string
	SpanCount     int
	IsError       bool
	ErrorType     string
	Start         time.Time
	Duration      time.Duration
}

// nodeResult carries a completed span's identity and outcome back up the
// recursion, so EmitOnce can build a TraceSummary from the root result.
type nodeResult struct {
	traceID   trace.TraceID
	operation string
	isError   bool
	errorType string
}

// NewEngine wires up an Engine for one worker. Each worker owns its own
// Rng, Resolver, and (by convention, set up in internal/exporter) its own
// TracerProvider, so that trace/span ID generation and template
// resolution never contend across goroutines.
func NewEngine(scenarios []Scenario, store *ContextStore, provider trace.TracerProvider, rng *rand.Rand, maxTemplateIterations int) *Engine {
	return &Engine{
		Scenarios: scenarios,
		Selector:  NewWeightedSelector(scenarios),
		Store:     store,
		Provider:  provider,
		Rng:       rng,
		Resolver:  NewResolver(rng, maxTemplateIterations),
	}
}

// StatsSnapshot returns a snapshot of accumulated counters.
func (e *Engine) StatsSnapshot() Stats { return e.stats }

func (e *Engine) maxSpansPerTrace() int {
	if e.MaxSpansPerTrace > 0 {
		return e.MaxSpansPerTrace
	}
	return DefaultMaxSpansPerTrace
}

// EmitOnce selects one scenario and walks it to completion, blocking for
// the real wall-clock duration of the synthesised trace. It returns the
// name of the scenario it emitted.
func (e *Engine) EmitOnce(ctx context.Context) (string, error) {
	sc := e.Selector.Pick(e.Rng)
	if sc == nil {
		return "", fmt.Errorf("no scenarios configured")
	}

	vars, err := e.resolveVarsOnce(sc.Vars)
	if err != nil {
		e.stats.UnresolvedTemplates++
		return sc.Name, fmt.Errorf("scenario %q: resolving vars: %w", sc.Name, err)
	}

	if e.TraceObserver != nil {
		e.TraceObserver.ObserveTrace(sc.Name)
	}

	spanCount := 0
	env := &Environment{Vars: vars}
	traceStart := time.Now()
	res, err := e.emitNode(ctx, sc.RootSpan, env, sc.Name, &spanCount)
	e.stats.Traces++
	if err != nil {
		e.stats.UnresolvedTemplates++
		e.stats.FailedTraces++
		return sc.Name, err
	}

	if e.TraceCompleted != nil {
		e.TraceCompleted(TraceSummary{
			TraceID:       res.traceID,
			ScenarioName:  sc.Name,
			RootService:   sc.RootSpan.Service,
			RootOperation: res.operation,
			SpanCount:     spanCount,
			IsError:       res.isError,
			ErrorType:     res.errorType,
			Start:         traceStart,
			Duration:      time.Since(traceStart),
		})
	}

	return sc.Name, nil
}

// resolveVarsOnce resolves a scenario's vars exactly once, in sorted key
// order so that the RNG draws they consume are deterministic for a fixed
// seed even though Go map iteration is not.
func (e *Engine) resolveVarsOnce(vars map[string]*Template) (map[string]any, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]any, len(vars))
	env := &Environment{Vars: resolved}
	for _, k := range keys {
		v, err := e.Resolver.Resolve(vars[k], env)
		if err != nil {
			return nil, fmt.Errorf("vars.%s: %w", k, err)
		}
		resolved[k] = v
	}
	return resolved, nil
}

// emitNode implements the emit(node, parent_ctx) recursion.
func (e *Engine) emitNode(ctx context.Context, node *SpanNode, env *Environment, scenarioName string, spanCount *int) (nodeResult, error) {
	if *spanCount >= e.maxSpansPerTrace() {
		return nodeResult{}, nil
	}
	*spanCount++

	attrs, err := e.Resolver.ResolveAttributes(node.Attributes, env)
	if err != nil {
		return nodeResult{}, fmt.Errorf("%s: %w", node.Service, err)
	}

	opName, err := e.Resolver.Resolve(node.Operation, env)
	if err != nil {
		return nodeResult{}, fmt.Errorf("%s: operation: %w", node.Service, err)
	}

	var links []trace.Link
	if node.LinkFromContext != "" {
		for _, found := range e.Store.Find(node.LinkFromContext) {
			links = append(links, trace.Link{
				SpanContext: trace.NewSpanContext(trace.SpanContextConfig{
					TraceID:    found.TraceID,
					SpanID:     found.SpanID,
					TraceFlags: trace.FlagsSampled,
				}),
			})
		}
	}

	tracer := e.Provider.Tracer(node.Service)
	spanCtx, span := tracer.Start(ctx, opName,
		trace.WithSpanKind(node.Kind.otelKind()),
		trace.WithAttributes(toKeyValues(attrs)...),
		trace.WithLinks(links...),
	)
	startTime := time.Now()

	winner := pickErrorCondition(node.ErrorConditions, e.Rng)

	if node.ExportContextAs != nil {
		key, err := e.Resolver.Resolve(node.ExportContextAs, env)
		if err == nil {
			env.ContextKey = key
			e.Store.Insert(key, span.SpanContext().TraceID(), span.SpanContext().SpanID())
		}
	}

	ownDuration := sampleDelay(node.Delay, e.Rng)
	emitEvents(span, node.Events, env, e.Resolver, startTime, ownDuration)

	preCall := ownDuration / 2
	sleep(ctx, preCall)

	childEnv := env.childEnvironment(attrs)
	for _, child := range node.Calls {
		if _, cerr := e.emitNode(spanCtx, child, childEnv, scenarioName, spanCount); cerr != nil {
			return nodeResult{}, cerr
		}
	}

	postCall := ownDuration - preCall
	sleep(ctx, postCall)

	// Status reflects only this span's own error-condition roll, never a
	// descendant's — a child's failure is visible on the child's own span.
	isError := winner != nil
	errType := ""
	if winner != nil {
		errType = winner.Type
		span.SetStatus(codes.Error, winner.Message)
		span.AddEvent("exception", trace.WithAttributes(
			attribute.String("exception.type", winner.Type),
			attribute.String("exception.message", winner.Message),
		))
		e.stats.Errors++
	} else {
		span.SetStatus(codes.Ok, "")
	}

	e.stats.Spans++
	span.End()

	if len(e.Observers) > 0 {
		info := SpanInfo{
			Service:      node.Service,
			Operation:    opName,
			Kind:         node.Kind,
			ScenarioName: scenarioName,
			Start:        startTime,
			Duration:     time.Since(startTime),
			IsError:      isError,
			ErrorType:    errType,
		}
		for _, obs := range e.Observers {
			obs.Observe(info)
		}
	}

	return nodeResult{
		traceID:   span.SpanContext().TraceID(),
		operation: opName,
		isError:   isError,
		errorType: errType,
	}, nil
}

// sleep blocks for d or until ctx is cancelled, whichever comes first, so a
// shutdown in progress does not hang mid-span.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// sampleDelay draws a span's own duration uniformly from its declared
// [min, max] millisecond range.
func sampleDelay(d DelayRange, rng *rand.Rand) time.Duration {
	ms := d.MinMS
	if d.MaxMS > d.MinMS {
		ms += rng.IntN(d.MaxMS - d.MinMS + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

// pickErrorCondition evaluates conditions in declared order; the first one
// whose independent percentage roll succeeds wins.
func pickErrorCondition(conditions []ErrorCondition, rng *rand.Rand) *ErrorCondition {
	for i := range conditions {
		if rng.IntN(100) < conditions[i].Probability {
			return &conditions[i]
		}
	}
	return nil
}

// emitEvents attaches every declared event to span, with timestamps either
// at their explicit offset or evenly spaced within the span's own sampled
// duration (an open question, resolved this way).
func emitEvents(span trace.Span, events []SpanEvent, env *Environment, r *Resolver, startTime time.Time, ownDuration time.Duration) {
	n := len(events)
	for i, ev := range events {
		attrs, err := r.ResolveAttributes(ev.Attributes, env)
		if err != nil {
			continue // malformed event attribute: skip, do not abort the trace
		}

		var offset time.Duration
		if ev.OffsetMS != nil {
			offset = time.Duration(*ev.OffsetMS) * time.Millisecond
		} else {
			offset = ownDuration * time.Duration(i+1) / time.Duration(n+1)
		}

		span.AddEvent(ev.Name,
			trace.WithTimestamp(startTime.Add(offset)),
			trace.WithAttributes(toKeyValues(attrs)...),
		)
	}
}

// toKeyValues converts a resolved attribute map into a deterministically
// ordered attribute.KeyValue slice.
func toKeyValues(attrs map[string]any) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	keys := SortedKeys(attrs)
	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, typedAttribute(k, attrs[k]))
	}
	return kvs
}

// typedAttribute creates a KeyValue with the appropriate OTel type.
func typedAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
