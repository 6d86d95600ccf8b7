// SpanObserver lets callers derive side channels (logs, metrics) from
// completed spans without coupling the engine to any particular sink.
package scenario

import "time"

// SpanInfo describes one completed span for observers.
type SpanInfo struct {
	Service      string
	Operation    string
	Kind         Kind
	ScenarioName string
	Start        time.Time
	Duration     time.Duration
	IsError      bool
	ErrorType    string
}

// SpanObserver receives a callback for every span the engine finalises.
type SpanObserver interface {
	Observe(info SpanInfo)
}
