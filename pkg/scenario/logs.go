// Structured per-span logging via the OTel Logs SDK, generalising the
// teacher's logs.go: an ERROR-severity record for error spans, a
// WARN-severity record for spans exceeding a slow threshold, and (new,
// since scenarios are a first-class concept this spec adds) an INFO record
// naming the scenario a trace was generated from.
package scenario

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
)

// LogObserver emits OTel log records derived from completed spans.
type LogObserver struct {
	logger        otellog.Logger
	slowThreshold time.Duration
}

// NewLogObserver returns a LogObserver backed by the given LoggerProvider.
func NewLogObserver(lp otellog.LoggerProvider, slowThreshold time.Duration) *LogObserver {
	return &LogObserver{
		logger:        lp.Logger("tracegen"),
		slowThreshold: slowThreshold,
	}
}

// Observe emits a log record when the span errored or ran slower than the
// configured threshold.
func (o *LogObserver) Observe(info SpanInfo) {
	var rec otellog.Record
	rec.SetTimestamp(info.Start.Add(info.Duration))
	rec.SetBody(otellog.StringValue(info.Service + "." + info.Operation))
	rec.AddAttributes(
		otellog.String("service.name", info.Service),
		otellog.String("operation.name", info.Operation),
		otellog.String("scenario.name", info.ScenarioName),
		otellog.Float64("duration_ms", float64(info.Duration)/float64(time.Millisecond)),
	)

	switch {
	case info.IsError:
		rec.SetSeverity(otellog.SeverityError)
		rec.AddAttributes(otellog.String("error.type", info.ErrorType))
		o.logger.Emit(context.Background(), rec)
	case o.slowThreshold > 0 && info.Duration > o.slowThreshold:
		rec.SetSeverity(otellog.SeverityWarn)
		o.logger.Emit(context.Background(), rec)
	}
}

// TraceStartObserver emits an INFO record naming the scenario selected for
// a trace; called once per trace rather than once per span.
type TraceStartObserver struct {
	logger otellog.Logger
}

// NewTraceStartObserver returns a TraceStartObserver backed by lp.
func NewTraceStartObserver(lp otellog.LoggerProvider) *TraceStartObserver {
	return &TraceStartObserver{logger: lp.Logger("tracegen")}
}

// ObserveTrace emits the per-trace scenario-selection record.
func (o *TraceStartObserver) ObserveTrace(scenarioName string) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("selected scenario " + scenarioName))
	rec.AddAttributes(otellog.String("scenario.name", scenarioName))
	o.logger.Emit(context.Background(), rec)
}
