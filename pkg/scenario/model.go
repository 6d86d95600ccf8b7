// Package scenario implements the declarative scenario model, template
// resolution, trace generation engine, and cross-trace context store for
// the synthetic trace generator.
package scenario

import "go.opentelemetry.io/otel/trace"

// Kind enumerates the span kinds a SpanNode may declare.
type Kind string

const (
	KindInternal Kind = "INTERNAL"
	KindServer   Kind = "SERVER"
	KindClient   Kind = "CLIENT"
	KindProducer Kind = "PRODUCER"
	KindConsumer Kind = "CONSUMER"
)

// otelKind maps a Kind to the OTel SDK span kind.
func (k Kind) otelKind() trace.SpanKind {
	switch k {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

// DelayRange is an inclusive [min, max] millisecond range a span's own
// duration is drawn from uniformly.
type DelayRange struct {
	MinMS int
	MaxMS int
}

// ErrorCondition is one entry of a SpanNode's ordered error roulette.
// Conditions are evaluated in declared order; the first one whose
// probability wins fires and no further condition is considered.
type ErrorCondition struct {
	Probability int // percentage, 0-100
	Type        string
	Message     string
}

// SpanEvent is a point-in-time annotation attached to a span between its
// start and end. Offset, when non-nil, is milliseconds from span start;
// otherwise events are spaced evenly within the span's own delay range.
type SpanEvent struct {
	Name       string
	Attributes map[string]*Template
	OffsetMS   *int
}

// SpanNode is the recursive unit of a scenario's call tree. It is built
// once by the loader/validator and never mutated afterward; the engine
// walks a read-only tree per trace.
type SpanNode struct {
	Service         string
	Operation       *Template
	Kind            Kind
	Delay           DelayRange
	Attributes      map[string]*Template
	Events          []SpanEvent
	ErrorConditions []ErrorCondition
	ExportContextAs *Template
	LinkFromContext string // glob pattern, empty if absent
	Calls           []*SpanNode
}

// Scenario is a named, weighted trace template.
type Scenario struct {
	Name     string
	Weight   int
	Vars     map[string]*Template
	RootSpan *SpanNode
}

// ScenarioSet is the normalised, validated output of the loader: every
// scenario frozen and ready for selection and emission.
type ScenarioSet struct {
	Services  []string // declared in _base.yaml; open-set, used only for warnings
	Scenarios []Scenario
}
