package scenario

import "fmt"

// ValidationError is one structured finding produced while loading a
// scenario directory: a path into the document, the offending field, and
// why it was rejected. The validator returns every finding rather than
// stopping at the first, returning a list of structured errors.
type ValidationError struct {
	Path   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Reason)
}

var validKinds = map[string]bool{
	"":             true, // defaults to INTERNAL
	"INTERNAL":     true,
	"SERVER":       true,
	"CLIENT":       true,
	"PRODUCER":     true,
	"CONSUMER":     true,
}

// validateRawScenario checks one scenario document entry's schema before
// any template parsing or normalisation happens.
func validateRawScenario(path string, index int, rs *rawScenario) []error {
	scPath := fmt.Sprintf("%s[%d]", path, index)
	var errs []error

	if rs.Name == "" {
		errs = append(errs, &ValidationError{Path: scPath, Field: "name", Reason: "required"})
	}
	if rs.Weight < 0 {
		errs = append(errs, &ValidationError{Path: scPath, Field: "weight", Reason: "must be >= 1"})
	}
	if rs.RootSpan.Service == "" {
		errs = append(errs, &ValidationError{Path: scPath, Field: "root_span", Reason: "required"})
		return errs // no point walking further without a root
	}

	errs = append(errs, validateRawSpanNode(scPath+".root_span", &rs.RootSpan)...)
	return errs
}

func validateRawSpanNode(path string, n *rawSpanNode) []error {
	var errs []error

	if n.Service == "" {
		errs = append(errs, &ValidationError{Path: path, Field: "service", Reason: "required"})
	}
	if !validKinds[n.Kind] {
		errs = append(errs, &ValidationError{Path: path, Field: "kind", Reason: fmt.Sprintf("unrecognised kind %q", n.Kind)})
	}

	switch {
	case n.DelayMS != nil:
		if len(n.DelayMS) != 2 {
			errs = append(errs, &ValidationError{Path: path, Field: "delay_ms", Reason: "must be a two-element [min, max] list"})
		} else if n.DelayMS[0] < 0 || n.DelayMS[1] < n.DelayMS[0] {
			errs = append(errs, &ValidationError{Path: path, Field: "delay_ms", Reason: "must satisfy 0 <= min <= max"})
		}
	case n.DelaySeconds != nil:
		if *n.DelaySeconds < 0 {
			errs = append(errs, &ValidationError{Path: path, Field: "delay", Reason: "must be non-negative"})
		}
	default:
		errs = append(errs, &ValidationError{Path: path, Field: "delay_ms", Reason: "required (or legacy delay)"})
	}

	probSum := 0
	for i, ec := range n.ErrorConditions {
		ecPath := fmt.Sprintf("%s.error_conditions[%d]", path, i)
		if ec.Type == "" {
			errs = append(errs, &ValidationError{Path: ecPath, Field: "type", Reason: "required"})
		}
		if ec.Message == "" {
			errs = append(errs, &ValidationError{Path: ecPath, Field: "message", Reason: "required"})
		}
		if ec.Probability < 0 || ec.Probability > 100 {
			errs = append(errs, &ValidationError{Path: ecPath, Field: "probability", Reason: "must be in [0, 100]"})
		}
		probSum += ec.Probability
	}
	if probSum > 100 {
		// Open question resolved: sums over 100% are rejected at load
		// rather than silently clamped.
		errs = append(errs, &ValidationError{Path: path, Field: "error_conditions", Reason: "probabilities sum to more than 100"})
	}

	for i, ev := range n.Events {
		if ev.Name == "" {
			errs = append(errs, &ValidationError{Path: fmt.Sprintf("%s.events[%d]", path, i), Field: "name", Reason: "required"})
		}
	}

	for i := range n.Calls {
		errs = append(errs, validateRawSpanNode(fmt.Sprintf("%s.calls[%d]", path, i), &n.Calls[i])...)
	}

	return errs
}

// normaliseScenario converts a validated rawScenario into a frozen
// Scenario, parsing every template string exactly once.
func normaliseScenario(rs *rawScenario) (*Scenario, []error) {
	var errs []error

	weight := rs.Weight
	if weight == 0 {
		weight = 1
	}

	vars := make(map[string]*Template, len(rs.Vars))
	for k, v := range rs.Vars {
		t, err := Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("scenario %q: vars.%s: %w", rs.Name, k, err))
			continue
		}
		vars[k] = t
	}

	root, rerrs := normaliseSpanNode(&rs.RootSpan)
	errs = append(errs, rerrs...)
	if len(errs) > 0 {
		return nil, errs
	}

	return &Scenario{Name: rs.Name, Weight: weight, Vars: vars, RootSpan: root}, nil
}

func normaliseSpanNode(n *rawSpanNode) (*SpanNode, []error) {
	var errs []error

	op, err := Parse(n.Operation)
	if err != nil {
		errs = append(errs, fmt.Errorf("operation: %w", err))
	}

	kind := Kind(n.Kind)
	if kind == "" {
		kind = KindInternal
	}

	delay := normaliseDelay(n)

	attrs, aerrs := parseTemplateMap(n.Attributes)
	errs = append(errs, aerrs...)

	var events []SpanEvent
	for _, e := range n.Events {
		evAttrs, everrs := parseTemplateMap(e.Attributes)
		errs = append(errs, everrs...)
		events = append(events, SpanEvent{Name: e.Name, Attributes: evAttrs, OffsetMS: e.OffsetMS})
	}

	var errConds []ErrorCondition
	for _, ec := range n.ErrorConditions {
		errConds = append(errConds, ErrorCondition{Probability: ec.Probability, Type: ec.Type, Message: ec.Message})
	}

	var exportAs *Template
	if n.ExportContextAs != "" {
		exportAs, err = Parse(n.ExportContextAs)
		if err != nil {
			errs = append(errs, fmt.Errorf("export_context_as: %w", err))
		}
	}

	var calls []*SpanNode
	for i := range n.Calls {
		c, cerrs := normaliseSpanNode(&n.Calls[i])
		errs = append(errs, cerrs...)
		if c != nil {
			calls = append(calls, c)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &SpanNode{
		Service:         n.Service,
		Operation:       op,
		Kind:            kind,
		Delay:           delay,
		Attributes:      attrs,
		Events:          events,
		ErrorConditions: errConds,
		ExportContextAs: exportAs,
		LinkFromContext: n.LinkFromContext,
		Calls:           calls,
	}, nil
}

// normaliseDelay converts either delay_ms or the legacy delay (seconds)
// field into a DelayRange. Validation has already guaranteed exactly one
// is present and well-formed.
func normaliseDelay(n *rawSpanNode) DelayRange {
	if n.DelayMS != nil {
		return DelayRange{MinMS: n.DelayMS[0], MaxMS: n.DelayMS[1]}
	}
	ms := int(*n.DelaySeconds * 1000)
	return DelayRange{MinMS: ms, MaxMS: ms}
}

// parseTemplateMap parses every value in raw into a Template. Non-string
// values that contain no placeholders pass through as literal templates
// (their stringified form); only values actually containing
// "{{...}}" to be treated as templates, but representing every attribute
// value uniformly as a Template keeps the engine's resolution path single.
func parseTemplateMap(raw map[string]any) (map[string]*Template, []error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var errs []error
	out := make(map[string]*Template, len(raw))
	for k, v := range raw {
		s := fmt.Sprint(v)
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("attributes.%s: %w", k, err))
			continue
		}
		out[k] = t
	}
	return out, errs
}
