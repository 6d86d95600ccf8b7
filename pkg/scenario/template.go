// Template parsing and fixed-point resolution of {{...}} placeholders.
//
// A Template is parsed once, at scenario-load time, into a sequence of
// literal text segments and placeholder expressions (Design Notes calls for
// exactly this: parse once, interpret per emission, avoid re-scanning the
// source string on every trace). Because a resolved placeholder value may
// itself contain further placeholders (e.g. a random.choice element that
// embeds "{{random.uuid}}"), Resolve iterates the parse-then-evaluate step
// on its own output until no placeholders remain or max_template_iterations
// is exhausted; only those dynamically-discovered strings are parsed more
// than once, and parses are cached so a hot string is never rescanned twice.
package scenario

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Template is a parsed {{...}}-interpolated string.
type Template struct {
	source string
	parts  []part
}

type part struct {
	literal string // used when expr == nil
	expr    expr
}

// expr is the parsed contents of one {{...}} placeholder.
type expr interface {
	eval(env *Environment, rng *rand.Rand) (string, error)
}

var placeholderRE = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

var templateCache sync.Map // string -> *Template

// Parse compiles raw into a Template, caching the result keyed by the exact
// source string.
func Parse(raw string) (*Template, error) {
	if cached, ok := templateCache.Load(raw); ok {
		return cached.(*Template), nil
	}

	t := &Template{source: raw}
	matches := placeholderRE.FindAllStringSubmatchIndex(raw, -1)
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		exprStart, exprEnd := m[2], m[3]
		if start > pos {
			t.parts = append(t.parts, part{literal: raw[pos:start]})
		}
		e, err := parseExpr(strings.TrimSpace(raw[exprStart:exprEnd]))
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", raw, err)
		}
		t.parts = append(t.parts, part{expr: e})
		pos = end
	}
	if pos < len(raw) {
		t.parts = append(t.parts, part{literal: raw[pos:]})
	}

	templateCache.Store(raw, t)
	return t, nil
}

// HasPlaceholders reports whether raw contains a "{{" opening delimiter; it
// does not check that a matching "}}" follows.
func HasPlaceholders(raw string) bool {
	return strings.Contains(raw, "{{")
}

// Source returns the original, unparsed template string.
func (t *Template) Source() string { return t.source }

func (t *Template) evalOnce(env *Environment, rng *rand.Rand) (string, error) {
	if len(t.parts) == 0 {
		return t.source, nil
	}
	var b strings.Builder
	for _, p := range t.parts {
		if p.expr == nil {
			b.WriteString(p.literal)
			continue
		}
		v, err := p.expr.eval(env, rng)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// -- expression kinds --

type literalChoiceExpr struct{ choices []string }

func (e literalChoiceExpr) eval(_ *Environment, rng *rand.Rand) (string, error) {
	return e.choices[rng.IntN(len(e.choices))], nil
}

type randomIntExpr struct{ lo, hi int }

func (e randomIntExpr) eval(env *Environment, rng *rand.Rand) (string, error) {
	v := e.lo
	if e.hi > e.lo {
		v = e.lo + rng.IntN(e.hi-e.lo+1)
	}
	env.lastMatch = strconv.Itoa(v)
	return env.lastMatch, nil
}

type randomFloatExpr struct{ lo, hi float64 }

func (e randomFloatExpr) eval(_ *Environment, rng *rand.Rand) (string, error) {
	v := e.lo + rng.Float64()*(e.hi-e.lo)
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

type randomUUIDExpr struct{}

func (randomUUIDExpr) eval(_ *Environment, _ *rand.Rand) (string, error) {
	return uuid.New().String(), nil
}

type randomIPv4Expr struct{}

func (randomIPv4Expr) eval(_ *Environment, rng *rand.Rand) (string, error) {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+rng.IntN(254), rng.IntN(256), rng.IntN(256), 1+rng.IntN(254)), nil
}

var userAgents = []string{
	"curl/8.4.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/605.1.15 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148",
	"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
}

type randomUserAgentExpr struct{}

func (randomUserAgentExpr) eval(_ *Environment, rng *rand.Rand) (string, error) {
	return userAgents[rng.IntN(len(userAgents))], nil
}

type timeISOExpr struct{}

func (timeISOExpr) eval(_ *Environment, _ *rand.Rand) (string, error) {
	return time.Now().UTC().Format(time.RFC3339Nano), nil
}

// timeNowExpr implements the supplemental {{time.now}} function from the
// original Python source: unix epoch seconds.
type timeNowExpr struct{}

func (timeNowExpr) eval(_ *Environment, _ *rand.Rand) (string, error) {
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

// lastMatchExpr implements the supplemental {{last_match}} function: the
// most recent random.int result produced during this resolution pass.
type lastMatchExpr struct{}

func (lastMatchExpr) eval(env *Environment, _ *rand.Rand) (string, error) {
	if env.lastMatch == "" {
		return "", fmt.Errorf("last_match referenced before any random.int was resolved")
	}
	return env.lastMatch, nil
}

// varRefExpr resolves a bare name, "parent.attributes.<key>", or "context_key".
type varRefExpr struct{ path string }

func (e varRefExpr) eval(env *Environment, _ *rand.Rand) (string, error) {
	switch {
	case e.path == "context_key":
		if env.ContextKey == "" {
			return "", fmt.Errorf("context_key referenced but no export_context_as has resolved yet")
		}
		return env.ContextKey, nil
	case strings.HasPrefix(e.path, "parent.attributes."):
		if env.ParentAttrs == nil {
			return "", fmt.Errorf("parent.attributes referenced but this span has no parent")
		}
		key := strings.TrimPrefix(e.path, "parent.attributes.")
		v, ok := env.ParentAttrs[key]
		if !ok {
			return "", fmt.Errorf("parent has no attribute %q", key)
		}
		return fmt.Sprint(v), nil
	default:
		v, ok := env.Vars[e.path]
		if !ok {
			return "", fmt.Errorf("unknown variable %q", e.path)
		}
		return fmt.Sprint(v), nil
	}
}

var (
	funcCallRE    = regexp.MustCompile(`^([a-zA-Z_.]+)\((.*)\)$`)
	intArgsRE     = regexp.MustCompile(`^\s*(-?\d+)\s*,\s*(-?\d+)\s*$`)
	floatArgsRE   = regexp.MustCompile(`^\s*(-?[\d.]+)\s*,\s*(-?[\d.]+)\s*$`)
	choiceArgRE   = regexp.MustCompile(`^\[(.*)\]$`)
)

// parseExpr parses the contents of one {{...}} placeholder into an expr.
func parseExpr(raw string) (expr, error) {
	switch raw {
	case "random.uuid":
		return randomUUIDExpr{}, nil
	case "random.ipv4":
		return randomIPv4Expr{}, nil
	case "random.user_agent":
		return randomUserAgentExpr{}, nil
	case "time.iso":
		return timeISOExpr{}, nil
	case "time.now":
		return timeNowExpr{}, nil
	case "last_match":
		return lastMatchExpr{}, nil
	}

	if m := funcCallRE.FindStringSubmatch(raw); m != nil {
		name, args := m[1], m[2]
		switch name {
		case "random.int":
			am := intArgsRE.FindStringSubmatch(args)
			if am == nil {
				return nil, fmt.Errorf("random.int: expected two integer args, got %q", args)
			}
			lo, _ := strconv.Atoi(am[1])
			hi, _ := strconv.Atoi(am[2])
			if hi < lo {
				return nil, fmt.Errorf("random.int: hi (%d) must be >= lo (%d)", hi, lo)
			}
			return randomIntExpr{lo: lo, hi: hi}, nil
		case "random.float":
			am := floatArgsRE.FindStringSubmatch(args)
			if am == nil {
				return nil, fmt.Errorf("random.float: expected two numeric args, got %q", args)
			}
			lo, _ := strconv.ParseFloat(am[1], 64)
			hi, _ := strconv.ParseFloat(am[2], 64)
			if hi < lo {
				return nil, fmt.Errorf("random.float: hi (%v) must be >= lo (%v)", hi, lo)
			}
			return randomFloatExpr{lo: lo, hi: hi}, nil
		case "random.choice":
			cm := choiceArgRE.FindStringSubmatch(strings.TrimSpace(args))
			if cm == nil {
				return nil, fmt.Errorf("random.choice: expected a literal list, got %q", args)
			}
			var choices []string
			for _, raw := range strings.Split(cm[1], ",") {
				choices = append(choices, strings.Trim(strings.TrimSpace(raw), `"'`))
			}
			if len(choices) == 0 {
				return nil, fmt.Errorf("random.choice: list is empty")
			}
			return literalChoiceExpr{choices: choices}, nil
		}
		return nil, fmt.Errorf("unknown template function %q", name)
	}

	// Bare name, parent.attributes.<key>, or context_key handled above;
	// anything else is a variable reference.
	return varRefExpr{path: raw}, nil
}
