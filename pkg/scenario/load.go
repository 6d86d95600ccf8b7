// Scenario directory loading: merges the shared _base.yaml document with
// every other scenario file in the directory, in deterministic
// (alphabetical) order, with a load-then-normalise split.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawBase is the expected shape of _base.yaml.
type rawBase struct {
	SchemaVersion int      `yaml:"schema_version"`
	Services      []string `yaml:"services"`
}

// rawScenario mirrors one scenario document entry before normalisation.
type rawScenario struct {
	Name     string            `yaml:"name"`
	Weight   int               `yaml:"weight"`
	Vars     map[string]string `yaml:"vars"`
	RootSpan rawSpanNode       `yaml:"root_span"`
}

// rawSpanNode mirrors one SpanNode before template parsing and defaulting.
type rawSpanNode struct {
	Service         string                 `yaml:"service"`
	Operation       string                 `yaml:"operation"`
	Kind            string                 `yaml:"kind"`
	DelayMS         []int                  `yaml:"delay_ms"`
	DelaySeconds    *float64               `yaml:"delay"` // legacy fractional-seconds form
	Attributes      map[string]any         `yaml:"attributes"`
	Events          []rawSpanEvent         `yaml:"events"`
	ErrorConditions []rawErrorCondition    `yaml:"error_conditions"`
	ExportContextAs string                 `yaml:"export_context_as"`
	LinkFromContext string                 `yaml:"link_from_context"`
	Calls           []rawSpanNode          `yaml:"calls"`
}

type rawSpanEvent struct {
	Name       string         `yaml:"name"`
	Attributes map[string]any `yaml:"attributes"`
	OffsetMS   *int           `yaml:"offset"`
}

type rawErrorCondition struct {
	Probability int    `yaml:"probability"`
	Type        string `yaml:"type"`
	Message     string `yaml:"message"`
}

const supportedSchemaVersion = 1

// LoadDirectory loads and validates every scenario document under dir,
// merging _base.yaml first. It returns either a fully normalised
// ScenarioSet or the complete ordered list of validation errors; emission
// must not begin on any error; partial acceptance is forbidden.
func LoadDirectory(dir string) (*ScenarioSet, []error) {
	basePath := filepath.Join(dir, "_base.yaml")
	baseData, err := os.ReadFile(basePath) //nolint:gosec // scenarios_dir is operator-controlled config
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", basePath, err)}
	}

	var base rawBase
	if err := yaml.Unmarshal(baseData, &base); err != nil {
		return nil, []error{fmt.Errorf("parsing %s: %w", basePath, err)}
	}

	var errs []error
	if base.SchemaVersion != supportedSchemaVersion {
		errs = append(errs, fmt.Errorf("%s: unsupported schema_version %d (supported: %d)", basePath, base.SchemaVersion, supportedSchemaVersion))
	}
	if len(base.Services) == 0 {
		errs = append(errs, fmt.Errorf("%s: services must be a non-empty list", basePath))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, append(errs, fmt.Errorf("reading %s: %w", dir, err))
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == "_base.yaml" || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	var rawScenarios []rawScenario
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path) //nolint:gosec // scenarios_dir is operator-controlled config
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		var docs []rawScenario
		if err := yaml.Unmarshal(data, &docs); err != nil {
			// A document may declare a single scenario rather than a list.
			var single rawScenario
			if err2 := yaml.Unmarshal(data, &single); err2 != nil {
				errs = append(errs, fmt.Errorf("parsing %s: %w", path, err))
				continue
			}
			docs = []rawScenario{single}
		}
		for i := range docs {
			if verrs := validateRawScenario(path, i, &docs[i]); len(verrs) > 0 {
				errs = append(errs, verrs...)
				continue
			}
			rawScenarios = append(rawScenarios, docs[i])
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(rawScenarios) == 0 {
		return nil, []error{fmt.Errorf("%s: no scenarios found", dir)}
	}

	knownServices := make(map[string]bool, len(base.Services))
	for _, s := range base.Services {
		knownServices[s] = true
	}

	set := &ScenarioSet{Services: base.Services}
	for _, rs := range rawScenarios {
		sc, serrs := normaliseScenario(&rs)
		if len(serrs) > 0 {
			errs = append(errs, serrs...)
			continue
		}
		warnUnknownServices(sc.RootSpan, knownServices)
		set.Scenarios = append(set.Scenarios, *sc)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return set, nil
}

const (
	contextStoreAutoSizeMin = 20
	contextStoreAutoSizeMax = 1000
)

// ResolveContextStoreMaxSize returns cfg.ContextStoreMaxSize unchanged
// unless ContextStoreAutoSize is set, in which case it derives a size from
// set: ten times the number of distinct export_context_as sites, a rough
// headroom estimate for how many producer contexts might be outstanding
// at once, clamped to [20, 1000] (the "context_store_max_size: auto"
// sizing heuristic).
func ResolveContextStoreMaxSize(cfg Config, set *ScenarioSet) int {
	if !cfg.ContextStoreAutoSize {
		return cfg.ContextStoreMaxSize
	}
	sites := 0
	for _, sc := range set.Scenarios {
		sites += countExportSites(sc.RootSpan)
	}
	if sites == 0 {
		return cfg.ContextStoreMaxSize
	}
	size := sites * 10
	if size < contextStoreAutoSizeMin {
		size = contextStoreAutoSizeMin
	}
	if size > contextStoreAutoSizeMax {
		size = contextStoreAutoSizeMax
	}
	return size
}

func countExportSites(node *SpanNode) int {
	if node == nil {
		return 0
	}
	n := 0
	if node.ExportContextAs != nil {
		n++
	}
	for _, c := range node.Calls {
		n += countExportSites(c)
	}
	return n
}

// warnUnknownServices logs to stderr any service referenced by a span but
// absent from _base.yaml's open-set service list. This is non-fatal.
func warnUnknownServices(node *SpanNode, known map[string]bool) {
	if node == nil {
		return
	}
	if !known[node.Service] {
		fmt.Fprintf(os.Stderr, "warning: scenario references undeclared service %q\n", node.Service)
	}
	for _, c := range node.Calls {
		warnUnknownServices(c, known)
	}
}
