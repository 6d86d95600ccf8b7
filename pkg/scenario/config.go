package scenario

import "time"

// Config is the normalised form of the environment-variable configuration
// surface. Values
// here have already been parsed out of their flat string environment
// representation (internal/config handles that); the core only ever sees
// typed values and well-formed defaults.
type Config struct {
	ScenariosDir          string
	TraceIntervalMin      time.Duration
	TraceIntervalMax      time.Duration
	TraceNumWorkers       int
	MaxTemplateIterations int
	ContextStoreMaxSize   int
	// ContextStoreAutoSize, when true, overrides ContextStoreMaxSize with a
	// heuristic computed from the loaded scenario set (a supplemental
	// feature); set by the loader when the raw option value is "auto".
	ContextStoreAutoSize bool
	RngSeed              *uint64 // nil means unseeded (process-random)
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ScenariosDir:          "scenarios/",
		TraceIntervalMin:      500 * time.Millisecond,
		TraceIntervalMax:      2 * time.Second,
		TraceNumWorkers:       4,
		MaxTemplateIterations: 10,
		ContextStoreMaxSize:   100,
	}
}
