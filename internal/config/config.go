// Package config loads the flat environment-variable configuration
// surface into a pkg/scenario.Config using Viper, exercised here against a
// real env-var binding set rather than a file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tracegen/tracegen/pkg/scenario"
)

// envBindings lists every supported environment variable alongside its Viper key.
var envBindings = map[string]string{
	"scenarios_dir":            "SCENARIOS_DIR",
	"trace_interval_min":       "TRACE_INTERVAL_MIN",
	"trace_interval_max":       "TRACE_INTERVAL_MAX",
	"trace_num_workers":        "TRACE_NUM_WORKERS",
	"max_template_iterations":  "MAX_TEMPLATE_ITERATIONS",
	"context_store_max_size":   "CONTEXT_STORE_MAX_SIZE",
	"rng_seed":                 "RNG_SEED",
}

// Load reads every supported variable from the process environment (falling back
// to scenario.DefaultConfig()'s values when unset) into a scenario.Config.
func Load() (scenario.Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return scenario.Config{}, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	cfg := scenario.DefaultConfig()

	if s := v.GetString("scenarios_dir"); s != "" {
		cfg.ScenariosDir = s
	}

	if s := v.GetString("trace_interval_min"); s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("config: TRACE_INTERVAL_MIN %q: %w", s, err)
		}
		cfg.TraceIntervalMin = time.Duration(secs * float64(time.Second))
	}
	if s := v.GetString("trace_interval_max"); s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("config: TRACE_INTERVAL_MAX %q: %w", s, err)
		}
		cfg.TraceIntervalMax = time.Duration(secs * float64(time.Second))
	}

	if s := v.GetString("trace_num_workers"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("config: TRACE_NUM_WORKERS %q: %w", s, err)
		}
		cfg.TraceNumWorkers = n
	}

	if s := v.GetString("max_template_iterations"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("config: MAX_TEMPLATE_ITERATIONS %q: %w", s, err)
		}
		cfg.MaxTemplateIterations = n
	}

	if s := v.GetString("context_store_max_size"); s != "" {
		if strings.EqualFold(s, "auto") {
			cfg.ContextStoreAutoSize = true
		} else {
			n, err := strconv.Atoi(s)
			if err != nil {
				return scenario.Config{}, fmt.Errorf("config: CONTEXT_STORE_MAX_SIZE %q: %w", s, err)
			}
			cfg.ContextStoreMaxSize = n
		}
	}

	if s := v.GetString("rng_seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return scenario.Config{}, fmt.Errorf("config: RNG_SEED %q: %w", s, err)
		}
		cfg.RngSeed = &seed
	}

	return cfg, nil
}
