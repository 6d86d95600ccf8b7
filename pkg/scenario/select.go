// Weighted scenario selection via the cumulative-weight pattern: weights
// are accumulated once and a single draw does a linear scan against the
// running total.
package scenario

import "math/rand/v2"

// WeightedSelector picks a Scenario index with probability proportional to
// its declared weight.
type WeightedSelector struct {
	scenarios    []Scenario
	cumWeights   []int
	totalWeight  int
}

// NewWeightedSelector builds a selector over scenarios. Scenarios must have
// been normalised by the validator so every Weight is >= 1.
func NewWeightedSelector(scenarios []Scenario) *WeightedSelector {
	s := &WeightedSelector{scenarios: scenarios}
	running := 0
	for _, sc := range scenarios {
		running += sc.Weight
		s.cumWeights = append(s.cumWeights, running)
	}
	s.totalWeight = running
	return s
}

// Pick draws one scenario using rng, with probability weight/totalWeight.
func (s *WeightedSelector) Pick(rng *rand.Rand) *Scenario {
	if len(s.scenarios) == 0 {
		return nil
	}
	if s.totalWeight <= 0 {
		return &s.scenarios[rng.IntN(len(s.scenarios))]
	}
	draw := rng.IntN(s.totalWeight)
	for i, cum := range s.cumWeights {
		if draw < cum {
			return &s.scenarios[i]
		}
	}
	return &s.scenarios[len(s.scenarios)-1]
}
