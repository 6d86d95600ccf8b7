package scenario

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedSelectorRespectsWeights(t *testing.T) {
	t.Parallel()

	scenarios := []Scenario{
		{Name: "rare", Weight: 1},
		{Name: "common", Weight: 99},
	}
	sel := NewWeightedSelector(scenarios)
	rng := rand.New(rand.NewPCG(42, 0)) //nolint:gosec // deterministic seed for testing

	counts := map[string]int{}
	for range 2000 {
		counts[sel.Pick(rng).Name]++
	}

	assert.Greater(t, counts["common"], counts["rare"]*10, "a 99:1 weight ratio should dominate over 2000 draws")
}

func TestWeightedSelectorEmpty(t *testing.T) {
	t.Parallel()

	sel := NewWeightedSelector(nil)
	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	assert.Nil(t, sel.Pick(rng))
}

func TestWeightedSelectorSingleScenarioAlwaysPicked(t *testing.T) {
	t.Parallel()

	scenarios := []Scenario{{Name: "only", Weight: 5}}
	sel := NewWeightedSelector(scenarios)
	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing

	for range 50 {
		assert.Equal(t, "only", sel.Pick(rng).Name)
	}
}
