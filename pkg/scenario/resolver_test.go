package scenario

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverFixedPoint(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	r := NewResolver(rng, 10)

	tpl, err := Parse("{{name}}")
	require.NoError(t, err)

	env := &Environment{Vars: map[string]any{"name": "{{random.int(5,5)}}"}}
	out, err := r.Resolve(tpl, env)
	require.NoError(t, err)
	assert.Equal(t, "5", out, "a variable whose value itself contains a placeholder must resolve recursively")
}

func TestResolverStopsOnNoProgress(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	r := NewResolver(rng, 10)

	tpl, err := Parse("literal text, no placeholders")
	require.NoError(t, err)

	out, err := r.Resolve(tpl, &Environment{})
	require.NoError(t, err)
	assert.Equal(t, "literal text, no placeholders", out)
}

func TestResolverRejectsSelfReferentialCycle(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	r := NewResolver(rng, 3)

	tpl, err := Parse("{{a}}")
	require.NoError(t, err)

	env := &Environment{Vars: map[string]any{"a": "{{a}}"}}
	_, err = r.Resolve(tpl, env)
	require.Error(t, err)
	var unresolved *UnresolvedTemplateError
	assert.ErrorAs(t, err, &unresolved)
}

func TestResolveAttributesDeterministicForFixedSeed(t *testing.T) {
	t.Parallel()

	attrs := map[string]*Template{}
	for _, k := range []string{"a", "b", "c", "d"} {
		tpl, err := Parse("{{random.int(0,1000000)}}")
		require.NoError(t, err)
		attrs[k] = tpl
	}

	run := func() map[string]any {
		rng := rand.New(rand.NewPCG(99, 0)) //nolint:gosec // deterministic seed for testing
		r := NewResolver(rng, 10)
		out, err := r.ResolveAttributes(attrs, &Environment{})
		require.NoError(t, err)
		return out
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "resolving the same attribute set with the same seed must draw RNG values in the same order")
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	m := map[string]any{"z": 1, "a": 2, "m": 3}
	assert.Equal(t, []string{"a", "m", "z"}, SortedKeys(m))
}

func TestChildEnvironmentDropsContextKeyAndLastMatch(t *testing.T) {
	t.Parallel()

	parent := &Environment{
		Vars:       map[string]any{"v": 1},
		ContextKey: "some-key",
		lastMatch:  "7",
	}
	child := parent.childEnvironment(map[string]any{"own": "attr"})

	assert.Equal(t, parent.Vars, child.Vars)
	assert.Equal(t, map[string]any{"own": "attr"}, child.ParentAttrs)
	assert.Empty(t, child.ContextKey, "a child must not inherit its parent's exported context key")
	assert.Empty(t, child.lastMatch, "a child must not inherit its parent's last random.int draw")
}
