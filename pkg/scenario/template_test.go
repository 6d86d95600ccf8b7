package scenario

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateLiteralPassthrough(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("no placeholders here")
	require.NoError(t, err)
	assert.False(t, HasPlaceholders(tpl.Source()))

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(&Environment{}, rng)
	require.NoError(t, err)
	assert.Equal(t, "no placeholders here", out)
}

func TestTemplateRandomInt(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("status={{random.int(200,200)}}")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(&Environment{}, rng)
	require.NoError(t, err)
	assert.Equal(t, "status=200", out)
}

func TestTemplateRandomChoice(t *testing.T) {
	t.Parallel()

	tpl, err := Parse(`{{random.choice(["a", "b", "c"])}}`)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(&Environment{}, rng)
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c"}, out)
}

func TestTemplateRandomUUIDFormat(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("{{random.uuid}}")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(&Environment{}, rng)
	require.NoError(t, err)
	assert.Len(t, out, 36)
}

func TestTemplateVarReference(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("{{user_id}}")
	require.NoError(t, err)

	env := &Environment{Vars: map[string]any{"user_id": "u-42"}}
	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(env, rng)
	require.NoError(t, err)
	assert.Equal(t, "u-42", out)
}

func TestTemplateUnknownVarErrors(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("{{missing}}")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	_, err = tpl.evalOnce(&Environment{}, rng)
	assert.Error(t, err)
}

func TestTemplateParentAttributes(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("{{parent.attributes.region}}")
	require.NoError(t, err)

	env := &Environment{ParentAttrs: map[string]any{"region": "us-east-1"}}
	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	out, err := tpl.evalOnce(env, rng)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", out)
}

func TestTemplateContextKeyWithoutExportErrors(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("{{context_key}}")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 0)) //nolint:gosec // deterministic seed for testing
	_, err = tpl.evalOnce(&Environment{}, rng)
	assert.Error(t, err)
}

func TestTemplateCacheReturnsSameInstance(t *testing.T) {
	t.Parallel()

	raw := "cache-key-{{random.uuid}}-test"
	a, err := Parse(raw)
	require.NoError(t, err)
	b, err := Parse(raw)
	require.NoError(t, err)
	assert.Same(t, a, b, "identical source strings must share a cached parse")
}

func TestParseRejectsUnknownFunction(t *testing.T) {
	t.Parallel()

	_, err := Parse("{{bogus.thing(1,2)}}")
	assert.Error(t, err)
}

func TestParseRejectsMalformedRandomInt(t *testing.T) {
	t.Parallel()

	_, err := Parse("{{random.int(oops)}}")
	assert.Error(t, err)
}
