package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStatsCommandEmptyInMemoryStore(t *testing.T) {
	t.Parallel()

	root := rootCmd()
	root.SetArgs([]string{"store", "stats"})
	var out bytes.Buffer
	root.SetOut(&out)

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "healthy: true")
}

func TestStoreListCommandEmptyInMemoryStore(t *testing.T) {
	t.Parallel()

	root := rootCmd()
	root.SetArgs([]string{"store", "list"})
	var out bytes.Buffer
	root.SetOut(&out)

	require.NoError(t, root.Execute())
}

func TestStoreStatsCommandUnrecognisedDSNErrors(t *testing.T) {
	t.Parallel()

	root := rootCmd()
	root.SetArgs([]string{"store", "stats", "--store", "mysql://localhost/db"})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)

	assert.Error(t, root.Execute())
}
