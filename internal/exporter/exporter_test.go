package exporter

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracegen/tracegen/pkg/scenario"
)

func TestNewDefaultsToStdoutProtocol(t *testing.T) {
	t.Parallel()

	providers, err := New(context.Background(), Options{})
	require.NoError(t, err)
	require.NotNil(t, providers.Logger)
	require.NotNil(t, providers.Meter)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestNewRejectsUnsupportedProtocol(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Options{Protocol: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewWorkerTracerProviderRegistersForShutdown(t *testing.T) {
	t.Parallel()

	providers, err := New(context.Background(), Options{Protocol: ProtocolStdout})
	require.NoError(t, err)

	tp, err := providers.NewWorkerTracerProvider(context.Background(), Options{Protocol: ProtocolStdout}, scenario.NewIDGenerator(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	require.NotNil(t, tp)

	require.Len(t, providers.workerTracers, 1)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestNewWorkerTracerProviderRejectsUnsupportedProtocol(t *testing.T) {
	t.Parallel()

	providers, err := New(context.Background(), Options{Protocol: ProtocolStdout})
	require.NoError(t, err)

	_, err = providers.NewWorkerTracerProvider(context.Background(), Options{Protocol: "carrier-pigeon"}, scenario.NewIDGenerator(rand.New(rand.NewPCG(1, 2))))
	assert.Error(t, err)
}
