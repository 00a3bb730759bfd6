package activation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myonorm/internal/activation"
	"myonorm/internal/emgerr"
	ts "myonorm/internal/testsupport"
)

func TestStableWindowConstantVariance(t *testing.T) {
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = 1
		if i%2 == 1 {
			signal[i] = -1
		}
	}
	window, ok, err := activation.StableWindow(signal, 2000, 100, 0.1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, window.Samples)
	assert.InDelta(t, 0.001, window.Seconds, 1e-15)
}

func TestStableWindowConstantSignal(t *testing.T) {
	window, ok, err := activation.StableWindow(ts.Constant(3.3, 500), 1000, 10, 0.1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, window.Samples)
}

func TestStableWindowSine(t *testing.T) {
	window, ok, err := activation.StableWindow(ts.Sine(1, 100, 2, 2000), 2000, 100, 0.1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 102, window.Samples)
}

func TestStableWindowNotFound(t *testing.T) {
	signal := make([]float64, 50)
	signal[25] = 1
	_, ok, err := activation.StableWindow(signal, 2000, 100, 0.1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = activation.StableWindow([]float64{1}, 2000, 100, 0.1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStableWindowRejectsBadParameters(t *testing.T) {
	signal := ts.Constant(1, 10)
	_, _, err := activation.StableWindow(signal, 2000, 0, 0.1)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
	_, _, err = activation.StableWindow(signal, 2000, 1, -0.1)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
	_, _, err = activation.StableWindow(signal, 0, 1, 0.1)
	assert.ErrorIs(t, err, emgerr.ErrConfiguration)
}
