package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemgaloo/internal/config"
)

func TestSweepRateConstant(t *testing.T) {
	s, err := NewSweep(decayConfig(), 0, []float64{0, 1, 2})
	require.NoError(t, err)
	s.SetLogger(quiet())

	results, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0.0, results[0].K)
	assert.Equal(t, 0.0, results[0].Trace.Metrics["conversion_A"])
	assert.Less(t, results[1].Trace.Metrics["conversion_A"], results[2].Trace.Metrics["conversion_A"])

	best, err := Best(results, "conversion_A")
	require.NoError(t, err)
	assert.Equal(t, 0.0, best.K)

	_, err = Best(results, "entropy")
	require.Error(t, err)
}

func TestSweepBestByRegisteredName(t *testing.T) {
	s, err := NewSweep(decayConfig(), 0, []float64{1, 2})
	require.NoError(t, err)
	s.SetLogger(quiet())

	results, err := s.Run(context.Background())
	require.NoError(t, err)

	best, key, err := s.Best(results, "conservation")
	require.NoError(t, err)
	assert.Equal(t, "conservation_drift", key)
	assert.Contains(t, []float64{1, 2}, best.K)

	best, key, err = s.Best(results, "conversion")
	require.NoError(t, err)
	assert.Equal(t, "conversion_A", key)
	assert.Equal(t, 1.0, best.K)

	_, key, err = s.Best(results, "conversion_A")
	require.NoError(t, err)
	assert.Equal(t, "conversion_A", key)

	_, _, err = s.Best(results, "entropy")
	require.ErrorContains(t, err, "conservation_drift")
}

func TestRegistryMetricKey(t *testing.T) {
	r := NewRegistry()

	key, err := r.MetricKey("conversion", decayConfig())
	require.NoError(t, err)
	assert.Equal(t, "conversion_A", key)

	key, err = r.MetricKey("positivity", decayConfig())
	require.NoError(t, err)
	assert.Equal(t, "positivity", key)

	_, err = r.MetricKey("conservation", config.GetPreset("single"))
	require.Error(t, err)
}

func TestSweepLeavesBaseUntouched(t *testing.T) {
	cfg := decayConfig()
	s, err := NewSweep(cfg, 0, []float64{5})
	require.NoError(t, err)
	s.SetLogger(quiet())

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Reactions[0].K)
}

func TestSweepValidation(t *testing.T) {
	_, err := NewSweep(decayConfig(), 1, []float64{1})
	require.ErrorIs(t, err, config.ErrInvalid)

	_, err = NewSweep(decayConfig(), 0, nil)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestSweepCancelled(t *testing.T) {
	s, err := NewSweep(decayConfig(), 0, []float64{1, 2})
	require.NoError(t, err)
	s.SetLogger(quiet())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
