package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScoringWeights_EnvOverride(t *testing.T) {
	t.Setenv("SCORE_WEIGHT_SUCCESS_RATE", "30")
	t.Setenv("SELECTOR_EXPONENT", "1.8")
	t.Setenv("FALLBACK_CHAIN_LENGTH", "4")

	w, err := LoadScoringWeights()
	require.NoError(t, err)
	assert.Equal(t, 30.0, w.SuccessRate)
	assert.Equal(t, 1.8, w.SelectorExponent)
	assert.Equal(t, 4, w.ChainLength)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultScoringWeights().TierMatch, w.TierMatch)
}

func TestScoringWeights_ValidationRejectsBadValues(t *testing.T) {
	w := DefaultScoringWeights()
	w.Cooldown = -1
	assert.Error(t, w.Validate())

	w = DefaultScoringWeights()
	w.SelectorExponent = 0
	assert.Error(t, w.Validate())

	w = DefaultScoringWeights()
	w.ChainLength = 0
	assert.Error(t, w.Validate())

	w = DefaultScoringWeights()
	w.RelaxedTierCredit = 1.5
	assert.Error(t, w.Validate())

	assert.NoError(t, DefaultScoringWeights().Validate())
}
