package routing

import (
	"testing"
	"time"

	"upiroute/internal/config"
	"upiroute/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *ScoreContext {
	return &ScoreContext{
		Now:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		BankState: map[string]string{"HDFC": models.CircuitClosed, "ICICI": models.CircuitClosed},
		Strict:    true,
	}
}

func healthyChannel() *models.Channel {
	return &models.Channel{
		ID:                    1,
		CustodianID:           1,
		BankName:              "HDFC",
		DailyLimit:            100000,
		DailyVolume:           0,
		SuccessRatePct:        100,
		PerformanceMultiplier: 1,
		AmountTier:            models.TierMedium,
		Status:                models.ChannelStatusActive,
	}
}

func TestScorer_HeadroomRejectionBeatsEveryOtherFactor(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())

	// Perfect history, perfect tier, but only 3k of capacity left today.
	exhausted := healthyChannel()
	exhausted.DailyLimit = 50000
	exhausted.DailyVolume = 47000
	exhausted.ConsecutiveSuccesses = 10

	fresh := healthyChannel()
	fresh.ID = 2
	fresh.CustodianID = 2

	assert.Nil(t, s.Score(exhausted, 5000, testContext()))

	got := s.Score(fresh, 5000, testContext())
	require.NotNil(t, got)
	assert.True(t, got.ExactTier)
	assert.Equal(t, config.DefaultScoringWeights().Cooldown, got.Breakdown[FactorCooldown])
}

func TestScorer_OpenCircuitIsHardRejected(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())
	sctx := testContext()
	sctx.BankState["HDFC"] = models.CircuitOpen

	assert.Nil(t, s.Score(healthyChannel(), 5000, sctx))
}

func TestScorer_StrictTierMismatchRejectsLargeAmounts(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())

	ch := healthyChannel()
	ch.DailyLimit = 500000
	ch.AmountTier = models.TierMedium

	// 15k is at the large threshold; a medium channel is out in strict mode.
	assert.Nil(t, s.Score(ch, 15000, testContext()))

	// The same pairing below the threshold is fine.
	got := s.Score(ch, 5000, testContext())
	require.NotNil(t, got)
}

func TestScorer_RelaxedModeGrantsPartialTierCredit(t *testing.T) {
	w := config.DefaultScoringWeights()
	s := NewScorer(w)

	ch := healthyChannel()
	ch.DailyLimit = 500000
	ch.AmountTier = models.TierSmall

	sctx := testContext()
	sctx.Strict = false

	got := s.Score(ch, 15000, sctx)
	require.NotNil(t, got)
	assert.False(t, got.ExactTier)
	// small vs large is not adjacent, so only the relaxed fraction survives.
	assert.InDelta(t, w.TierMatch*w.RelaxedTierCredit, got.Breakdown[FactorTierMatch], 0.001)
}

func TestScorer_AmountBoundsReject(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())

	ch := healthyChannel()
	ch.MinAmount = 1000
	ch.MaxAmount = 8000

	assert.Nil(t, s.Score(ch, 500, testContext()))
	assert.Nil(t, s.Score(ch, 9000, testContext()))
	assert.NotNil(t, s.Score(ch, 5000, testContext()))
}

func TestScorer_CooldownRamp(t *testing.T) {
	w := config.DefaultScoringWeights()
	s := NewScorer(w)
	sctx := testContext()

	never := healthyChannel()
	got := s.Score(never, 5000, sctx)
	require.NotNil(t, got)
	assert.Equal(t, w.Cooldown, got.Breakdown[FactorCooldown])

	justUsed := healthyChannel()
	used := sctx.Now.Add(-30 * time.Second)
	justUsed.LastUsedAt = &used
	got = s.Score(justUsed, 5000, sctx)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, got.Breakdown[FactorCooldown])

	halfway := healthyChannel()
	rested := sctx.Now.Add(-time.Duration(1+(w.CooldownFullMinutes-1)/2) * time.Minute)
	halfway.LastUsedAt = &rested
	got = s.Score(halfway, 5000, sctx)
	require.NotNil(t, got)
	assert.InDelta(t, w.Cooldown/2, got.Breakdown[FactorCooldown], 0.5)
}

func TestScorer_FailurePenaltiesHitMinScoreCutoff(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())

	ch := healthyChannel()
	ch.SuccessRatePct = 20
	ch.DailyVolume = 90000
	ch.ConsecutiveFailures = 4
	ch.HourlyFailures = 5
	used := testContext().Now.Add(-30 * time.Second)
	ch.LastUsedAt = &used

	assert.Nil(t, s.Score(ch, 5000, testContext()))
}

func TestScorer_IsDeterministic(t *testing.T) {
	s := NewScorer(config.DefaultScoringWeights())
	sctx := testContext()
	sctx.Affinity = map[uint]float64{1: 80}
	sctx.RecencyRanks = map[uint]int{1: 2}
	sctx.RecencySize = 5

	ch := healthyChannel()
	ch.ConsecutiveSuccesses = 3
	ch.GeoCity = "Mumbai"
	sctx.GeoCity = "mumbai"

	first := s.Score(ch, 5000, sctx)
	second := s.Score(ch, 5000, sctx)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Breakdown, second.Breakdown)
}

func TestScorer_GeoBoost(t *testing.T) {
	w := config.DefaultScoringWeights()
	s := NewScorer(w)

	ch := healthyChannel()
	ch.GeoCity = "Mumbai"
	ch.GeoState = "Maharashtra"

	sctx := testContext()
	sctx.GeoCity = "Mumbai"
	got := s.Score(ch, 5000, sctx)
	require.NotNil(t, got)
	assert.Equal(t, w.GeoCityBoost, got.Breakdown[FactorGeoBoost])

	sctx = testContext()
	sctx.GeoCity = "Pune"
	sctx.GeoState = "Maharashtra"
	got = s.Score(ch, 5000, sctx)
	require.NotNil(t, got)
	assert.Equal(t, w.GeoStateBoost, got.Breakdown[FactorGeoBoost])
}

func TestScorer_HalfOpenBankKeepsReducedCredit(t *testing.T) {
	w := config.DefaultScoringWeights()
	s := NewScorer(w)

	sctx := testContext()
	sctx.BankState["HDFC"] = models.CircuitHalfOpen

	got := s.Score(healthyChannel(), 5000, sctx)
	require.NotNil(t, got)
	assert.InDelta(t, w.BankHealth*w.HalfOpenMultiplier, got.Breakdown[FactorBankHealth], 0.001)
}

func TestScorer_RecentCustodianLosesDiversityCredit(t *testing.T) {
	w := config.DefaultScoringWeights()
	s := NewScorer(w)

	sctx := testContext()
	sctx.RecencyRanks = map[uint]int{1: 0}
	sctx.RecencySize = 5

	got := s.Score(healthyChannel(), 5000, sctx)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, got.Breakdown[FactorDiversity])
}
