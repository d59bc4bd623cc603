package config

import (
	"fmt"
	"log"
)

// ScoringWeights holds the soft-factor weights and thresholds used by the
// channel scorer and selector. Defaults are merged over env overrides at
// load time. Weights are conventionally tuned so the positive factors sum
// near 100, but nothing enforces that; only negative values are rejected.
type ScoringWeights struct {
	SuccessRate        float64
	DailyHeadroom      float64
	Cooldown           float64
	TierMatch          float64
	CustodianDiversity float64
	MerchantAffinity   float64
	BankHealth         float64
	ConsecutiveSuccess float64 // cap for the per-streak bonus

	ConsecutiveFailureFactor float64 // escalates with the square of the streak
	ConsecutiveFailureCap    float64
	HourlyFailurePenalty     float64 // per recent failure
	HourlyFailureCap         float64
	GeoCityBoost             float64
	GeoStateBoost            float64

	MinScore             float64
	LargeAmountThreshold float64
	RelaxedTierCredit    float64 // fraction of TierMatch granted on mismatch in relaxed mode
	CooldownFullMinutes  float64
	HalfOpenMultiplier   float64

	ChainLength      int
	SelectorExponent float64
	RecencyListSize  int
	RecencyPenalty   float64 // max weight reduction for the most recent custodian
}

// DefaultScoringWeights returns the tuned production defaults.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		SuccessRate:        25,
		DailyHeadroom:      15,
		Cooldown:           15,
		TierMatch:          15,
		CustodianDiversity: 10,
		MerchantAffinity:   10,
		BankHealth:         10,
		ConsecutiveSuccess: 5,

		ConsecutiveFailureFactor: 2,
		ConsecutiveFailureCap:    30,
		HourlyFailurePenalty:     3,
		HourlyFailureCap:         15,
		GeoCityBoost:             8,
		GeoStateBoost:            4,

		MinScore:             20,
		LargeAmountThreshold: 10000,
		RelaxedTierCredit:    0.25,
		CooldownFullMinutes:  30,
		HalfOpenMultiplier:   0.3,

		ChainLength:      3,
		SelectorExponent: 1.3,
		RecencyListSize:  5,
		RecencyPenalty:   0.5,
	}
}

// LoadScoringWeights merges env overrides over the defaults and validates.
func LoadScoringWeights() (ScoringWeights, error) {
	w := DefaultScoringWeights()

	w.SuccessRate = GetFloatEnv("SCORE_WEIGHT_SUCCESS_RATE", w.SuccessRate)
	w.DailyHeadroom = GetFloatEnv("SCORE_WEIGHT_HEADROOM", w.DailyHeadroom)
	w.Cooldown = GetFloatEnv("SCORE_WEIGHT_COOLDOWN", w.Cooldown)
	w.TierMatch = GetFloatEnv("SCORE_WEIGHT_TIER_MATCH", w.TierMatch)
	w.CustodianDiversity = GetFloatEnv("SCORE_WEIGHT_DIVERSITY", w.CustodianDiversity)
	w.MerchantAffinity = GetFloatEnv("SCORE_WEIGHT_AFFINITY", w.MerchantAffinity)
	w.BankHealth = GetFloatEnv("SCORE_WEIGHT_BANK_HEALTH", w.BankHealth)
	w.ConsecutiveSuccess = GetFloatEnv("SCORE_WEIGHT_STREAK_BONUS", w.ConsecutiveSuccess)
	w.MinScore = GetFloatEnv("SCORE_MIN_AGGREGATE", w.MinScore)
	w.LargeAmountThreshold = GetFloatEnv("SCORE_LARGE_AMOUNT_THRESHOLD", w.LargeAmountThreshold)
	w.CooldownFullMinutes = GetFloatEnv("SCORE_COOLDOWN_FULL_MINUTES", w.CooldownFullMinutes)
	w.HalfOpenMultiplier = GetFloatEnv("SCORE_HALF_OPEN_MULTIPLIER", w.HalfOpenMultiplier)
	w.ChainLength = GetIntEnv("FALLBACK_CHAIN_LENGTH", w.ChainLength)
	w.SelectorExponent = GetFloatEnv("SELECTOR_EXPONENT", w.SelectorExponent)
	w.RecencyListSize = GetIntEnv("SELECTOR_RECENCY_SIZE", w.RecencyListSize)
	w.RecencyPenalty = GetFloatEnv("SELECTOR_RECENCY_PENALTY", w.RecencyPenalty)

	if err := w.Validate(); err != nil {
		return w, err
	}

	sum := w.SuccessRate + w.DailyHeadroom + w.Cooldown + w.TierMatch +
		w.CustodianDiversity + w.MerchantAffinity + w.BankHealth + w.ConsecutiveSuccess
	if sum < 80 || sum > 120 {
		log.Printf("scoring weights sum to %.1f, outside the conventional 100 range", sum)
	}

	return w, nil
}

// Validate rejects structurally invalid weight sets.
func (w ScoringWeights) Validate() error {
	named := map[string]float64{
		"SuccessRate":          w.SuccessRate,
		"DailyHeadroom":        w.DailyHeadroom,
		"Cooldown":             w.Cooldown,
		"TierMatch":            w.TierMatch,
		"CustodianDiversity":   w.CustodianDiversity,
		"MerchantAffinity":     w.MerchantAffinity,
		"BankHealth":           w.BankHealth,
		"ConsecutiveSuccess":   w.ConsecutiveSuccess,
		"HourlyFailurePenalty": w.HourlyFailurePenalty,
		"GeoCityBoost":         w.GeoCityBoost,
		"GeoStateBoost":        w.GeoStateBoost,
	}
	for name, v := range named {
		if v < 0 {
			return fmt.Errorf("scoring weight %s must not be negative, got %f", name, v)
		}
	}
	if w.SelectorExponent <= 0 {
		return fmt.Errorf("selector exponent must be positive, got %f", w.SelectorExponent)
	}
	if w.ChainLength < 1 {
		return fmt.Errorf("fallback chain length must be at least 1, got %d", w.ChainLength)
	}
	if w.RelaxedTierCredit < 0 || w.RelaxedTierCredit > 1 {
		return fmt.Errorf("relaxed tier credit must be in [0,1], got %f", w.RelaxedTierCredit)
	}
	return nil
}
