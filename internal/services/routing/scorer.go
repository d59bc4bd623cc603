package routing

import (
	"strings"

	"upiroute/internal/config"
	"upiroute/internal/models"
)

// Breakdown keys, stable for audit consumers.
const (
	FactorSuccessRate    = "success_rate"
	FactorHeadroom       = "headroom"
	FactorCooldown       = "cooldown"
	FactorTierMatch      = "tier_match"
	FactorDiversity      = "custodian_diversity"
	FactorAffinity       = "merchant_affinity"
	FactorBankHealth     = "bank_health"
	FactorStreakBonus    = "streak_bonus"
	FactorFailurePenalty = "failure_penalty"
	FactorHourlyPenalty  = "hourly_failure_penalty"
	FactorGeoBoost       = "geo_boost"
	FactorTotal          = "total"
)

// Scorer evaluates one channel against one request. Scoring is pure: the
// same (channel, request, context) always yields the same decision and the
// same components. Randomness lives only in the selector.
type Scorer struct {
	w config.ScoringWeights
}

func NewScorer(w config.ScoringWeights) *Scorer {
	return &Scorer{w: w}
}

// Score returns nil when the channel is hard-rejected or falls below the
// minimum aggregate. Hard rejects carry no partial credit and are checked in
// a fixed order: open circuit, tier, amount bounds, headroom.
func (s *Scorer) Score(ch *models.Channel, amount float64, sctx *ScoreContext) *ScoredChannel {
	if sctx.BankState[ch.BankName] == models.CircuitOpen {
		return nil
	}

	requestTier := models.TierForAmount(amount, s.w.LargeAmountThreshold)
	exactTier := ch.AmountTier == requestTier
	if sctx.Strict && amount >= s.w.LargeAmountThreshold && !exactTier {
		return nil
	}

	if ch.MinAmount > 0 && amount < ch.MinAmount {
		return nil
	}
	if ch.MaxAmount > 0 && amount > ch.MaxAmount {
		return nil
	}

	if ch.Headroom() < amount {
		return nil
	}

	breakdown := map[string]float64{
		FactorSuccessRate: s.w.SuccessRate * clamp01(ch.SuccessRatePct/100),
		FactorHeadroom:    s.w.DailyHeadroom * clamp01(ch.Headroom()/ch.DailyLimit),
		FactorCooldown:    s.cooldownScore(ch, sctx),
		FactorTierMatch:   s.tierScore(ch.AmountTier, requestTier),
		FactorDiversity:   s.diversityScore(ch.CustodianID, sctx),
		FactorAffinity:    s.affinityScore(ch.ID, sctx),
		FactorBankHealth:  s.bankHealthScore(ch.BankName, sctx),
		FactorStreakBonus: minFloat(float64(ch.ConsecutiveSuccesses), s.w.ConsecutiveSuccess),
		FactorFailurePenalty: -minFloat(
			s.w.ConsecutiveFailureFactor*float64(ch.ConsecutiveFailures*ch.ConsecutiveFailures),
			s.w.ConsecutiveFailureCap),
		FactorHourlyPenalty: -minFloat(
			s.w.HourlyFailurePenalty*float64(ch.HourlyFailures),
			s.w.HourlyFailureCap),
		FactorGeoBoost: s.geoScore(ch, sctx),
	}

	total := 0.0
	for _, v := range breakdown {
		total += v
	}
	breakdown[FactorTotal] = total

	if total < s.w.MinScore {
		return nil
	}

	return &ScoredChannel{
		Channel:   ch,
		Score:     total,
		ExactTier: exactTier,
		Breakdown: breakdown,
	}
}

// cooldownScore ramps from zero within a minute of last use up to the full
// weight once the channel has rested CooldownFullMinutes. Never-used
// channels get full credit.
func (s *Scorer) cooldownScore(ch *models.Channel, sctx *ScoreContext) float64 {
	if ch.LastUsedAt == nil {
		return s.w.Cooldown
	}
	minutes := sctx.Now.Sub(*ch.LastUsedAt).Minutes()
	switch {
	case minutes < 1:
		return 0
	case minutes >= s.w.CooldownFullMinutes:
		return s.w.Cooldown
	default:
		return s.w.Cooldown * (minutes - 1) / (s.w.CooldownFullMinutes - 1)
	}
}

// tierScore grades exact over adjacent over mismatched tiers. A mismatch
// that survived hard rejection (small amounts, or relaxed mode) earns the
// configured partial credit so large amounts stay routable.
func (s *Scorer) tierScore(channelTier, requestTier string) float64 {
	if channelTier == requestTier {
		return s.w.TierMatch
	}
	if tiersAdjacent(channelTier, requestTier) {
		return s.w.TierMatch * 0.5
	}
	return s.w.TierMatch * s.w.RelaxedTierCredit
}

func tiersAdjacent(a, b string) bool {
	rank := map[string]int{models.TierSmall: 0, models.TierMedium: 1, models.TierLarge: 2}
	ra, oka := rank[a]
	rb, okb := rank[b]
	if !oka || !okb {
		return false
	}
	diff := ra - rb
	return diff == 1 || diff == -1
}

// diversityScore penalizes channels of a recently used custodian to spread
// load; the most recent custodian loses the whole weight.
func (s *Scorer) diversityScore(custodianID uint, sctx *ScoreContext) float64 {
	rank, recent := sctx.RecencyRanks[custodianID]
	if !recent || sctx.RecencySize == 0 {
		return s.w.CustodianDiversity
	}
	return s.w.CustodianDiversity * float64(rank) / float64(sctx.RecencySize)
}

// affinityScore is neutral (half weight) when no history exists for the pair.
func (s *Scorer) affinityScore(channelID uint, sctx *ScoreContext) float64 {
	score, ok := sctx.Affinity[channelID]
	if !ok {
		return s.w.MerchantAffinity * 0.5
	}
	return s.w.MerchantAffinity * clamp01(score/100)
}

// bankHealthScore applies the half-open probe multiplier; OPEN banks never
// reach this point.
func (s *Scorer) bankHealthScore(bank string, sctx *ScoreContext) float64 {
	if sctx.BankState[bank] == models.CircuitHalfOpen {
		return s.w.BankHealth * s.w.HalfOpenMultiplier
	}
	return s.w.BankHealth
}

func (s *Scorer) geoScore(ch *models.Channel, sctx *ScoreContext) float64 {
	switch GeoMatch(ch, sctx.GeoCity, sctx.GeoState) {
	case GeoMatchCity:
		return s.w.GeoCityBoost
	case GeoMatchState:
		return s.w.GeoStateBoost
	default:
		return 0
	}
}

// GeoMatch grades a channel's branch location against the request origin.
func GeoMatch(ch *models.Channel, city, state string) string {
	if city != "" && ch.GeoCity != "" && strings.EqualFold(ch.GeoCity, city) {
		return GeoMatchCity
	}
	if state != "" && ch.GeoState != "" && strings.EqualFold(ch.GeoState, state) {
		return GeoMatchState
	}
	return GeoMatchNone
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
