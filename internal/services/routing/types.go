package routing

import (
	"time"

	"upiroute/internal/models"
)

// Selection modes
const (
	ModeStrict  = "strict"
	ModeRelaxed = "relaxed"
	ModeSwitch  = "switch"
)

// Geo match grades
const (
	GeoMatchCity  = "city"
	GeoMatchState = "state"
	GeoMatchNone  = "none"
)

// RouteInput is one inbound collection request to route.
type RouteInput struct {
	MerchantID uint
	UserID     uint
	Amount     float64
	GeoCity    string
	GeoState   string
	ClientIP   string
}

// ScoredChannel is a candidate that survived hard rejection, with its full
// factor breakdown retained for the audit row.
type ScoredChannel struct {
	Channel   *models.Channel
	Score     float64
	ExactTier bool
	Breakdown map[string]float64
}

// RouteResult is a completed routing decision.
type RouteResult struct {
	Request  *models.PaymentRequest
	Selected *ScoredChannel
	Chain    []*ScoredChannel
	Mode     string
	GeoMatch string
}

// ScoreContext carries the per-request inputs shared by every candidate
// scored against the same request. Building it is pure read+compute; nothing
// in scoring mutates state.
type ScoreContext struct {
	Now          time.Time
	BankState    map[string]string // circuit snapshot keyed by bank name
	Affinity     map[uint]float64  // merchant affinity keyed by channel id
	RecencyRanks map[uint]int      // custodian id -> 0 (most recent) .. n-1
	RecencySize  int
	GeoCity      string
	GeoState     string
	Strict       bool
}
