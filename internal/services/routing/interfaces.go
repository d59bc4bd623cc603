package routing

import (
	"context"

	"upiroute/internal/models"
	"upiroute/internal/services/velocity"
)

// Service is the inbound router: velocity admission, candidate scoring,
// fallback chain construction, weighted selection, persistence and audit.
type Service interface {
	Route(ctx context.Context, input RouteInput) (*RouteResult, error)
	// SwitchChannel advances a pending request to the next usable standby in
	// its pre-computed fallback chain, without re-scoring.
	SwitchChannel(ctx context.Context, requestID string) (*models.PaymentRequest, error)
	// RecordOutcome applies a transaction outcome to the live channel's
	// counters and the request status.
	RecordOutcome(ctx context.Context, requestID string, success bool) error
}

// BankHealth is the circuit view the scorer and router consume.
type BankHealth interface {
	Snapshot(ctx context.Context) map[string]string
}

// VelocityChecker gates admission before any scoring work happens.
type VelocityChecker interface {
	Check(ctx context.Context, identifier, kind string, amount float64) (velocity.Result, error)
}

// AffinityProvider returns merchant affinity scores keyed by channel id.
type AffinityProvider interface {
	Scores(ctx context.Context, merchantID uint) (map[uint]float64, error)
}

// AuditRecorder appends one decision row per routing decision.
type AuditRecorder interface {
	RecordRouting(ctx context.Context, d *models.RoutingDecision) error
}

// OriginResolver maps a caller's network origin onto an approximate location.
// Best-effort: a miss returns empty values, never an eligibility error.
type OriginResolver interface {
	ResolveOrigin(ctx context.Context, ip string) (city, state string)
}
