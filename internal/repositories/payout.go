package repositories

import (
	"context"

	"upiroute/internal/models"

	"github.com/lib/pq"
)

// ObligationRepository persists payout obligations. Claim and Release are
// the only assignment mutations and each is a single conditional statement;
// the allocator's double-assignment safety rests on that.
type ObligationRepository interface {
	Create(ctx context.Context, o *models.PayoutObligation) error
	GetByID(ctx context.Context, id uint) (*models.PayoutObligation, error)
	// ListUnassigned returns pending obligations strictly oldest-first.
	ListUnassigned(ctx context.Context) ([]*models.PayoutObligation, error)
	// ListByRequest returns the obligations currently assigned to a request,
	// the authoritative set for recomputing amounts.
	ListByRequest(ctx context.Context, payoutRequestID uint) ([]*models.PayoutObligation, error)
	// Claim assigns a pending obligation to a custodian and request. Returns
	// ErrConcurrentConflict when the row is no longer pending.
	Claim(ctx context.Context, obligationID, custodianID, payoutRequestID uint) error
	// Release detaches an assigned obligation back into the pool with the
	// given terminal-or-pending status and optional reason. Guarded by the
	// owning request so a release never detaches a reassigned row.
	Release(ctx context.Context, obligationID, payoutRequestID uint, toStatus, reason string) error
	// ReleaseOwned is Release additionally guarded by the owning custodian.
	ReleaseOwned(ctx context.Context, obligationID, custodianID, payoutRequestID uint, toStatus, reason string) error
	// AdminRemove terminally removes an obligation from circulation, guarded
	// by the status and owning request observed at read time so the caller
	// always knows which request (if any) must be recomputed.
	AdminRemove(ctx context.Context, obligationID uint, fromStatus string, payoutRequestID *uint) error
	// CompleteByRequest marks all obligations assigned to a request completed.
	CompleteByRequest(ctx context.Context, payoutRequestID uint) error
}

// PayoutRequestRepository persists custodian payout requests.
type PayoutRequestRepository interface {
	Create(ctx context.Context, req *models.PayoutRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*models.PayoutRequest, error)
	GetByID(ctx context.Context, id uint) (*models.PayoutRequest, error)
	// UpdateAssignment persists recomputed assignment state in one statement.
	UpdateAssignment(ctx context.Context, id uint, obligationIDs pq.Int64Array,
		assigned, remaining float64, status string, inWaitingList bool) error
	// UpdateStatus transitions status guarded by the expected current status.
	UpdateStatus(ctx context.Context, id uint, from, to string) error
	// SetProof records the custodian's proof reference while moving
	// fully_assigned to pending_verification.
	SetProof(ctx context.Context, id uint, custodianID uint, proofRef string) error
	// ListWaiting returns non-terminal requests with unmet remainder,
	// strictly oldest-first.
	ListWaiting(ctx context.Context) ([]*models.PayoutRequest, error)
}
