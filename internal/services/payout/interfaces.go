package payout

import (
	"context"

	"upiroute/internal/models"
)

// Service matches custodian payout requests against the pool of unassigned
// obligations and manages the request lifecycle.
type Service interface {
	// CreateObligation adds an unassigned obligation to the pool and kicks
	// the waiting list (new capacity appeared).
	CreateObligation(ctx context.Context, amount float64) (*models.PayoutObligation, error)
	// Allocate creates a payout request for the custodian and greedily fills
	// it oldest-obligation-first. Partial or empty fills are valid outcomes.
	Allocate(ctx context.Context, custodianID uint, requestedAmount float64) (*models.PayoutRequest, error)
	// CancelByCustodian detaches an assigned obligation back into the pool
	// and recomputes the owning request from its remaining assigned set.
	CancelByCustodian(ctx context.Context, obligationID, custodianID uint, reason string) error
	// RemoveByAdmin terminally removes an obligation; nothing returns to the
	// pool and no reprocessing is triggered.
	RemoveByAdmin(ctx context.Context, obligationID uint) error
	// ReassignToPool detaches an obligation like a cancellation, without
	// requiring a reason, and triggers reprocessing.
	ReassignToPool(ctx context.Context, obligationID uint) error
	// Confirm moves a fully assigned request to pending_verification with
	// the custodian's proof reference.
	Confirm(ctx context.Context, requestID string, custodianID uint, proofRef string) error
	// Verify marks a pending_verification request verified and completes its
	// obligations.
	Verify(ctx context.Context, requestID string) error
	// CancelRequest cancels a non-terminal request and releases its
	// obligations back to the pool.
	CancelRequest(ctx context.Context, requestID string, custodianID uint) error
	// GetRequest returns a payout request by its external id.
	GetRequest(ctx context.Context, requestID string) (*models.PayoutRequest, error)
}

// WaitlistProcessor re-runs allocation for backlogged requests when new
// capacity appears.
type WaitlistProcessor interface {
	ProcessWaitingList(ctx context.Context) error
}

// AuditRecorder appends one row per payout mutation.
type AuditRecorder interface {
	RecordPayout(ctx context.Context, e *models.PayoutAuditEntry) error
}
