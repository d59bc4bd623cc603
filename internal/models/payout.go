package models

import (
	"time"

	"github.com/lib/pq"
)

// Payout obligation statuses
const (
	ObligationStatusPending   = "pending"
	ObligationStatusAssigned  = "assigned"
	ObligationStatusCompleted = "completed"
	ObligationStatusCancelled = "cancelled_by_custodian"
	ObligationStatusRemoved   = "removed_by_admin"
)

// Payout request statuses
const (
	PayoutStatusWaiting             = "waiting"
	PayoutStatusPartiallyAssigned   = "partially_assigned"
	PayoutStatusFullyAssigned       = "fully_assigned"
	PayoutStatusPendingVerification = "pending_verification"
	PayoutStatusVerified            = "verified"
	PayoutStatusCancelled           = "cancelled"
)

// PayoutObligation is a single outbound payout owed to an end recipient,
// waiting to be funded by a custodian. Assignment fields are only ever set
// together by the conditional claim update and cleared together by release.
type PayoutObligation struct {
	ID              uint   `gorm:"primarykey"`
	Reference       string `gorm:"uniqueIndex;not null"` // external uuid reference
	Amount          float64
	Status          string `gorm:"not null;default:'pending';index"`
	CustodianID     *uint  `gorm:"index"`
	PayoutRequestID *uint  `gorm:"index"`
	AssignedAt      *time.Time
	CancelReason    string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

// PayoutRequest is a custodian's ask for payout work. AssignedObligationIDs
// is a persisted snapshot; the obligations' foreign keys are authoritative
// and amounts are always recomputed from them after any mutation.
type PayoutRequest struct {
	ID                    uint   `gorm:"primarykey"`
	RequestID             string `gorm:"uniqueIndex;not null"`
	CustodianID           uint   `gorm:"not null;index"`
	RequestedAmount       float64
	AssignedAmount        float64       `gorm:"default:0"`
	RemainingAmount       float64       `gorm:"default:0"`
	AssignedObligationIDs pq.Int64Array `gorm:"type:bigint[]"`
	Status                string        `gorm:"not null;default:'waiting'"`
	InWaitingList         bool          `gorm:"default:false;index"`
	ProofReference        string
	CreatedAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time
}

// Terminal reports whether the request can no longer change assignment state.
func (r *PayoutRequest) Terminal() bool {
	switch r.Status {
	case PayoutStatusVerified, PayoutStatusCancelled:
		return true
	}
	return false
}
