package models

import (
	"time"

	"github.com/lib/pq"
)

// Payout audit actions
const (
	PayoutActionAllocate    = "allocate"
	PayoutActionCancel      = "cancel_by_custodian"
	PayoutActionAdminRemove = "remove_by_admin"
	PayoutActionReassign    = "reassign_to_pool"
	PayoutActionWaitlist    = "waitlist_refill"
	PayoutActionConfirm     = "confirm"
	PayoutActionVerify      = "verify"
	PayoutActionCancelReq   = "cancel_request"
)

// RoutingDecision is the append-only audit row written for every routing
// decision. The full per-candidate score breakdown is kept for tuning and
// dispute investigation, not sampled.
type RoutingDecision struct {
	ID                uint   `gorm:"primarykey"`
	PaymentRequestID  string `gorm:"not null;index"`
	MerchantID        uint   `gorm:"index"`
	Amount            float64
	SelectedChannelID uint
	FallbackChain     pq.Int64Array `gorm:"type:bigint[]"`
	Mode              string        // strict or relaxed
	GeoMatch          string        // city, state or none
	Breakdown         JSON          `gorm:"type:jsonb"` // per-candidate factor scores
	CreatedAt         time.Time
}

// PayoutAuditEntry is the append-only audit row for every payout mutation.
type PayoutAuditEntry struct {
	ID              uint          `gorm:"primarykey"`
	PayoutRequestID string        `gorm:"index"`
	ObligationID    *uint
	Action          string        `gorm:"not null"`
	ObligationIDs   pq.Int64Array `gorm:"type:bigint[]"`
	ResultingStatus string
	AssignedAmount  float64
	RemainingAmount float64
	Reason          string
	CreatedAt       time.Time
}
