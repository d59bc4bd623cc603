package models

import (
	"time"

	"github.com/lib/pq"
)

// Payment request statuses
const (
	RequestStatusPending   = "pending"
	RequestStatusCompleted = "completed"
	RequestStatusFailed    = "failed"
	RequestStatusExpired   = "expired"
)

// PaymentRequest is one inbound collection attempt. The fallback chain is
// computed once at routing time; CurrentAttempt advances only through the
// explicit switch-channel operation.
type PaymentRequest struct {
	ID                uint   `gorm:"primarykey"`
	RequestID         string `gorm:"uniqueIndex;not null"` // external uuid reference
	MerchantID        uint   `gorm:"not null;index"`
	UserID            uint   `gorm:"not null;index"`
	Amount            float64
	SelectedChannelID uint
	FallbackChain     pq.Int64Array `gorm:"type:bigint[]"`
	CurrentAttempt    int           `gorm:"default:0"`
	MaxAttempts       int           `gorm:"default:3"`

	// AttemptSettled flips once per attempt, when its failure is recorded or
	// the request switches away; the flipping statement gates the volume
	// release so each attempt settles exactly once.
	AttemptSettled bool   `gorm:"default:false"`
	Status         string `gorm:"not null;default:'pending'"`
	SelectionMode  string // strict or relaxed, for audit correlation
	GeoCity        string
	GeoState       string
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CurrentChannelID returns the channel the request is presently pointed at.
func (r *PaymentRequest) CurrentChannelID() uint {
	if r.CurrentAttempt < 0 || r.CurrentAttempt >= len(r.FallbackChain) {
		return 0
	}
	return uint(r.FallbackChain[r.CurrentAttempt])
}
