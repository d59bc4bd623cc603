package models

import (
	"time"
)

// Channel statuses
const (
	ChannelStatusActive   = "active"
	ChannelStatusInactive = "inactive"
)

// Amount tiers
const (
	TierSmall  = "small"
	TierMedium = "medium"
	TierLarge  = "large"
)

// Channel is a shared collection account (virtual payment address) operated
// by a custodian. Volume and counter fields are mutated only through atomic
// increments in the repository layer; channels are deactivated, never deleted.
type Channel struct {
	ID                    uint    `gorm:"primarykey"`
	CustodianID           uint    `gorm:"not null;index"`
	BankName              string  `gorm:"not null;index"`
	BranchCode            string  // IFSC-style branch code for geo resolution
	VPA                   string  `gorm:"uniqueIndex;not null"`
	DailyLimit            float64 `gorm:"not null"`
	DailyVolume           float64 `gorm:"not null;default:0"`
	SuccessRatePct        float64 `gorm:"default:100"`
	LastUsedAt            *time.Time
	HourlyFailures        int     `gorm:"default:0"`
	ConsecutiveSuccesses  int     `gorm:"default:0"`
	ConsecutiveFailures   int     `gorm:"default:0"`
	PerformanceMultiplier float64 `gorm:"default:1"`
	AmountTier            string  `gorm:"not null;default:'medium'"`
	MinAmount             float64 `gorm:"default:0"`
	MaxAmount             float64 `gorm:"default:0"`
	GeoCity               string
	GeoState              string
	Status                string `gorm:"not null;default:'active'"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Headroom returns the remaining daily capacity after the performance
// multiplier is applied to the configured limit.
func (c *Channel) Headroom() float64 {
	return c.DailyLimit*c.PerformanceMultiplier - c.DailyVolume
}

// Custodian operates one or more channels and funds payout obligations.
type Custodian struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TierForAmount maps an amount onto the tier a channel declares.
func TierForAmount(amount, largeThreshold float64) string {
	switch {
	case amount >= largeThreshold:
		return TierLarge
	case amount >= largeThreshold/10:
		return TierMedium
	default:
		return TierSmall
	}
}
