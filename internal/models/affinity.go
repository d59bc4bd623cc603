package models

import "time"

// MerchantAffinity is the historical fit score for a (merchant, channel)
// pair, recomputed asynchronously by the settlement pipeline. Read-only here.
type MerchantAffinity struct {
	ID         uint    `gorm:"primarykey"`
	MerchantID uint    `gorm:"not null;uniqueIndex:idx_merchant_channel"`
	ChannelID  uint    `gorm:"not null;uniqueIndex:idx_merchant_channel"`
	Score      float64 `gorm:"default:50"` // 0..100
	UpdatedAt  time.Time
}
