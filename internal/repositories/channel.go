package repositories

import (
	"context"

	"upiroute/internal/models"
)

// ChannelRepository provides channel reads and the atomic mutations the
// router is allowed to perform. Volume and counter updates are single
// conditional statements; a conflict surfaces as ErrConcurrentConflict.
type ChannelRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Channel, error)
	// GetActiveCandidates returns active channels whose owning custodian is
	// active, the raw candidate set for scoring.
	GetActiveCandidates(ctx context.Context) ([]*models.Channel, error)
	// ReserveVolume atomically adds amount to the channel's daily volume,
	// guarded by the multiplied daily limit still covering it.
	ReserveVolume(ctx context.Context, channelID uint, amount float64) error
	// ReleaseVolume atomically subtracts a previously reserved amount.
	ReleaseVolume(ctx context.Context, channelID uint, amount float64) error
	// RecordSuccess bumps the success streak and stamps last use.
	RecordSuccess(ctx context.Context, channelID uint) error
	// RecordFailure bumps failure counters and resets the success streak.
	RecordFailure(ctx context.Context, channelID uint) error
}
