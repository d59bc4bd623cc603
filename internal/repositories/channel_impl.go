package repositories

import (
	"context"
	"fmt"
	"time"

	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"

	"gorm.io/gorm"
)

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) GetByID(ctx context.Context, id uint) (*models.Channel, error) {
	var ch models.Channel
	if err := r.db.WithContext(ctx).First(&ch, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &ch, nil
}

func (r *channelRepository) GetActiveCandidates(ctx context.Context) ([]*models.Channel, error) {
	var channels []*models.Channel
	err := r.db.WithContext(ctx).
		Joins("JOIN custodians ON custodians.id = channels.custodian_id AND custodians.active = true").
		Where("channels.status = ?", models.ChannelStatusActive).
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate channels: %w", err)
	}
	return channels, nil
}

func (r *channelRepository) ReserveVolume(ctx context.Context, channelID uint, amount float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ? AND status = ? AND daily_volume + ? <= daily_limit * performance_multiplier",
			channelID, models.ChannelStatusActive, amount).
		Updates(map[string]interface{}{
			"daily_volume": gorm.Expr("daily_volume + ?", amount),
			"last_used_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reserve channel volume: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *channelRepository) ReleaseVolume(ctx context.Context, channelID uint, amount float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ?", channelID).
		Update("daily_volume", gorm.Expr("GREATEST(daily_volume - ?, 0)", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to release channel volume: %w", result.Error)
	}
	return nil
}

func (r *channelRepository) RecordSuccess(ctx context.Context, channelID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ?", channelID).
		Updates(map[string]interface{}{
			"consecutive_successes": gorm.Expr("consecutive_successes + 1"),
			"consecutive_failures":  0,
			"last_used_at":          time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record channel success: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrChannelNotFound
	}
	return nil
}

func (r *channelRepository) RecordFailure(ctx context.Context, channelID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ?", channelID).
		Updates(map[string]interface{}{
			"consecutive_failures":  gorm.Expr("consecutive_failures + 1"),
			"consecutive_successes": 0,
			"hourly_failures":       gorm.Expr("hourly_failures + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record channel failure: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrChannelNotFound
	}
	return nil
}
