package repositories

import (
	"context"
	"fmt"

	"upiroute/internal/models"

	"gorm.io/gorm"
)

// AffinityRepository reads merchant affinity scores. Recomputation happens
// asynchronously in the settlement pipeline; read-only here.
type AffinityRepository interface {
	GetScores(ctx context.Context, merchantID uint) (map[uint]float64, error)
}

type affinityRepository struct {
	db *gorm.DB
}

func NewAffinityRepository(db *gorm.DB) AffinityRepository {
	return &affinityRepository{db: db}
}

func (r *affinityRepository) GetScores(ctx context.Context, merchantID uint) (map[uint]float64, error) {
	var rows []*models.MerchantAffinity
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant affinity: %w", err)
	}

	scores := make(map[uint]float64, len(rows))
	for _, row := range rows {
		scores[row.ChannelID] = row.Score
	}
	return scores, nil
}
