package repositories

import (
	"context"
	"fmt"

	"upiroute/internal/models"

	"gorm.io/gorm"
)

// CircuitRepository reads bank circuit rows. They are written by the
// external circuit evaluation job, never by this service.
type CircuitRepository interface {
	List(ctx context.Context) ([]*models.BankCircuit, error)
}

type circuitRepository struct {
	db *gorm.DB
}

func NewCircuitRepository(db *gorm.DB) CircuitRepository {
	return &circuitRepository{db: db}
}

func (r *circuitRepository) List(ctx context.Context) ([]*models.BankCircuit, error) {
	var circuits []*models.BankCircuit
	if err := r.db.WithContext(ctx).Find(&circuits).Error; err != nil {
		return nil, fmt.Errorf("failed to list bank circuits: %w", err)
	}
	return circuits, nil
}
