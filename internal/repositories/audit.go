package repositories

import (
	"context"
	"fmt"

	"upiroute/internal/models"

	"gorm.io/gorm"
)

// AuditRepository appends decision rows. Append-only: nothing here updates
// or deletes.
type AuditRepository interface {
	CreateRoutingDecision(ctx context.Context, d *models.RoutingDecision) error
	CreatePayoutEntry(ctx context.Context, e *models.PayoutAuditEntry) error
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateRoutingDecision(ctx context.Context, d *models.RoutingDecision) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to write routing decision: %w", err)
	}
	return nil
}

func (r *auditRepository) CreatePayoutEntry(ctx context.Context, e *models.PayoutAuditEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to write payout audit entry: %w", err)
	}
	return nil
}
