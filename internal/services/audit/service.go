// Package audit writes the append-only decision trail. Every routing
// decision and payout mutation produces exactly one row; nothing here is
// sampled or best-effort.
package audit

import (
	"context"

	"upiroute/internal/models"
	"upiroute/internal/repositories"
)

type Service struct {
	repo repositories.AuditRepository
}

func NewService(repo repositories.AuditRepository) *Service {
	if repo == nil {
		panic("audit repository is required")
	}
	return &Service{repo: repo}
}

func (s *Service) RecordRouting(ctx context.Context, d *models.RoutingDecision) error {
	return s.repo.CreateRoutingDecision(ctx, d)
}

func (s *Service) RecordPayout(ctx context.Context, e *models.PayoutAuditEntry) error {
	return s.repo.CreatePayoutEntry(ctx, e)
}
