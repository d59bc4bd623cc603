package repositories

import (
	"context"
	"fmt"
	"time"

	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type obligationRepository struct {
	db *gorm.DB
}

func NewObligationRepository(db *gorm.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) Create(ctx context.Context, o *models.PayoutObligation) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}
	return nil
}

func (r *obligationRepository) GetByID(ctx context.Context, id uint) (*models.PayoutObligation, error) {
	var o models.PayoutObligation
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrObligationNotFound
		}
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	return &o, nil
}

func (r *obligationRepository) ListUnassigned(ctx context.Context) ([]*models.PayoutObligation, error) {
	var obligations []*models.PayoutObligation
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ObligationStatusPending).
		Order("created_at ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned obligations: %w", err)
	}
	return obligations, nil
}

func (r *obligationRepository) ListByRequest(ctx context.Context, payoutRequestID uint) ([]*models.PayoutObligation, error) {
	var obligations []*models.PayoutObligation
	err := r.db.WithContext(ctx).
		Where("payout_request_id = ? AND status = ?", payoutRequestID, models.ObligationStatusAssigned).
		Order("created_at ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list request obligations: %w", err)
	}
	return obligations, nil
}

func (r *obligationRepository) Claim(ctx context.Context, obligationID, custodianID, payoutRequestID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutObligation{}).
		Where("id = ? AND status = ?", obligationID, models.ObligationStatusPending).
		Updates(map[string]interface{}{
			"status":            models.ObligationStatusAssigned,
			"custodian_id":      custodianID,
			"payout_request_id": payoutRequestID,
			"assigned_at":       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to claim obligation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func detachUpdates(toStatus, reason string) map[string]interface{} {
	return map[string]interface{}{
		"status":            toStatus,
		"custodian_id":      nil,
		"payout_request_id": nil,
		"assigned_at":       nil,
		"cancel_reason":     reason,
	}
}

func (r *obligationRepository) Release(ctx context.Context, obligationID, payoutRequestID uint, toStatus, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutObligation{}).
		Where("id = ? AND payout_request_id = ? AND status = ?",
			obligationID, payoutRequestID, models.ObligationStatusAssigned).
		Updates(detachUpdates(toStatus, reason))
	if result.Error != nil {
		return fmt.Errorf("failed to release obligation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *obligationRepository) ReleaseOwned(ctx context.Context, obligationID, custodianID, payoutRequestID uint, toStatus, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutObligation{}).
		Where("id = ? AND custodian_id = ? AND payout_request_id = ? AND status = ?",
			obligationID, custodianID, payoutRequestID, models.ObligationStatusAssigned).
		Updates(detachUpdates(toStatus, reason))
	if result.Error != nil {
		return fmt.Errorf("failed to release obligation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *obligationRepository) AdminRemove(ctx context.Context, obligationID uint, fromStatus string, payoutRequestID *uint) error {
	q := r.db.WithContext(ctx).
		Model(&models.PayoutObligation{}).
		Where("id = ? AND status = ?", obligationID, fromStatus)
	if payoutRequestID != nil {
		q = q.Where("payout_request_id = ?", *payoutRequestID)
	} else {
		q = q.Where("payout_request_id IS NULL")
	}
	result := q.Update("status", models.ObligationStatusRemoved)
	if result.Error != nil {
		return fmt.Errorf("failed to remove obligation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *obligationRepository) CompleteByRequest(ctx context.Context, payoutRequestID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.PayoutObligation{}).
		Where("payout_request_id = ? AND status = ?", payoutRequestID, models.ObligationStatusAssigned).
		Update("status", models.ObligationStatusCompleted).Error
	if err != nil {
		return fmt.Errorf("failed to complete request obligations: %w", err)
	}
	return nil
}

type payoutRequestRepository struct {
	db *gorm.DB
}

func NewPayoutRequestRepository(db *gorm.DB) PayoutRequestRepository {
	return &payoutRequestRepository{db: db}
}

func (r *payoutRequestRepository) Create(ctx context.Context, req *models.PayoutRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create payout request: %w", err)
	}
	return nil
}

func (r *payoutRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}
	return &req, nil
}

func (r *payoutRequestRepository) GetByID(ctx context.Context, id uint) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}
	return &req, nil
}

func (r *payoutRequestRepository) UpdateAssignment(ctx context.Context, id uint, obligationIDs pq.Int64Array,
	assigned, remaining float64, status string, inWaitingList bool) error {
	err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"assigned_obligation_ids": obligationIDs,
			"assigned_amount":         assigned,
			"remaining_amount":        remaining,
			"status":                  status,
			"in_waiting_list":         inWaitingList,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update payout assignment: %w", err)
	}
	return nil
}

func (r *payoutRequestRepository) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update payout status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *payoutRequestRepository) SetProof(ctx context.Context, id uint, custodianID uint, proofRef string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND custodian_id = ? AND status = ?",
			id, custodianID, models.PayoutStatusFullyAssigned).
		Updates(map[string]interface{}{
			"status":          models.PayoutStatusPendingVerification,
			"proof_reference": proofRef,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set payout proof: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *payoutRequestRepository) ListWaiting(ctx context.Context) ([]*models.PayoutRequest, error) {
	var requests []*models.PayoutRequest
	err := r.db.WithContext(ctx).
		Where("in_waiting_list = true AND remaining_amount > 0 AND status IN ?",
			[]string{models.PayoutStatusWaiting, models.PayoutStatusPartiallyAssigned}).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting payout requests: %w", err)
	}
	return requests, nil
}
