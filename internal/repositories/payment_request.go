package repositories

import (
	"context"
	"fmt"

	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"

	"gorm.io/gorm"
)

// PaymentRequestRepository persists inbound payment requests. Attempt and
// status transitions are conditional updates guarded by the expected current
// value so concurrent switches cannot double-advance.
type PaymentRequestRepository interface {
	Create(ctx context.Context, req *models.PaymentRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*models.PaymentRequest, error)
	// AdvanceAttempt moves the request to a later chain position, guarded by
	// the attempt index the caller observed. The new attempt starts unsettled.
	AdvanceAttempt(ctx context.Context, requestID string, fromAttempt, toAttempt int, toChannelID uint) error
	// SettleAttempt marks the given attempt settled. Returns
	// ErrConcurrentConflict when the attempt already settled or moved on, so
	// the caller's follow-up writes (failure count, volume release) run at
	// most once per attempt.
	SettleAttempt(ctx context.Context, requestID string, attempt int) error
	// UpdateStatus transitions status, guarded by the expected current status.
	UpdateStatus(ctx context.Context, requestID string, from, to string) error
}

type paymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(ctx context.Context, req *models.PaymentRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

func (r *paymentRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domainerrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return &req, nil
}

func (r *paymentRequestRepository) AdvanceAttempt(ctx context.Context, requestID string, fromAttempt, toAttempt int, toChannelID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("request_id = ? AND current_attempt = ? AND status = ?",
			requestID, fromAttempt, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"current_attempt":     toAttempt,
			"selected_channel_id": toChannelID,
			"attempt_settled":     false,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to advance attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *paymentRequestRepository) SettleAttempt(ctx context.Context, requestID string, attempt int) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("request_id = ? AND current_attempt = ? AND attempt_settled = false AND status = ?",
			requestID, attempt, models.RequestStatusPending).
		Update("attempt_settled", true)
	if result.Error != nil {
		return fmt.Errorf("failed to settle attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

func (r *paymentRequestRepository) UpdateStatus(ctx context.Context, requestID string, from, to string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("request_id = ? AND status = ?", requestID, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update request status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}
