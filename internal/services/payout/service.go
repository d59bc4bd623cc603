package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"
	"upiroute/internal/repositories"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const waitlistTimeout = 30 * time.Second

type service struct {
	obligations repositories.ObligationRepository
	requests    repositories.PayoutRequestRepository
	audit       AuditRecorder
}

// NewService creates the payout allocator. The same instance serves as the
// waiting list processor.
func NewService(
	obligations repositories.ObligationRepository,
	requests repositories.PayoutRequestRepository,
	audit AuditRecorder,
) Service {
	if obligations == nil {
		panic("obligation repository is required")
	}
	if requests == nil {
		panic("payout request repository is required")
	}
	if audit == nil {
		panic("audit recorder is required")
	}
	return &service{
		obligations: obligations,
		requests:    requests,
		audit:       audit,
	}
}

func (s *service) CreateObligation(ctx context.Context, amount float64) (*models.PayoutObligation, error) {
	if amount <= 0 {
		return nil, domainerrors.ErrInvalidAmount
	}

	o := &models.PayoutObligation{
		Reference: uuid.NewString(),
		Amount:    amount,
		Status:    models.ObligationStatusPending,
	}
	if err := s.obligations.Create(ctx, o); err != nil {
		return nil, err
	}

	// New capacity: backlogged requests get first call at it.
	s.triggerWaitlist()
	return o, nil
}

func (s *service) Allocate(ctx context.Context, custodianID uint, requestedAmount float64) (*models.PayoutRequest, error) {
	if requestedAmount <= 0 {
		return nil, domainerrors.ErrInvalidAmount
	}

	req := &models.PayoutRequest{
		RequestID:       uuid.NewString(),
		CustodianID:     custodianID,
		RequestedAmount: requestedAmount,
		RemainingAmount: requestedAmount,
		Status:          models.PayoutStatusWaiting,
		InWaitingList:   true,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	if _, err := s.fill(ctx, req, models.PayoutActionAllocate); err != nil {
		return nil, err
	}
	return req, nil
}

// fill claims obligations oldest-first until the request is covered or the
// pool runs dry, then recomputes the request from the authoritative assigned
// set. An obligation larger than the unmet remainder is skipped, never
// claimed: a claim must never push assignedAmount past requestedAmount.
// Returns true only when no unclaimed obligation is left in the pool, the
// waiting list scan's early-stop signal. An unmet remainder alone is not
// exhaustion: an oversized obligation this request skipped is still open to
// smaller requests further down the queue.
func (s *service) fill(ctx context.Context, req *models.PayoutRequest, action string) (bool, error) {
	pool, err := s.obligations.ListUnassigned(ctx)
	if err != nil {
		return false, err
	}

	remaining := req.RequestedAmount - req.AssignedAmount
	claimed := 0
	open := 0
	for i, o := range pool {
		if remaining <= 0 {
			open += len(pool) - i
			break
		}
		if o.Amount > remaining {
			open++
			continue
		}
		err := s.obligations.Claim(ctx, o.ID, req.CustodianID, req.ID)
		if errors.Is(err, domainerrors.ErrConcurrentConflict) {
			// Lost the race for this obligation; the next oldest stands in.
			continue
		}
		if err != nil {
			return false, err
		}
		claimed++
		remaining -= o.Amount
	}

	// A waitlist pass that claimed nothing changed nothing; skip the write
	// and audit noise. A fresh allocation always records its outcome, even
	// an empty one.
	if claimed == 0 && action != models.PayoutActionAllocate {
		return open == 0, nil
	}

	if err := s.recompute(ctx, req, action, nil, ""); err != nil {
		return false, err
	}
	return open == 0, nil
}

// recompute derives assigned/remaining/status from the obligations actually
// linked to the request. Never trusts a cached delta: the assigned set in
// the store is the single source of truth, so concurrent detachments cannot
// cause drift.
func (s *service) recompute(ctx context.Context, req *models.PayoutRequest, action string, obligationID *uint, reason string) error {
	assigned, err := s.obligations.ListByRequest(ctx, req.ID)
	if err != nil {
		return err
	}

	assignedAmount := 0.0
	ids := make(pq.Int64Array, len(assigned))
	for i, o := range assigned {
		assignedAmount += o.Amount
		ids[i] = int64(o.ID)
	}

	remaining := req.RequestedAmount - assignedAmount
	if remaining < 0 {
		remaining = 0
	}

	status := models.PayoutStatusFullyAssigned
	switch {
	case assignedAmount == 0:
		status = models.PayoutStatusWaiting
	case remaining > 0:
		status = models.PayoutStatusPartiallyAssigned
	}
	inWaitingList := remaining > 0

	if err := s.requests.UpdateAssignment(ctx, req.ID, ids, assignedAmount, remaining, status, inWaitingList); err != nil {
		return err
	}

	req.AssignedObligationIDs = ids
	req.AssignedAmount = assignedAmount
	req.RemainingAmount = remaining
	req.Status = status
	req.InWaitingList = inWaitingList

	return s.recordAudit(ctx, &models.PayoutAuditEntry{
		PayoutRequestID: req.RequestID,
		ObligationID:    obligationID,
		Action:          action,
		ObligationIDs:   ids,
		ResultingStatus: status,
		AssignedAmount:  assignedAmount,
		RemainingAmount: remaining,
		Reason:          reason,
	})
}

func (s *service) CancelByCustodian(ctx context.Context, obligationID, custodianID uint, reason string) error {
	o, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return err
	}
	if o.Status != models.ObligationStatusAssigned || o.PayoutRequestID == nil {
		return domainerrors.ErrObligationNotCancellable
	}
	requestID := *o.PayoutRequestID

	err = s.obligations.ReleaseOwned(ctx, obligationID, custodianID, requestID, models.ObligationStatusPending, reason)
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		// Fresh read: someone else already moved it, nothing left to cancel.
		return domainerrors.ErrObligationNotCancellable
	}
	if err != nil {
		return err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.recompute(ctx, req, models.PayoutActionCancel, &obligationID, reason); err != nil {
		return err
	}

	// Fire and forget: a reprocessing failure is logged, never surfaced to
	// the cancelling custodian.
	s.triggerWaitlist()
	return nil
}

func (s *service) RemoveByAdmin(ctx context.Context, obligationID uint) error {
	// The remove is guarded by the status and owning request seen at read
	// time: a row claimed between the read and the remove conflicts instead
	// of silently detaching from a request this call never saw. One retry
	// with a fresh read settles where the row landed.
	var o *models.PayoutObligation
	for attempt := 0; ; attempt++ {
		var err error
		o, err = s.obligations.GetByID(ctx, obligationID)
		if err != nil {
			return err
		}
		if o.Status != models.ObligationStatusPending && o.Status != models.ObligationStatusAssigned {
			return domainerrors.ErrObligationNotCancellable
		}

		err = s.obligations.AdminRemove(ctx, obligationID, o.Status, o.PayoutRequestID)
		if errors.Is(err, domainerrors.ErrConcurrentConflict) {
			if attempt == 0 {
				continue
			}
			return domainerrors.ErrObligationNotCancellable
		}
		if err != nil {
			return err
		}
		break
	}

	// Terminal removal: the obligation is gone, not returned to the pool,
	// so the waiting list has nothing new to chew on.
	if o.PayoutRequestID != nil {
		req, err := s.requests.GetByID(ctx, *o.PayoutRequestID)
		if err != nil {
			return err
		}
		return s.recompute(ctx, req, models.PayoutActionAdminRemove, &obligationID, "")
	}

	return s.recordAudit(ctx, &models.PayoutAuditEntry{
		ObligationID:    &obligationID,
		Action:          models.PayoutActionAdminRemove,
		ResultingStatus: models.ObligationStatusRemoved,
	})
}

func (s *service) ReassignToPool(ctx context.Context, obligationID uint) error {
	o, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		return err
	}
	if o.Status != models.ObligationStatusAssigned || o.PayoutRequestID == nil {
		return domainerrors.ErrObligationNotCancellable
	}
	requestID := *o.PayoutRequestID

	err = s.obligations.Release(ctx, obligationID, requestID, models.ObligationStatusPending, "")
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return domainerrors.ErrObligationNotCancellable
	}
	if err != nil {
		return err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.recompute(ctx, req, models.PayoutActionReassign, &obligationID, ""); err != nil {
		return err
	}

	s.triggerWaitlist()
	return nil
}

func (s *service) Confirm(ctx context.Context, requestID string, custodianID uint, proofRef string) error {
	req, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}

	err = s.requests.SetProof(ctx, req.ID, custodianID, proofRef)
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return domainerrors.ErrInvalidPayoutTransition
	}
	if err != nil {
		return err
	}

	return s.recordAudit(ctx, &models.PayoutAuditEntry{
		PayoutRequestID: req.RequestID,
		Action:          models.PayoutActionConfirm,
		ResultingStatus: models.PayoutStatusPendingVerification,
	})
}

func (s *service) Verify(ctx context.Context, requestID string) error {
	req, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}

	err = s.requests.UpdateStatus(ctx, req.ID, models.PayoutStatusPendingVerification, models.PayoutStatusVerified)
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return domainerrors.ErrInvalidPayoutTransition
	}
	if err != nil {
		return err
	}

	if err := s.obligations.CompleteByRequest(ctx, req.ID); err != nil {
		return err
	}

	return s.recordAudit(ctx, &models.PayoutAuditEntry{
		PayoutRequestID: req.RequestID,
		Action:          models.PayoutActionVerify,
		ResultingStatus: models.PayoutStatusVerified,
	})
}

func (s *service) CancelRequest(ctx context.Context, requestID string, custodianID uint) error {
	req, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	if custodianID != 0 && req.CustodianID != custodianID {
		return domainerrors.ErrPayoutNotFound
	}
	if req.Terminal() {
		return domainerrors.ErrInvalidPayoutTransition
	}

	// Cancel first so a concurrent waitlist pass cannot refill the request
	// while its obligations are being released.
	err = s.requests.UpdateStatus(ctx, req.ID, req.Status, models.PayoutStatusCancelled)
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return domainerrors.ErrInvalidPayoutTransition
	}
	if err != nil {
		return err
	}

	assigned, err := s.obligations.ListByRequest(ctx, req.ID)
	if err != nil {
		return err
	}
	released := make(pq.Int64Array, 0, len(assigned))
	for _, o := range assigned {
		if err := s.obligations.Release(ctx, o.ID, req.ID, models.ObligationStatusPending, ""); err != nil {
			if errors.Is(err, domainerrors.ErrConcurrentConflict) {
				continue
			}
			return err
		}
		released = append(released, int64(o.ID))
	}

	if err := s.requests.UpdateAssignment(ctx, req.ID, pq.Int64Array{}, 0, 0, models.PayoutStatusCancelled, false); err != nil {
		return err
	}

	if err := s.recordAudit(ctx, &models.PayoutAuditEntry{
		PayoutRequestID: req.RequestID,
		Action:          models.PayoutActionCancelReq,
		ObligationIDs:   released,
		ResultingStatus: models.PayoutStatusCancelled,
	}); err != nil {
		return err
	}

	if len(released) > 0 {
		s.triggerWaitlist()
	}
	return nil
}

func (s *service) GetRequest(ctx context.Context, requestID string) (*models.PayoutRequest, error) {
	return s.requests.GetByRequestID(ctx, requestID)
}

func (s *service) recordAudit(ctx context.Context, e *models.PayoutAuditEntry) error {
	if err := s.audit.RecordPayout(ctx, e); err != nil {
		log.Printf("AUDIT WRITE FAILED for payout %s action %s: %v", e.PayoutRequestID, e.Action, err)
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

func (s *service) triggerWaitlist() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("waiting list reprocess panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), waitlistTimeout)
		defer cancel()
		if err := s.ProcessWaitingList(ctx); err != nil {
			log.Printf("waiting list reprocess failed: %v", err)
		}
	}()
}
