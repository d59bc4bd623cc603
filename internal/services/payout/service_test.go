package payout

import (
	"context"
	"testing"
	"time"

	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObligationRepo struct {
	mock.Mock
}

func (m *MockObligationRepo) Create(ctx context.Context, o *models.PayoutObligation) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockObligationRepo) GetByID(ctx context.Context, id uint) (*models.PayoutObligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutObligation), args.Error(1)
}

func (m *MockObligationRepo) ListUnassigned(ctx context.Context) ([]*models.PayoutObligation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutObligation), args.Error(1)
}

func (m *MockObligationRepo) ListByRequest(ctx context.Context, payoutRequestID uint) ([]*models.PayoutObligation, error) {
	args := m.Called(ctx, payoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutObligation), args.Error(1)
}

func (m *MockObligationRepo) Claim(ctx context.Context, obligationID, custodianID, payoutRequestID uint) error {
	return m.Called(ctx, obligationID, custodianID, payoutRequestID).Error(0)
}

func (m *MockObligationRepo) Release(ctx context.Context, obligationID, payoutRequestID uint, toStatus, reason string) error {
	return m.Called(ctx, obligationID, payoutRequestID, toStatus, reason).Error(0)
}

func (m *MockObligationRepo) ReleaseOwned(ctx context.Context, obligationID, custodianID, payoutRequestID uint, toStatus, reason string) error {
	return m.Called(ctx, obligationID, custodianID, payoutRequestID, toStatus, reason).Error(0)
}

func (m *MockObligationRepo) AdminRemove(ctx context.Context, obligationID uint, fromStatus string, payoutRequestID *uint) error {
	return m.Called(ctx, obligationID, fromStatus, payoutRequestID).Error(0)
}

func (m *MockObligationRepo) CompleteByRequest(ctx context.Context, payoutRequestID uint) error {
	return m.Called(ctx, payoutRequestID).Error(0)
}

type MockPayoutRequestRepo struct {
	mock.Mock
}

func (m *MockPayoutRequestRepo) Create(ctx context.Context, req *models.PayoutRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockPayoutRequestRepo) GetByRequestID(ctx context.Context, requestID string) (*models.PayoutRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRequest), args.Error(1)
}

func (m *MockPayoutRequestRepo) GetByID(ctx context.Context, id uint) (*models.PayoutRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRequest), args.Error(1)
}

func (m *MockPayoutRequestRepo) UpdateAssignment(ctx context.Context, id uint, obligationIDs pq.Int64Array, assigned, remaining float64, status string, inWaitingList bool) error {
	return m.Called(ctx, id, obligationIDs, assigned, remaining, status, inWaitingList).Error(0)
}

func (m *MockPayoutRequestRepo) UpdateStatus(ctx context.Context, id uint, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockPayoutRequestRepo) SetProof(ctx context.Context, id uint, custodianID uint, proofRef string) error {
	return m.Called(ctx, id, custodianID, proofRef).Error(0)
}

func (m *MockPayoutRequestRepo) ListWaiting(ctx context.Context) ([]*models.PayoutRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutRequest), args.Error(1)
}

type MockPayoutAudit struct {
	mock.Mock
}

func (m *MockPayoutAudit) RecordPayout(ctx context.Context, e *models.PayoutAuditEntry) error {
	return m.Called(ctx, e).Error(0)
}

type payoutFixture struct {
	obligations *MockObligationRepo
	requests    *MockPayoutRequestRepo
	audit       *MockPayoutAudit
	service     Service
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()
	f := &payoutFixture{
		obligations: new(MockObligationRepo),
		requests:    new(MockPayoutRequestRepo),
		audit:       new(MockPayoutAudit),
	}
	f.service = NewService(f.obligations, f.requests, f.audit)
	// Background waiting-list passes fired by the operations under test are
	// not what these tests observe; starve them at the list call.
	f.requests.On("ListWaiting", mock.Anything).Return(nil, nil).Maybe()
	return f
}

func obligation(id uint, amount float64) *models.PayoutObligation {
	return &models.PayoutObligation{ID: id, Amount: amount, Status: models.ObligationStatusPending}
}

func assignedObligation(id uint, amount float64, custodianID, requestID uint) *models.PayoutObligation {
	now := time.Now()
	return &models.PayoutObligation{
		ID: id, Amount: amount, Status: models.ObligationStatusAssigned,
		CustodianID: &custodianID, PayoutRequestID: &requestID, AssignedAt: &now,
	}
}

func TestAllocate_OldestObligationFirstPartialFill(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRequest).ID = 10
	})
	// 8k arrived before 15k. The 15k one does not fit the 12k remainder and
	// must stay pooled.
	f.obligations.On("ListUnassigned", mock.Anything).Return([]*models.PayoutObligation{
		obligation(1, 8000),
		obligation(2, 15000),
	}, nil)
	f.obligations.On("Claim", mock.Anything, uint(1), uint(5), uint(10)).Return(nil).Once()
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{
		assignedObligation(1, 8000, 5, 10),
	}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{1}, 8000.0, 12000.0,
		models.PayoutStatusPartiallyAssigned, true).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	req, err := f.service.Allocate(context.Background(), 5, 20000)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, req.AssignedAmount)
	assert.Equal(t, 12000.0, req.RemainingAmount)
	assert.Equal(t, models.PayoutStatusPartiallyAssigned, req.Status)
	assert.True(t, req.InWaitingList)
	f.obligations.AssertNotCalled(t, "Claim", mock.Anything, uint(2), mock.Anything, mock.Anything)
}

func TestAllocate_FullFillLeavesWaitingList(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRequest).ID = 10
	})
	f.obligations.On("ListUnassigned", mock.Anything).Return([]*models.PayoutObligation{
		obligation(1, 8000),
		obligation(2, 12000),
	}, nil)
	f.obligations.On("Claim", mock.Anything, uint(1), uint(5), uint(10)).Return(nil)
	f.obligations.On("Claim", mock.Anything, uint(2), uint(5), uint(10)).Return(nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{
		assignedObligation(1, 8000, 5, 10),
		assignedObligation(2, 12000, 5, 10),
	}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{1, 2}, 20000.0, 0.0,
		models.PayoutStatusFullyAssigned, false).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	req, err := f.service.Allocate(context.Background(), 5, 20000)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusFullyAssigned, req.Status)
	assert.False(t, req.InWaitingList)
	// assignedAmount must equal the sum over the assigned set exactly.
	assert.Equal(t, 20000.0, req.AssignedAmount)
	assert.Equal(t, 0.0, req.RemainingAmount)
}

func TestAllocate_EmptyPoolIsWaitingNotError(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRequest).ID = 10
	})
	f.obligations.On("ListUnassigned", mock.Anything).Return([]*models.PayoutObligation{}, nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{}, 0.0, 20000.0,
		models.PayoutStatusWaiting, true).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	req, err := f.service.Allocate(context.Background(), 5, 20000)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusWaiting, req.Status)
	assert.True(t, req.InWaitingList)
}

func TestAllocate_LostClaimRacePullsReplacement(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRequest).ID = 10
	})
	f.obligations.On("ListUnassigned", mock.Anything).Return([]*models.PayoutObligation{
		obligation(1, 8000),
		obligation(2, 8000),
	}, nil)
	// Another allocation wins obligation 1 between list and claim.
	f.obligations.On("Claim", mock.Anything, uint(1), uint(5), uint(10)).Return(domainerrors.ErrConcurrentConflict)
	f.obligations.On("Claim", mock.Anything, uint(2), uint(5), uint(10)).Return(nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{
		assignedObligation(2, 8000, 5, 10),
	}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{2}, 8000.0, 0.0,
		models.PayoutStatusFullyAssigned, false).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	req, err := f.service.Allocate(context.Background(), 5, 8000)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutStatusFullyAssigned, req.Status)
}

func TestCancelByCustodian_ReturnsRequestToWaiting(t *testing.T) {
	f := newPayoutFixture(t)

	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(assignedObligation(1, 8000, 5, 10), nil)
	f.obligations.On("ReleaseOwned", mock.Anything, uint(1), uint(5), uint(10), models.ObligationStatusPending, "funds unavailable").Return(nil)
	f.requests.On("GetByID", mock.Anything, uint(10)).Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, RequestedAmount: 8000,
		AssignedAmount: 8000, Status: models.PayoutStatusFullyAssigned,
	}, nil)
	// Nothing assigned remains: back to waiting with the full amount unmet.
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{}, 0.0, 8000.0,
		models.PayoutStatusWaiting, true).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.MatchedBy(func(e *models.PayoutAuditEntry) bool {
		return e.Action == models.PayoutActionCancel && e.ResultingStatus == models.PayoutStatusWaiting
	})).Return(nil)

	err := f.service.CancelByCustodian(context.Background(), 1, 5, "funds unavailable")
	require.NoError(t, err)
	f.requests.AssertExpectations(t)
}

func TestCancelByCustodian_RejectsUnassignedObligation(t *testing.T) {
	f := newPayoutFixture(t)
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(obligation(1, 8000), nil)

	err := f.service.CancelByCustodian(context.Background(), 1, 5, "whatever")
	assert.ErrorIs(t, err, domainerrors.ErrObligationNotCancellable)
}

func TestCancelByCustodian_ConflictMeansAlreadyMoved(t *testing.T) {
	f := newPayoutFixture(t)
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(assignedObligation(1, 8000, 5, 10), nil)
	f.obligations.On("ReleaseOwned", mock.Anything, uint(1), uint(5), uint(10), models.ObligationStatusPending, "r").
		Return(domainerrors.ErrConcurrentConflict)

	err := f.service.CancelByCustodian(context.Background(), 1, 5, "r")
	assert.ErrorIs(t, err, domainerrors.ErrObligationNotCancellable)
}

func TestRemoveByAdmin_AssignedObligationRecomputesOwner(t *testing.T) {
	f := newPayoutFixture(t)

	owner := uint(10)
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(assignedObligation(1, 8000, 5, 10), nil)
	f.obligations.On("AdminRemove", mock.Anything, uint(1), models.ObligationStatusAssigned, &owner).Return(nil)
	f.requests.On("GetByID", mock.Anything, uint(10)).Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, RequestedAmount: 8000,
	}, nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{}, 0.0, 8000.0,
		models.PayoutStatusWaiting, true).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	err := f.service.RemoveByAdmin(context.Background(), 1)
	require.NoError(t, err)
	// Removal is terminal: the obligation never returns to the pool, so no
	// waiting-list pass runs.
	f.requests.AssertNotCalled(t, "ListWaiting", mock.Anything)
}

func TestRemoveByAdmin_PendingObligationJustAudits(t *testing.T) {
	f := newPayoutFixture(t)

	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(obligation(1, 8000), nil)
	f.obligations.On("AdminRemove", mock.Anything, uint(1), models.ObligationStatusPending, (*uint)(nil)).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.MatchedBy(func(e *models.PayoutAuditEntry) bool {
		return e.Action == models.PayoutActionAdminRemove
	})).Return(nil)

	err := f.service.RemoveByAdmin(context.Background(), 1)
	require.NoError(t, err)
	f.requests.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRemoveByAdmin_RetryAfterConcurrentClaimRecomputesNewOwner(t *testing.T) {
	f := newPayoutFixture(t)

	// First read sees a pending row; before the remove lands, a concurrent
	// allocation claims it for request 4. The guarded remove conflicts, the
	// fresh read sees the assignment, and the owning request is recomputed.
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(obligation(1, 8000), nil).Once()
	f.obligations.On("AdminRemove", mock.Anything, uint(1), models.ObligationStatusPending, (*uint)(nil)).
		Return(domainerrors.ErrConcurrentConflict).Once()
	owner := uint(4)
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(assignedObligation(1, 8000, 7, 4), nil)
	f.obligations.On("AdminRemove", mock.Anything, uint(1), models.ObligationStatusAssigned, &owner).Return(nil)
	f.requests.On("GetByID", mock.Anything, uint(4)).Return(&models.PayoutRequest{
		ID: 4, RequestID: "pr-4", CustodianID: 7, RequestedAmount: 8000, AssignedAmount: 8000,
	}, nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(4)).Return([]*models.PayoutObligation{}, nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(4), pq.Int64Array{}, 0.0, 8000.0,
		models.PayoutStatusWaiting, true).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	err := f.service.RemoveByAdmin(context.Background(), 1)
	require.NoError(t, err)
	f.requests.AssertExpectations(t)
}

func TestRemoveByAdmin_SecondConflictGivesUp(t *testing.T) {
	f := newPayoutFixture(t)

	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(obligation(1, 8000), nil)
	f.obligations.On("AdminRemove", mock.Anything, uint(1), models.ObligationStatusPending, (*uint)(nil)).
		Return(domainerrors.ErrConcurrentConflict)

	err := f.service.RemoveByAdmin(context.Background(), 1)
	assert.ErrorIs(t, err, domainerrors.ErrObligationNotCancellable)
	f.obligations.AssertNumberOfCalls(t, "AdminRemove", 2)
}

func TestRemoveByAdmin_TerminalObligationRejected(t *testing.T) {
	f := newPayoutFixture(t)

	done := obligation(1, 8000)
	done.Status = models.ObligationStatusCompleted
	f.obligations.On("GetByID", mock.Anything, uint(1)).Return(done, nil)

	err := f.service.RemoveByAdmin(context.Background(), 1)
	assert.ErrorIs(t, err, domainerrors.ErrObligationNotCancellable)
	f.obligations.AssertNotCalled(t, "AdminRemove", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirm_MapsConflictToInvalidTransition(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("GetByRequestID", mock.Anything, "pr-1").Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, Status: models.PayoutStatusPartiallyAssigned,
	}, nil)
	f.requests.On("SetProof", mock.Anything, uint(10), uint(5), "utr-123").
		Return(domainerrors.ErrConcurrentConflict)

	err := f.service.Confirm(context.Background(), "pr-1", 5, "utr-123")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidPayoutTransition)
}

func TestVerify_CompletesObligations(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("GetByRequestID", mock.Anything, "pr-1").Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", Status: models.PayoutStatusPendingVerification,
	}, nil)
	f.requests.On("UpdateStatus", mock.Anything, uint(10),
		models.PayoutStatusPendingVerification, models.PayoutStatusVerified).Return(nil)
	f.obligations.On("CompleteByRequest", mock.Anything, uint(10)).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.Anything).Return(nil)

	err := f.service.Verify(context.Background(), "pr-1")
	require.NoError(t, err)
	f.obligations.AssertExpectations(t)
}

func TestCancelRequest_ReleasesObligationsAndZeroesAmounts(t *testing.T) {
	f := newPayoutFixture(t)

	f.requests.On("GetByRequestID", mock.Anything, "pr-1").Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, RequestedAmount: 20000,
		AssignedAmount: 8000, Status: models.PayoutStatusPartiallyAssigned,
	}, nil)
	f.requests.On("UpdateStatus", mock.Anything, uint(10),
		models.PayoutStatusPartiallyAssigned, models.PayoutStatusCancelled).Return(nil)
	f.obligations.On("ListByRequest", mock.Anything, uint(10)).Return([]*models.PayoutObligation{
		assignedObligation(1, 8000, 5, 10),
	}, nil)
	f.obligations.On("Release", mock.Anything, uint(1), uint(10), models.ObligationStatusPending, "").Return(nil)
	f.requests.On("UpdateAssignment", mock.Anything, uint(10), pq.Int64Array{}, 0.0, 0.0,
		models.PayoutStatusCancelled, false).Return(nil)
	f.audit.On("RecordPayout", mock.Anything, mock.MatchedBy(func(e *models.PayoutAuditEntry) bool {
		return e.Action == models.PayoutActionCancelReq && len(e.ObligationIDs) == 1
	})).Return(nil)

	err := f.service.CancelRequest(context.Background(), "pr-1", 5)
	require.NoError(t, err)
}

func TestCancelRequest_WrongCustodianSeesNotFound(t *testing.T) {
	f := newPayoutFixture(t)
	f.requests.On("GetByRequestID", mock.Anything, "pr-1").Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, Status: models.PayoutStatusWaiting,
	}, nil)

	err := f.service.CancelRequest(context.Background(), "pr-1", 6)
	assert.ErrorIs(t, err, domainerrors.ErrPayoutNotFound)
}

func TestCancelRequest_TerminalStateRejected(t *testing.T) {
	f := newPayoutFixture(t)
	f.requests.On("GetByRequestID", mock.Anything, "pr-1").Return(&models.PayoutRequest{
		ID: 10, RequestID: "pr-1", CustodianID: 5, Status: models.PayoutStatusVerified,
	}, nil)

	err := f.service.CancelRequest(context.Background(), "pr-1", 5)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidPayoutTransition)
}

func TestCreateObligation_RejectsNonPositiveAmount(t *testing.T) {
	f := newPayoutFixture(t)

	_, err := f.service.CreateObligation(context.Background(), 0)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidAmount)
	f.obligations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
