package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"upiroute/internal/config"
	domainerrors "upiroute/internal/errors"
	"upiroute/internal/models"
	"upiroute/internal/repositories"
	"upiroute/internal/services/velocity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type service struct {
	channels repositories.ChannelRepository
	requests repositories.PaymentRequestRepository
	health   BankHealth
	velocity VelocityChecker
	affinity AffinityProvider
	audit    AuditRecorder
	origin   OriginResolver
	scorer   *Scorer
	selector *Selector
	weights  config.ScoringWeights
}

// NewService wires the inbound router. Origin resolution is optional; every
// other collaborator is required.
func NewService(
	channels repositories.ChannelRepository,
	requests repositories.PaymentRequestRepository,
	bankHealth BankHealth,
	velocityChecker VelocityChecker,
	affinity AffinityProvider,
	auditRecorder AuditRecorder,
	origin OriginResolver,
	selector *Selector,
	weights config.ScoringWeights,
) Service {
	if channels == nil {
		panic("channel repository is required")
	}
	if requests == nil {
		panic("payment request repository is required")
	}
	if bankHealth == nil {
		panic("bank health is required")
	}
	if velocityChecker == nil {
		panic("velocity checker is required")
	}
	if affinity == nil {
		panic("affinity provider is required")
	}
	if auditRecorder == nil {
		panic("audit recorder is required")
	}
	if selector == nil {
		panic("selector is required")
	}

	return &service{
		channels: channels,
		requests: requests,
		health:   bankHealth,
		velocity: velocityChecker,
		affinity: affinity,
		audit:    auditRecorder,
		origin:   origin,
		scorer:   NewScorer(weights),
		selector: selector,
		weights:  weights,
	}
}

// Route runs the full pipeline. Everything before the volume reservation is
// pure read+compute, so a rejection at any earlier stage leaves no state
// behind.
func (s *service) Route(ctx context.Context, input RouteInput) (*RouteResult, error) {
	if input.Amount <= 0 {
		return nil, domainerrors.ErrInvalidAmount
	}

	if err := s.admit(ctx, input); err != nil {
		return nil, err
	}

	candidates, err := s.channels.GetActiveCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("candidate fetch failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domainerrors.ErrNoEligibleChannel
	}

	sctx := s.buildScoreContext(ctx, input)

	mode := ModeStrict
	scored := s.scoreAll(candidates, input.Amount, sctx)
	if len(scored) == 0 {
		// Explicit relaxation pass: tier mismatch earns partial credit so
		// large amounts are not left unroutable. Tagged in the audit row.
		sctx.Strict = false
		mode = ModeRelaxed
		log.Printf("strict scoring empty for merchant %d amount %.2f, relaxing tier match",
			input.MerchantID, input.Amount)
		scored = s.scoreAll(candidates, input.Amount, sctx)
	}
	if len(scored) == 0 {
		if allCircuitsOpen(candidates, sctx.BankState) {
			return nil, domainerrors.ErrAllCircuitsOpen
		}
		return nil, domainerrors.ErrNoEligibleChannel
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	selected := s.selector.Pick(scored)
	chain := BuildChain(selected, scored, s.weights.ChainLength)

	chain, err = s.reserveFirstUsable(ctx, chain, input.Amount)
	if err != nil {
		return nil, err
	}
	live := chain[0]

	request := &models.PaymentRequest{
		RequestID:         uuid.NewString(),
		MerchantID:        input.MerchantID,
		UserID:            input.UserID,
		Amount:            input.Amount,
		SelectedChannelID: live.Channel.ID,
		FallbackChain:     chainIDs(chain),
		CurrentAttempt:    0,
		MaxAttempts:       len(chain),
		Status:            models.RequestStatusPending,
		SelectionMode:     mode,
		GeoCity:           sctx.GeoCity,
		GeoState:          sctx.GeoState,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		// The reservation is already on the channel; release so an aborted
		// request does not burn headroom.
		if relErr := s.channels.ReleaseVolume(ctx, live.Channel.ID, input.Amount); relErr != nil {
			log.Printf("failed to release volume after create failure: %v", relErr)
		}
		return nil, err
	}

	s.selector.MarkSelected(live.Channel.CustodianID)

	geoMatch := GeoMatch(live.Channel, sctx.GeoCity, sctx.GeoState)
	if err := s.recordDecision(ctx, request, chain, mode, geoMatch); err != nil {
		return nil, err
	}

	return &RouteResult{
		Request:  request,
		Selected: live,
		Chain:    chain,
		Mode:     mode,
		GeoMatch: geoMatch,
	}, nil
}

func (s *service) admit(ctx context.Context, input RouteInput) error {
	userRes, err := s.velocity.Check(ctx, fmt.Sprint(input.UserID), velocity.KindUser, input.Amount)
	if err != nil {
		return fmt.Errorf("velocity check failed: %w", err)
	}
	if !userRes.Allowed {
		return domainerrors.ErrAdmissionDenied.Wrap(errors.New(userRes.Reason))
	}

	merchantRes, err := s.velocity.Check(ctx, fmt.Sprint(input.MerchantID), velocity.KindMerchant, input.Amount)
	if err != nil {
		return fmt.Errorf("velocity check failed: %w", err)
	}
	if !merchantRes.Allowed {
		return domainerrors.ErrAdmissionDenied.Wrap(errors.New(merchantRes.Reason))
	}
	return nil
}

func (s *service) buildScoreContext(ctx context.Context, input RouteInput) *ScoreContext {
	city, state := input.GeoCity, input.GeoState
	if city == "" && state == "" && s.origin != nil && input.ClientIP != "" {
		city, state = s.origin.ResolveOrigin(ctx, input.ClientIP)
	}

	affinity, err := s.affinity.Scores(ctx, input.MerchantID)
	if err != nil {
		// Affinity is a soft factor; scoring proceeds neutrally without it.
		log.Printf("affinity lookup failed for merchant %d: %v", input.MerchantID, err)
		affinity = nil
	}

	ranks, size := s.selector.RecencyRanks()

	return &ScoreContext{
		Now:          time.Now(),
		BankState:    s.health.Snapshot(ctx),
		Affinity:     affinity,
		RecencyRanks: ranks,
		RecencySize:  size,
		GeoCity:      city,
		GeoState:     state,
		Strict:       true,
	}
}

func (s *service) scoreAll(candidates []*models.Channel, amount float64, sctx *ScoreContext) []*ScoredChannel {
	scored := make([]*ScoredChannel, 0, len(candidates))
	for _, ch := range candidates {
		if sc := s.scorer.Score(ch, amount, sctx); sc != nil {
			scored = append(scored, sc)
		}
	}
	return scored
}

// reserveFirstUsable reserves daily volume on the first chain entry that
// still has headroom, retrying a conflicted entry once before moving down
// the chain. The reserved entry is rotated to the front so element 0 is
// always the live selection.
func (s *service) reserveFirstUsable(ctx context.Context, chain []*ScoredChannel, amount float64) ([]*ScoredChannel, error) {
	for i, entry := range chain {
		err := s.channels.ReserveVolume(ctx, entry.Channel.ID, amount)
		if errors.Is(err, domainerrors.ErrConcurrentConflict) {
			err = s.channels.ReserveVolume(ctx, entry.Channel.ID, amount)
		}
		if err == nil {
			if i > 0 {
				reordered := make([]*ScoredChannel, 0, len(chain))
				reordered = append(reordered, chain[i])
				reordered = append(reordered, chain[:i]...)
				reordered = append(reordered, chain[i+1:]...)
				chain = reordered
			}
			return chain, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentConflict) {
			return nil, err
		}
	}
	return nil, domainerrors.ErrNoEligibleChannel
}

func (s *service) recordDecision(ctx context.Context, req *models.PaymentRequest, chain []*ScoredChannel, mode, geoMatch string) error {
	breakdown := models.JSON{}
	for _, entry := range chain {
		breakdown[fmt.Sprint(entry.Channel.ID)] = entry.Breakdown
	}

	decision := &models.RoutingDecision{
		PaymentRequestID:  req.RequestID,
		MerchantID:        req.MerchantID,
		Amount:            req.Amount,
		SelectedChannelID: req.SelectedChannelID,
		FallbackChain:     req.FallbackChain,
		Mode:              mode,
		GeoMatch:          geoMatch,
		Breakdown:         breakdown,
	}
	if err := s.audit.RecordRouting(ctx, decision); err != nil {
		// The audit row is part of the routing contract, not telemetry.
		log.Printf("AUDIT WRITE FAILED for request %s: %v", req.RequestID, err)
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

// SwitchChannel advances a pending request to the next standby that can
// still absorb the amount. No re-scoring happens; the chain was priced at
// routing time. The outgoing attempt is settled here if no outcome report
// did it first, so its reservation never outlives the switch.
func (s *service) SwitchChannel(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	req, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, domainerrors.ErrRequestNotSwitchable
	}

	if err := s.settleAttempt(ctx, req); err != nil {
		return nil, err
	}

	for next := req.CurrentAttempt + 1; next < len(req.FallbackChain); next++ {
		channelID := uint(req.FallbackChain[next])

		err := s.channels.ReserveVolume(ctx, channelID, req.Amount)
		if errors.Is(err, domainerrors.ErrConcurrentConflict) {
			continue // standby has no headroom left, try the next one
		}
		if err != nil {
			return nil, err
		}

		if err := s.requests.AdvanceAttempt(ctx, requestID, req.CurrentAttempt, next, channelID); err != nil {
			if relErr := s.channels.ReleaseVolume(ctx, channelID, req.Amount); relErr != nil {
				log.Printf("failed to release volume after advance failure: %v", relErr)
			}
			return nil, err
		}

		req.CurrentAttempt = next
		req.SelectedChannelID = channelID

		decision := &models.RoutingDecision{
			PaymentRequestID:  req.RequestID,
			MerchantID:        req.MerchantID,
			Amount:            req.Amount,
			SelectedChannelID: channelID,
			FallbackChain:     req.FallbackChain,
			Mode:              ModeSwitch,
			GeoMatch:          GeoMatchNone,
		}
		if err := s.audit.RecordRouting(ctx, decision); err != nil {
			log.Printf("AUDIT WRITE FAILED for switch on request %s: %v", req.RequestID, err)
			return nil, fmt.Errorf("audit write failed: %w", err)
		}
		return req, nil
	}

	return nil, domainerrors.ErrFallbackExhausted
}

// RecordOutcome applies the downstream transaction result. A failed attempt
// settles exactly once: the failure count and volume release ride on the
// settle statement, so a repeated report changes nothing. The request only
// goes terminal once the chain is exhausted, so the caller can still switch.
func (s *service) RecordOutcome(ctx context.Context, requestID string, success bool) error {
	req, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	channelID := req.CurrentChannelID()
	if channelID == 0 {
		return domainerrors.ErrRequestNotFound
	}

	if success {
		// Status first: the stat write rides on winning the pending→completed
		// transition, so a duplicate report cannot double-count the success.
		if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusCompleted); err != nil {
			return err
		}
		return s.channels.RecordSuccess(ctx, channelID)
	}

	err = s.requests.SettleAttempt(ctx, requestID, req.CurrentAttempt)
	settled := err == nil
	if err != nil && !errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return err
	}
	if settled {
		if err := s.channels.RecordFailure(ctx, channelID); err != nil {
			return err
		}
		if err := s.channels.ReleaseVolume(ctx, channelID, req.Amount); err != nil {
			return err
		}
	}
	if req.CurrentAttempt >= len(req.FallbackChain)-1 {
		return s.requests.UpdateStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusFailed)
	}
	if !settled {
		return domainerrors.ErrConcurrentConflict
	}
	return nil
}

// settleAttempt settles the request's current attempt and hands back its
// reservation, unless an outcome report already did. Losing the settle race
// is fine; any other error is not.
func (s *service) settleAttempt(ctx context.Context, req *models.PaymentRequest) error {
	err := s.requests.SettleAttempt(ctx, req.RequestID, req.CurrentAttempt)
	if errors.Is(err, domainerrors.ErrConcurrentConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	channelID := req.CurrentChannelID()
	if err := s.channels.RecordFailure(ctx, channelID); err != nil {
		return err
	}
	if err := s.channels.ReleaseVolume(ctx, channelID, req.Amount); err != nil {
		return err
	}
	return nil
}

func allCircuitsOpen(candidates []*models.Channel, bankState map[string]string) bool {
	for _, ch := range candidates {
		if bankState[ch.BankName] != models.CircuitOpen {
			return false
		}
	}
	return len(candidates) > 0
}

func chainIDs(chain []*ScoredChannel) pq.Int64Array {
	ids := make(pq.Int64Array, len(chain))
	for i, entry := range chain {
		ids[i] = int64(entry.Channel.ID)
	}
	return ids
}
