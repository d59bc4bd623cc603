package payout

import (
	"context"

	"upiroute/internal/models"
)

// ProcessWaitingList re-runs the matching step for every backlogged request,
// strictly oldest-first. The request that arrived first is always served
// first when capacity appears, even if a later request would fit the pool
// more efficiently; fairness over efficiency, same as the allocator's own
// FIFO policy. The scan stops only when no unclaimed obligation remains:
// a request left unmet does not end the pass, because an obligation too
// large for its remainder may still fit a request further down the queue.
func (s *service) ProcessWaitingList(ctx context.Context) error {
	waiting, err := s.requests.ListWaiting(ctx)
	if err != nil {
		return err
	}

	for _, req := range waiting {
		if req.RemainingAmount <= 0 {
			continue
		}
		exhausted, err := s.fill(ctx, req, models.PayoutActionWaitlist)
		if err != nil {
			return err
		}
		if exhausted {
			break
		}
	}
	return nil
}
