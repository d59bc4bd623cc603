/*
Package routing selects a collection channel for an inbound payment request
and builds its fallback chain.

The pipeline runs velocity admission first, then scores every active
candidate channel against the request (bank circuit state, daily headroom,
cooldown, tier match, custodian diversity, merchant affinity, success
history, geo proximity), builds a diversity-preferring fallback chain from
the ranked survivors, and picks the live channel with a weighted random
draw. Only the final step writes: the winning channel's daily volume is
reserved with a single conditional update and the payment request plus its
audit row are persisted.

Usage:

	svc := routing.NewService(channels, requests, registry, guard,
	    affinity, auditor, resolver, selector, weights)

	result, err := svc.Route(ctx, routing.RouteInput{
	    MerchantID: 12, UserID: 40021, Amount: 4999,
	})

	// Downstream attempt failed on the live channel; move to the standby.
	req, err := svc.SwitchChannel(ctx, result.Request.RequestID)

	// Settle the attempt.
	err = svc.RecordOutcome(ctx, result.Request.RequestID, true)

Error Handling:

The pipeline distinguishes ErrAdmissionDenied (velocity rejection),
ErrNoEligibleChannel (capacity or score exhaustion) and ErrAllCircuitsOpen
(systemic bank outage) so operators can tell an outage from ordinary
capacity pressure. Everything before the reservation is side-effect free.
*/
package routing
