package errors

var (
	// ErrAdmissionDenied is a velocity guard rejection. Surfaced immediately,
	// never retried by the router.
	ErrAdmissionDenied = &DomainError{
		Code:    "ADMISSION_DENIED",
		Message: "request rate limit exceeded",
	}
	// ErrNoEligibleChannel means every candidate was hard-rejected or scored
	// below the minimum. The caller may retry later.
	ErrNoEligibleChannel = &DomainError{
		Code:    "NO_ELIGIBLE_CHANNEL",
		Message: "no eligible collection channel",
	}
	// ErrAllCircuitsOpen is kept distinct from ErrNoEligibleChannel so a
	// systemic banking-rail outage is visible as such to operators.
	ErrAllCircuitsOpen = &DomainError{
		Code:    "ALL_CIRCUITS_OPEN",
		Message: "all bank circuits are open",
	}
	// ErrConcurrentConflict means a conditional update found its target
	// already mutated. Retried once internally before it reaches a caller.
	ErrConcurrentConflict = &DomainError{
		Code:    "CONCURRENT_CONFLICT",
		Message: "concurrent mutation conflict",
	}
	ErrRequestNotFound = &DomainError{
		Code:    "REQUEST_NOT_FOUND",
		Message: "payment request not found",
	}
	ErrFallbackExhausted = &DomainError{
		Code:    "FALLBACK_EXHAUSTED",
		Message: "fallback chain exhausted",
	}
	ErrChannelNotFound = &DomainError{
		Code:    "CHANNEL_NOT_FOUND",
		Message: "channel not found",
	}
	ErrRequestNotSwitchable = &DomainError{
		Code:    "REQUEST_NOT_SWITCHABLE",
		Message: "payment request is not in a switchable state",
	}
)
