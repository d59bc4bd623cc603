package errors

var (
	ErrObligationNotFound = &DomainError{
		Code:    "OBLIGATION_NOT_FOUND",
		Message: "payout obligation not found",
	}
	ErrPayoutNotFound = &DomainError{
		Code:    "PAYOUT_NOT_FOUND",
		Message: "payout request not found",
	}
	// ErrObligationNotCancellable covers terminal obligations and obligations
	// a custodian does not own.
	ErrObligationNotCancellable = &DomainError{
		Code:    "OBLIGATION_NOT_CANCELLABLE",
		Message: "obligation cannot be cancelled in its current state",
	}
	ErrInvalidPayoutTransition = &DomainError{
		Code:    "INVALID_PAYOUT_TRANSITION",
		Message: "payout request cannot transition from its current status",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
)
