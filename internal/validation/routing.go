// Package validation holds request payload checks shared by the handlers.
package validation

import (
	"errors"
	"fmt"
)

// MaxRoutableAmount bounds a single collection request; larger amounts go
// through the settlement desk, not this engine.
const MaxRoutableAmount = 1_000_000

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrMissingMerchant   = errors.New("merchant id is required")
	ErrMissingUser       = errors.New("user id is required")
	ErrMissingCustodian  = errors.New("custodian id is required")
)

// ValidateRouteRequest checks an inbound collection payload.
func ValidateRouteRequest(merchantID, userID uint, amount float64) error {
	if merchantID == 0 {
		return ErrMissingMerchant
	}
	if userID == 0 {
		return ErrMissingUser
	}
	return ValidateAmount(amount)
}

// ValidatePayoutRequest checks a custodian allocation payload.
func ValidatePayoutRequest(custodianID uint, amount float64) error {
	if custodianID == 0 {
		return ErrMissingCustodian
	}
	return ValidateAmount(amount)
}

// ValidateAmount bounds a money amount.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if amount > MaxRoutableAmount {
		return fmt.Errorf("amount exceeds maximum of %d", MaxRoutableAmount)
	}
	return nil
}
