package stablecoin

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLedgerUnavailable   = errors.New("stablecoin: ledger unavailable")
	ErrMintNotInitialized  = errors.New("stablecoin: mint not initialized")
	ErrInsufficientBalance = errors.New("stablecoin: insufficient token balance")
	ErrInsufficientFunds   = errors.New("stablecoin: insufficient funds for fees")
	ErrInvalidAmount       = errors.New("stablecoin: invalid amount")
	ErrInvalidWallet       = errors.New("stablecoin: invalid wallet address")
	ErrUnauthorized        = errors.New("stablecoin: wallet authorization failed")
	ErrSupplyOverflow      = errors.New("stablecoin: amount overflows token supply")

	ErrMintFailed = errors.New("stablecoin: mint failed")
	ErrBurnFailed = errors.New("stablecoin: burn failed")
)

// MintFailed wraps cause so that both ErrMintFailed and cause match errors.Is.
func MintFailed(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrMintFailed, cause)
}

// BurnFailed wraps cause so that both ErrBurnFailed and cause match errors.Is.
func BurnFailed(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBurnFailed, cause)
}

// Unavailable marks err as a ledger availability failure unless it is
// already classified.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
}

// IsClassified reports whether err already carries a ledger-level error.
func IsClassified(err error) bool {
	return errors.Is(err, ErrLedgerUnavailable) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrSupplyOverflow) ||
		errors.Is(err, ErrMintNotInitialized)
}
