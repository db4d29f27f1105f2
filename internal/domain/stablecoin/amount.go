package stablecoin

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const solPrecision = 9

// ParseAmount parses a user supplied decimal quantity. It must be finite and > 0.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := RequirePositive(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func RequirePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ToBaseUnits scales a token quantity by 10^Decimals.
// Digits below the token precision are truncated toward zero.
func ToBaseUnits(d decimal.Decimal) (uint64, error) {
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	scaled := d.Shift(Decimals).Truncate(0)
	if !scaled.IsPositive() {
		return 0, ErrInvalidAmount
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return bi.Uint64(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(base uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(base), -Decimals)
}

// LamportsToSOL converts native base units to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solPrecision)
}

// TokensForSOL returns sol × rate at token precision.
func TokensForSOL(sol, rate decimal.Decimal) decimal.Decimal {
	return sol.Mul(rate).Truncate(Decimals)
}

// SOLForTokens returns token / rate at lamport precision.
func SOLForTokens(token, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return token.DivRound(rate, solPrecision)
}
