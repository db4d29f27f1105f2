// backend/internal/domain/price/oracle.go
package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrStaleData   = errors.New("price: stale data")
	ErrUnavailable = errors.New("price: unavailable")
	ErrInvalidRate = errors.New("price: rate must be positive")
)

// DefaultRate is the mocked SOL/USD rate used on devnet.
var DefaultRate = decimal.NewFromInt(30)

// Oracle returns the SOL -> SOLUSD conversion factor.
type Oracle interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// Fixed is a constant-rate Oracle. It never fails.
type Fixed struct {
	rate decimal.Decimal
}

var _ Oracle = Fixed{}

func NewFixed(rate decimal.Decimal) (Fixed, error) {
	if !rate.IsPositive() {
		return Fixed{}, ErrInvalidRate
	}
	return Fixed{rate: rate}, nil
}

func (f Fixed) Rate(context.Context) (decimal.Decimal, error) {
	return f.rate, nil
}

// Observation is a single reading from a Source.
type Observation struct {
	Rate       decimal.Decimal
	ObservedAt time.Time
}

// Source is a raw rate feed.
type Source interface {
	Latest(ctx context.Context) (Observation, error)
}

// NowFunc is an injectable clock for testability.
type NowFunc func() time.Time

// Feed adapts a Source into an Oracle with a bounded staleness window.
type Feed struct {
	source Source
	maxAge time.Duration
	now    NowFunc
}

var _ Oracle = (*Feed)(nil)

func NewFeed(source Source, maxAge time.Duration, now NowFunc) *Feed {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Feed{source: source, maxAge: maxAge, now: now}
}

func (f *Feed) Rate(ctx context.Context) (decimal.Decimal, error) {
	if f == nil || f.source == nil {
		return decimal.Zero, ErrUnavailable
	}
	obs, err := f.source.Latest(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !obs.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrUnavailable, obs.Rate)
	}
	if f.maxAge > 0 && f.now().Sub(obs.ObservedAt) > f.maxAge {
		return decimal.Zero, fmt.Errorf("%w: observed at %s", ErrStaleData, obs.ObservedAt.Format(time.RFC3339))
	}
	return obs.Rate, nil
}
