package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	obs Observation
	err error
}

func (s stubSource) Latest(context.Context) (Observation, error) { return s.obs, s.err }

func TestFixed(t *testing.T) {
	o, err := NewFixed(DefaultRate)
	require.NoError(t, err)

	r, err := o.Rate(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(30)))

	_, err = NewFixed(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = NewFixed(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestFeed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ctx := context.Background()

	fresh := NewFeed(stubSource{obs: Observation{Rate: decimal.NewFromInt(31), ObservedAt: now.Add(-10 * time.Second)}}, time.Minute, clock)
	r, err := fresh.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "31", r.String())

	stale := NewFeed(stubSource{obs: Observation{Rate: decimal.NewFromInt(31), ObservedAt: now.Add(-2 * time.Minute)}}, time.Minute, clock)
	_, err = stale.Rate(ctx)
	assert.ErrorIs(t, err, ErrStaleData)

	down := NewFeed(stubSource{err: errors.New("connection refused")}, time.Minute, clock)
	_, err = down.Rate(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	zero := NewFeed(stubSource{obs: Observation{Rate: decimal.Zero, ObservedAt: now}}, time.Minute, clock)
	_, err = zero.Rate(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	var nilFeed *Feed
	_, err = nilFeed.Rate(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
