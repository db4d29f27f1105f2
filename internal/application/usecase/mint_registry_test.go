package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/memledger"
)

type recPublisher struct {
	mu     sync.Mutex
	events []MintCreated
}

func (p *recPublisher) PublishMint(_ context.Context, ev MintCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestEnsureMintConcurrentFirstCallsCreateOnce(t *testing.T) {
	led := memledger.New(memledger.Address("authority"), memledger.WithCreateMintDelay(50*time.Millisecond))
	pub := &recPublisher{}
	reg := NewMintRegistry(led, nil).WithPublisher(pub)

	const callers = 8
	ids := make([]sc.MintID, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = reg.EnsureMint(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, led.CreateMintCalls())
	require.Len(t, pub.events, 1)
	assert.Equal(t, ids[0], pub.events[0].Mint)
	assert.Equal(t, sc.Symbol, pub.events[0].Symbol)

	cur, ok := reg.CurrentMint()
	assert.True(t, ok)
	assert.Equal(t, ids[0], cur)
}

func TestEnsureMintFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	led := memledger.New(memledger.Address("authority"))
	reg := NewMintRegistry(led, nil)

	led.FailNext("CreateMint", errors.New("blockhash not found"))
	_, err := reg.EnsureMint(ctx)
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)
	_, ok := reg.CurrentMint()
	assert.False(t, ok)

	id, err := reg.EnsureMint(ctx)
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	again, err := reg.EnsureMint(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, led.CreateMintCalls())
}

func TestEnsureMintSurvivesCallerCancellation(t *testing.T) {
	led := memledger.New(memledger.Address("authority"), memledger.WithCreateMintDelay(50*time.Millisecond))
	reg := NewMintRegistry(led, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := reg.EnsureMint(ctx)
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)

	require.Eventually(t, func() bool {
		_, ok := reg.CurrentMint()
		return ok
	}, time.Second, 10*time.Millisecond, "the started creation still completes and is cached")
	assert.Equal(t, 1, led.CreateMintCalls())
}

func TestEnsureMintCreateTimeout(t *testing.T) {
	led := memledger.New(memledger.Address("authority"), memledger.WithCreateMintDelay(200*time.Millisecond))
	reg := NewMintRegistry(led, nil).WithCreateTimeout(20 * time.Millisecond)

	_, err := reg.EnsureMint(context.Background())
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok := reg.CurrentMint()
	assert.False(t, ok, "a timed-out creation is not cached")
}

func TestSeededRegistryNeverCreates(t *testing.T) {
	led := memledger.New(memledger.Address("authority"))
	seed := sc.MintID(memledger.Address("existing-mint"))
	reg := NewMintRegistry(led, nil).WithSeed(seed)

	id, err := reg.EnsureMint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, id)
	assert.Equal(t, 0, led.CreateMintCalls())
}
