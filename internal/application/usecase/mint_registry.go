// backend/internal/application/usecase/mint_registry.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	sc "solusd/internal/domain/stablecoin"
)

// DefaultCreateTimeout bounds a mint creation once it has started.
const DefaultCreateTimeout = 90 * time.Second

// MintRegistry owns the process-wide SOLUSD mint identity.
//
// The identity is created at most once per process. Concurrent first callers
// share a single in-flight creation; a failed creation is not cached.
type MintRegistry struct {
	ledger    sc.Ledger
	publisher MintPublisher
	metrics   IssuanceMetrics
	logger    *zap.Logger
	now       func() time.Time
	timeout   time.Duration

	mu   sync.RWMutex
	mint sc.MintID

	group singleflight.Group
}

func NewMintRegistry(ledger sc.Ledger, logger *zap.Logger) *MintRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MintRegistry{
		ledger:  ledger,
		metrics: nopMetrics{},
		logger:  logger.Named("mint_registry"),
		now:     func() time.Time { return time.Now().UTC() },
		timeout: DefaultCreateTimeout,
	}
}

// WithSeed starts the registry with an existing mint. Creation never runs afterwards.
func (r *MintRegistry) WithSeed(mint sc.MintID) *MintRegistry {
	if !mint.IsZero() {
		r.mu.Lock()
		r.mint = mint
		r.mu.Unlock()
	}
	return r
}

func (r *MintRegistry) WithPublisher(p MintPublisher) *MintRegistry {
	r.publisher = p
	return r
}

func (r *MintRegistry) WithMetrics(m IssuanceMetrics) *MintRegistry {
	if m != nil {
		r.metrics = m
	}
	return r
}

func (r *MintRegistry) WithCreateTimeout(d time.Duration) *MintRegistry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

func (r *MintRegistry) WithNow(now func() time.Time) *MintRegistry {
	r.now = now
	return r
}

// CurrentMint returns the cached identity without creating one.
func (r *MintRegistry) CurrentMint() (sc.MintID, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mint, !r.mint.IsZero()
}

// EnsureMint returns the cached identity or creates it.
func (r *MintRegistry) EnsureMint(ctx context.Context) (sc.MintID, error) {
	if r == nil || r.ledger == nil {
		return "", errors.New("mint registry: not initialized")
	}
	if m, ok := r.CurrentMint(); ok {
		return m, nil
	}

	ch := r.group.DoChan("mint", func() (any, error) {
		// another flight may have finished between the fast path and here
		if m, ok := r.CurrentMint(); ok {
			return m, nil
		}
		return r.create(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(sc.MintID), nil
	case <-ctx.Done():
		return "", sc.Unavailable(ctx.Err())
	}
}

// create is detached from the caller's cancellation and bounded by r.timeout.
func (r *MintRegistry) create(parent context.Context) (sc.MintID, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	start := r.now()
	mint, sig, err := r.ledger.CreateMint(ctx, sc.Decimals)
	if err != nil {
		r.logger.Warn("create mint failed", zap.Error(err))
		return "", sc.Unavailable(err)
	}

	r.mu.Lock()
	r.mint = mint
	r.mu.Unlock()

	r.metrics.MintCreated()
	r.logger.Info("mint created",
		zap.String("mint", mint.String()),
		zap.String("signature", sig),
		zap.Duration("elapsed", r.now().Sub(start)),
	)

	if r.publisher != nil {
		ev := MintCreated{
			Mint:      mint,
			Signature: sig,
			Decimals:  sc.Decimals,
			Symbol:    sc.Symbol,
			Name:      sc.Name,
			CreatedAt: r.now(),
		}
		if perr := r.publisher.PublishMint(ctx, ev); perr != nil {
			r.logger.Warn("publish mint metadata failed", zap.String("mint", mint.String()), zap.Error(perr))
		}
	}
	return mint, nil
}

func (r *MintRegistry) requireMint() (sc.MintID, error) {
	m, ok := r.CurrentMint()
	if !ok {
		return "", sc.ErrMintNotInitialized
	}
	return m, nil
}
