// backend/internal/application/usecase/history_usecase.go
package usecase

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/logging"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50

	historyFetchConcurrency = 4
	historyCacheSize        = 1024
)

// HistoryUsecase lists the wallet's recent mint and burn operations, derived
// from the instruction data of the ledger entries touching its token account.
type HistoryUsecase struct {
	registry *MintRegistry
	ledger   sc.Ledger
	cluster  string
	cache    *lru.Cache // token account + signature -> sc.TxRecord
	logger   *zap.Logger
}

func NewHistoryUsecase(registry *MintRegistry, ledger sc.Ledger, cluster string, logger *zap.Logger) *HistoryUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, _ := lru.New(historyCacheSize)
	return &HistoryUsecase{
		registry: registry,
		ledger:   ledger,
		cluster:  cluster,
		cache:    cache,
		logger:   logger.Named("history"),
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// List returns at most limit records, newest first. Entries that cannot be
// classified as a SOLUSD mint or burn for this wallet are omitted.
func (u *HistoryUsecase) List(ctx context.Context, wallet string, limit int) ([]sc.TxRecord, error) {
	if u == nil || u.registry == nil || u.ledger == nil {
		return nil, errors.New("history usecase: not properly initialized")
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return nil, err
	}
	mint, ok := u.registry.CurrentMint()
	if !ok {
		return []sc.TxRecord{}, nil
	}

	ata, err := u.ledger.AssociatedTokenAddress(mint, owner)
	if err != nil {
		return nil, err
	}
	refs, err := u.ledger.RecentSignatures(ctx, ata, clampLimit(limit))
	if err != nil {
		return nil, sc.Unavailable(err)
	}

	records := make([]*sc.TxRecord, len(refs))
	var mu sync.Mutex
	omitted := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchConcurrency)
	for i, ref := range refs {
		if ref.Failed {
			continue
		}
		key := ata + ":" + ref.Signature
		if v, hit := u.cache.Get(key); hit {
			rec := v.(sc.TxRecord)
			records[i] = &rec
			continue
		}
		g.Go(func() error {
			tx, err := u.ledger.Transaction(gctx, ref.Signature)
			if err != nil {
				return sc.Unavailable(err)
			}
			rec, ok := sc.ClassifyTransaction(tx, mint, ata, u.cluster)
			if !ok {
				mu.Lock()
				omitted++
				mu.Unlock()
				return nil
			}
			if rec.BlockTime == nil {
				rec.BlockTime = ref.BlockTime
			}
			u.cache.Add(key, rec)
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]sc.TxRecord, 0, len(refs))
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	if omitted > 0 {
		u.logger.Debug("history entries omitted", zap.String("wallet", logging.MaskShort(owner)), zap.Int("count", omitted))
	}
	return out, nil
}
