// backend/internal/application/usecase/balance_usecase.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/logging"
)

// BalanceUsecase reads token and native balances. Reads never create the mint
// or any token account, and results are never cached.
type BalanceUsecase struct {
	registry *MintRegistry
	ledger   sc.Ledger
	logger   *zap.Logger
	now      func() time.Time
}

func NewBalanceUsecase(registry *MintRegistry, ledger sc.Ledger, logger *zap.Logger) *BalanceUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceUsecase{
		registry: registry,
		ledger:   ledger,
		logger:   logger.Named("balance"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *BalanceUsecase) WithNow(now func() time.Time) *BalanceUsecase {
	u.now = now
	return u
}

func (u *BalanceUsecase) ready() error {
	if u == nil || u.registry == nil || u.ledger == nil {
		return errors.New("balance usecase: not properly initialized")
	}
	return nil
}

// TokenBalance is 0 when the mint or the wallet's token account does not exist.
func (u *BalanceUsecase) TokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	if err := u.ready(); err != nil {
		return decimal.Zero, err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return decimal.Zero, err
	}
	mint, ok := u.registry.CurrentMint()
	if !ok {
		return decimal.Zero, nil
	}

	st, found, err := u.ledger.TokenAccount(ctx, mint, owner)
	if err != nil {
		return decimal.Zero, sc.Unavailable(err)
	}
	if !found {
		return decimal.Zero, nil
	}
	return sc.FromBaseUnits(st.Amount), nil
}

// NativeBalance returns the wallet's SOL balance.
func (u *BalanceUsecase) NativeBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	if err := u.ready(); err != nil {
		return decimal.Zero, err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return decimal.Zero, err
	}
	lamports, err := u.ledger.NativeBalance(ctx, owner)
	if err != nil {
		return decimal.Zero, sc.Unavailable(err)
	}
	return sc.LamportsToSOL(lamports), nil
}

// Snapshot issues both reads concurrently. The two values are not read
// atomically with respect to each other.
func (u *BalanceUsecase) Snapshot(ctx context.Context, wallet string) (sc.BalanceSnapshot, error) {
	if err := u.ready(); err != nil {
		return sc.BalanceSnapshot{}, err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return sc.BalanceSnapshot{}, err
	}

	var token, native decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := u.TokenBalance(gctx, owner)
		token = v
		return err
	})
	g.Go(func() error {
		v, err := u.NativeBalance(gctx, owner)
		native = v
		return err
	})
	if err := g.Wait(); err != nil {
		return sc.BalanceSnapshot{}, err
	}

	return sc.BalanceSnapshot{
		Wallet:    owner,
		Token:     token,
		Native:    native,
		FetchedAt: u.now(),
	}, nil
}

// TotalSupply is 0 before the mint exists.
func (u *BalanceUsecase) TotalSupply(ctx context.Context) (decimal.Decimal, error) {
	if err := u.ready(); err != nil {
		return decimal.Zero, err
	}
	mint, ok := u.registry.CurrentMint()
	if !ok {
		return decimal.Zero, nil
	}
	st, err := u.ledger.MintState(ctx, mint)
	if err != nil {
		return decimal.Zero, sc.Unavailable(err)
	}
	return sc.FromBaseUnits(st.Supply), nil
}

// MintInfo never fails before the mint exists. When the ledger read fails
// afterwards, the cached address is still reported together with the error.
func (u *BalanceUsecase) MintInfo(ctx context.Context) (sc.MintInfo, error) {
	if err := u.ready(); err != nil {
		return sc.NotCreatedMintInfo(), err
	}
	mint, ok := u.registry.CurrentMint()
	if !ok {
		return sc.NotCreatedMintInfo(), nil
	}

	info := sc.MintInfo{
		Address:  ptr(mint.String()),
		Decimals: sc.Decimals,
		Supply:   decimal.Zero,
		Created:  true,
	}
	st, err := u.ledger.MintState(ctx, mint)
	if err != nil {
		u.logger.Warn("read mint state failed", zap.String("mint", logging.MaskShort(mint.String())), zap.Error(err))
		return info, sc.Unavailable(err)
	}
	info.Decimals = st.Decimals
	info.Supply = sc.FromBaseUnits(st.Supply)
	return info, nil
}

// Airdrop requests devnet SOL for wallet (fee funding for local runs).
func (u *BalanceUsecase) Airdrop(ctx context.Context, wallet string, sol decimal.Decimal) (string, error) {
	if err := u.ready(); err != nil {
		return "", err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return "", err
	}
	if err := sc.RequirePositive(sol); err != nil {
		return "", err
	}
	lamports := sol.Shift(9).Truncate(0)
	if !lamports.IsPositive() || !lamports.BigInt().IsUint64() {
		return "", sc.ErrInvalidAmount
	}
	sig, err := u.ledger.Airdrop(ctx, owner, lamports.BigInt().Uint64())
	if err != nil {
		return "", sc.Unavailable(err)
	}
	u.logger.Info("airdrop requested", zap.String("wallet", logging.MaskShort(owner)), zap.String("sol", sol.String()))
	return sig, nil
}
