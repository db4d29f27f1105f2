// backend/internal/application/usecase/issuance_usecase.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solusd/internal/domain/price"
	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/logging"
)

// ============================================================
// IssuanceUsecase
// ============================================================

// IssuanceUsecase mints SOLUSD against a SOL amount and burns it back.
// Neither operation is idempotent: a repeated call is a new operation.
type IssuanceUsecase struct {
	registry *MintRegistry
	ledger   sc.Ledger
	oracle   price.Oracle
	cluster  string

	journal  ReceiptJournal
	notifier IssuanceNotifier
	metrics  IssuanceMetrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewIssuanceUsecase(
	registry *MintRegistry,
	ledger sc.Ledger,
	oracle price.Oracle,
	cluster string,
	logger *zap.Logger,
) *IssuanceUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssuanceUsecase{
		registry: registry,
		ledger:   ledger,
		oracle:   oracle,
		cluster:  cluster,
		metrics:  nopMetrics{},
		logger:   logger.Named("issuance"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *IssuanceUsecase) WithJournal(j ReceiptJournal) *IssuanceUsecase {
	u.journal = j
	return u
}

func (u *IssuanceUsecase) WithNotifier(n IssuanceNotifier) *IssuanceUsecase {
	u.notifier = n
	return u
}

func (u *IssuanceUsecase) WithMetrics(m IssuanceMetrics) *IssuanceUsecase {
	if m != nil {
		u.metrics = m
	}
	return u
}

func (u *IssuanceUsecase) WithNow(now func() time.Time) *IssuanceUsecase {
	u.now = now
	return u
}

// Rate exposes the oracle rate to presentation consumers.
func (u *IssuanceUsecase) Rate(ctx context.Context) (decimal.Decimal, error) {
	if u == nil || u.oracle == nil {
		return decimal.Zero, price.ErrUnavailable
	}
	return u.oracle.Rate(ctx)
}

// Mint converts solAmount at the oracle rate and mints the result to wallet's
// associated token account, creating the mint and the account as needed.
func (u *IssuanceUsecase) Mint(ctx context.Context, wallet string, solAmount decimal.Decimal) (sc.Receipt, error) {
	start := u.now()
	r, err := u.mint(ctx, wallet, solAmount)
	err = sc.MintFailed(err)
	u.finish(ctx, sc.OperationMint, wallet, r, err, start)
	return r, err
}

func (u *IssuanceUsecase) mint(ctx context.Context, wallet string, solAmount decimal.Decimal) (sc.Receipt, error) {
	if u == nil || u.registry == nil || u.ledger == nil || u.oracle == nil {
		return sc.Receipt{}, errors.New("issuance usecase: not properly initialized")
	}
	if err := sc.RequirePositive(solAmount); err != nil {
		return sc.Receipt{}, err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return sc.Receipt{}, err
	}

	rate, err := u.oracle.Rate(ctx)
	if err != nil {
		return sc.Receipt{}, err
	}
	base, err := sc.ToBaseUnits(sc.TokensForSOL(solAmount, rate))
	if err != nil {
		return sc.Receipt{}, err
	}

	mint, err := u.registry.EnsureMint(ctx)
	if err != nil {
		return sc.Receipt{}, err
	}

	ata, created, err := u.ledger.EnsureTokenAccount(ctx, mint, owner)
	if err != nil {
		return sc.Receipt{}, sc.Unavailable(err)
	}
	if created {
		u.logger.Info("token account created",
			zap.String("wallet", logging.MaskShort(owner)),
			zap.String("account", logging.MaskShort(ata)),
		)
	}

	sig, err := u.ledger.MintTo(ctx, mint, owner, base)
	if err != nil {
		return sc.Receipt{}, sc.Unavailable(err)
	}

	return sc.Receipt{
		Signature:   sig,
		Type:        sc.OperationMint,
		Wallet:      owner,
		Mint:        mint,
		TokenAmount: sc.FromBaseUnits(base),
		SOLAmount:   solAmount,
		Rate:        rate,
		ExplorerURL: sc.ExplorerTxURL(sig, u.cluster),
		CreatedAt:   u.now(),
	}, nil
}

// Burn destroys tokenAmount from wallet's associated token account. The SOL
// amount on the receipt is the display equivalent; no SOL is returned.
func (u *IssuanceUsecase) Burn(ctx context.Context, wallet string, tokenAmount decimal.Decimal) (sc.Receipt, error) {
	start := u.now()
	r, err := u.burn(ctx, wallet, tokenAmount)
	err = sc.BurnFailed(err)
	u.finish(ctx, sc.OperationBurn, wallet, r, err, start)
	return r, err
}

func (u *IssuanceUsecase) burn(ctx context.Context, wallet string, tokenAmount decimal.Decimal) (sc.Receipt, error) {
	if u == nil || u.registry == nil || u.ledger == nil || u.oracle == nil {
		return sc.Receipt{}, errors.New("issuance usecase: not properly initialized")
	}
	base, err := sc.ToBaseUnits(tokenAmount)
	if err != nil {
		return sc.Receipt{}, err
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return sc.Receipt{}, err
	}

	mint, err := u.registry.requireMint()
	if err != nil {
		return sc.Receipt{}, err
	}

	rate, err := u.oracle.Rate(ctx)
	if err != nil {
		return sc.Receipt{}, err
	}
	token := sc.FromBaseUnits(base)

	sig, err := u.ledger.Burn(ctx, mint, owner, base)
	if err != nil {
		return sc.Receipt{}, sc.Unavailable(err)
	}

	return sc.Receipt{
		Signature:   sig,
		Type:        sc.OperationBurn,
		Wallet:      owner,
		Mint:        mint,
		TokenAmount: token,
		SOLAmount:   sc.SOLForTokens(token, rate),
		Rate:        rate,
		ExplorerURL: sc.ExplorerTxURL(sig, u.cluster),
		CreatedAt:   u.now(),
	}, nil
}

// finish runs the best-effort side effects. None of them alter the result.
func (u *IssuanceUsecase) finish(ctx context.Context, op sc.OperationType, wallet string, r sc.Receipt, err error, start time.Time) {
	if u == nil {
		return
	}
	u.metrics.ObserveOperation(op, err, u.now().Sub(start))

	sctx, cancel := detached(ctx)
	defer cancel()

	if err != nil {
		u.logger.Warn("operation failed",
			zap.String("op", string(op)),
			zap.String("wallet", logging.MaskShort(wallet)),
			zap.Error(err),
		)
		if u.notifier != nil && !isInputError(err) {
			if nerr := u.notifier.NotifyFailure(sctx, op, wallet, err); nerr != nil {
				u.logger.Warn("notify failure failed", zap.Error(nerr))
			}
		}
		return
	}

	u.logger.Info("operation confirmed",
		zap.String("op", string(op)),
		zap.String("wallet", logging.MaskShort(r.Wallet)),
		zap.String("signature", logging.MaskShort(r.Signature)),
		zap.String("token", r.TokenAmount.StringFixed(sc.Decimals)),
		zap.String("sol", r.SOLDisplay()),
	)

	if u.journal != nil {
		if jerr := u.journal.Append(sctx, r); jerr != nil {
			u.logger.Warn("journal append failed", zap.String("signature", logging.MaskShort(r.Signature)), zap.Error(jerr))
		}
	}
	if u.notifier != nil {
		if nerr := u.notifier.NotifySuccess(sctx, r); nerr != nil {
			u.logger.Warn("notify success failed", zap.Error(nerr))
		}
	}
}

// Receipts lists journaled receipts for wallet, newest first.
func (u *IssuanceUsecase) Receipts(ctx context.Context, wallet string, limit int) ([]sc.Receipt, error) {
	if u == nil || u.journal == nil {
		return nil, ErrJournalDisabled
	}
	owner, err := sc.ValidateWallet(wallet)
	if err != nil {
		return nil, err
	}
	return u.journal.ListByWallet(ctx, owner, clampLimit(limit))
}

// ErrJournalDisabled is returned when no receipt journal is configured.
var ErrJournalDisabled = errors.New("issuance usecase: receipt journal is not configured")

func isInputError(err error) bool {
	return errors.Is(err, sc.ErrInvalidAmount) ||
		errors.Is(err, sc.ErrInvalidWallet) ||
		errors.Is(err, sc.ErrMintNotInitialized)
}
