// backend/internal/infra/solana/ledger.go
package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/logging"
)

var (
	ErrLedgerNotConfigured = errors.New("solana ledger: not configured")
	ErrAccountNotFound     = errors.New("solana ledger: account not found")
	ErrTxNotFound          = errors.New("solana ledger: transaction not found")
)

const (
	DefaultCommitment     = "confirmed"
	DefaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

type LedgerConfig struct {
	RPCURL         string
	Commitment     string // processed | confirmed | finalized
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// Ledger implements stablecoin.Ledger against a Solana cluster.
//
// The mint authority pays every fee and signs mint-to. Burns additionally
// need the token owner's signature, obtained from the WalletAuthorizer.
type Ledger struct {
	client     *client.Client
	authority  types.Account
	authorizer sc.WalletAuthorizer

	commitment     string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *zap.Logger
}

var _ sc.Ledger = (*Ledger)(nil)

func NewLedger(cfg LedgerConfig, authority *MintAuthority, authorizer sc.WalletAuthorizer, logger *zap.Logger) (*Ledger, error) {
	if authority == nil {
		return nil, fmt.Errorf("%w: mint authority is nil", ErrLedgerNotConfigured)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	url := strings.TrimSpace(cfg.RPCURL)
	if url == "" {
		url = DevnetEndpoint
	}
	commitment := strings.TrimSpace(cfg.Commitment)
	if commitmentRank(commitment) == 0 {
		commitment = DefaultCommitment
	}
	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &Ledger{
		client:         NewRPCClient(url, 0),
		authority:      authority.Account,
		authorizer:     authorizer,
		commitment:     commitment,
		confirmTimeout: timeout,
		pollInterval:   poll,
		logger:         logger.Named("solana"),
	}, nil
}

// ============================================================
// writes
// ============================================================

func (l *Ledger) CreateMint(ctx context.Context, decimals uint8) (sc.MintID, string, error) {
	if l == nil || l.client == nil {
		return "", "", ErrLedgerNotConfigured
	}
	mint := types.NewAccount()

	rent, err := l.client.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", "", sc.Unavailable(fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err))
	}

	ixs := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     l.authority.PublicKey,
			New:      mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   decimals,
			Mint:       mint.PublicKey,
			MintAuth:   l.authority.PublicKey,
			FreezeAuth: &l.authority.PublicKey,
		}),
	}

	sig, err := l.sendAndConfirm(ctx, opCreate, ixs, mint)
	if err != nil {
		return "", "", err
	}
	l.logger.Info("mint account initialized",
		zap.String("mint", mint.PublicKey.ToBase58()),
		zap.Uint8("decimals", decimals),
		zap.String("tx", logging.MaskShort(sig)),
	)
	return sc.MintID(mint.PublicKey.ToBase58()), sig, nil
}

func (l *Ledger) AssociatedTokenAddress(mint sc.MintID, owner string) (string, error) {
	ata, err := l.ata(mint, owner)
	if err != nil {
		return "", err
	}
	return ata.ToBase58(), nil
}

func (l *Ledger) ata(mint sc.MintID, owner string) (common.PublicKey, error) {
	if mint.IsZero() || strings.TrimSpace(owner) == "" {
		return common.PublicKey{}, errors.New("solana ledger: empty mint or owner")
	}
	ata, _, err := common.FindAssociatedTokenAddress(
		common.PublicKeyFromString(strings.TrimSpace(owner)),
		common.PublicKeyFromString(mint.String()),
	)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	return ata, nil
}

func (l *Ledger) EnsureTokenAccount(ctx context.Context, mint sc.MintID, owner string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLedgerNotConfigured
	}
	ata, err := l.ata(mint, owner)
	if err != nil {
		return "", false, err
	}

	exists, err := l.accountExists(ctx, ata.ToBase58())
	if err != nil {
		return "", false, err
	}
	if exists {
		return ata.ToBase58(), false, nil
	}

	ix := associated_token_account.CreateAssociatedTokenAccount(
		associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 l.authority.PublicKey,
			Owner:                  common.PublicKeyFromString(owner),
			Mint:                   common.PublicKeyFromString(mint.String()),
			AssociatedTokenAccount: ata,
		},
	)
	if _, err := l.sendAndConfirm(ctx, opCreate, []types.Instruction{ix}); err != nil {
		// a concurrent request may have created it first
		if again, cerr := l.accountExists(ctx, ata.ToBase58()); cerr == nil && again {
			return ata.ToBase58(), false, nil
		}
		return "", false, err
	}
	return ata.ToBase58(), true, nil
}

func (l *Ledger) MintTo(ctx context.Context, mint sc.MintID, owner string, amount uint64) (string, error) {
	if l == nil || l.client == nil {
		return "", ErrLedgerNotConfigured
	}
	ata, err := l.ata(mint, owner)
	if err != nil {
		return "", err
	}
	ix := token.MintTo(token.MintToParam{
		Mint:   common.PublicKeyFromString(mint.String()),
		To:     ata,
		Auth:   l.authority.PublicKey,
		Amount: amount,
	})
	return l.sendAndConfirm(ctx, opMint, []types.Instruction{ix})
}

func (l *Ledger) Burn(ctx context.Context, mint sc.MintID, owner string, amount uint64) (string, error) {
	if l == nil || l.client == nil {
		return "", ErrLedgerNotConfigured
	}
	if l.authorizer == nil {
		return "", fmt.Errorf("%w: no wallet authorizer configured", sc.ErrUnauthorized)
	}
	ownerKey := common.PublicKeyFromString(strings.TrimSpace(owner))
	ata, err := l.ata(mint, owner)
	if err != nil {
		return "", err
	}

	exists, err := l.accountExists(ctx, ata.ToBase58())
	if err != nil {
		return "", err
	}
	if !exists {
		return "", sc.ErrInsufficientBalance
	}

	latest, err := l.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", sc.Unavailable(fmt.Errorf("GetLatestBlockhash: %w", err))
	}
	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        l.authority.PublicKey,
		RecentBlockhash: latest.Blockhash,
		Instructions: []types.Instruction{
			token.Burn(token.BurnParam{
				Account: ata,
				Mint:    common.PublicKeyFromString(mint.String()),
				Auth:    ownerKey,
				Amount:  amount,
			}),
		},
	})
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: msg,
		Signers: []types.Account{l.authority},
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}

	raw, err := msg.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize message: %w", err)
	}
	ownerSig, err := l.authorizer.Sign(ctx, ownerKey.ToBase58(), raw)
	if err != nil {
		if sc.IsClassified(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", sc.ErrUnauthorized, err)
	}
	if err := tx.AddSignature(ownerSig); err != nil {
		return "", fmt.Errorf("%w: %v", sc.ErrUnauthorized, err)
	}

	return l.submit(ctx, opBurn, tx)
}

func (l *Ledger) Airdrop(ctx context.Context, wallet string, lamports uint64) (string, error) {
	if l == nil || l.client == nil {
		return "", ErrLedgerNotConfigured
	}
	sig, err := l.client.RequestAirdrop(ctx, strings.TrimSpace(wallet), lamports)
	if err != nil {
		return "", classifyError(opCreate, err)
	}
	if err := l.confirm(ctx, opCreate, sig); err != nil {
		return "", err
	}
	return sig, nil
}

// ============================================================
// reads
// ============================================================

func (l *Ledger) TokenAccount(ctx context.Context, mint sc.MintID, owner string) (sc.TokenAccountState, bool, error) {
	if l == nil || l.client == nil {
		return sc.TokenAccountState{}, false, ErrLedgerNotConfigured
	}
	ata, err := l.ata(mint, owner)
	if err != nil {
		return sc.TokenAccountState{}, false, err
	}

	info, err := l.client.GetAccountInfo(ctx, ata.ToBase58())
	if err != nil {
		return sc.TokenAccountState{}, false, sc.Unavailable(fmt.Errorf("GetAccountInfo: %w", err))
	}
	if info.Owner == (common.PublicKey{}) {
		return sc.TokenAccountState{}, false, nil
	}
	if info.Owner != common.TokenProgramID {
		return sc.TokenAccountState{}, false, fmt.Errorf("solana ledger: %s is not a token account (owner=%s)", ata.ToBase58(), info.Owner.ToBase58())
	}

	ta, err := token.TokenAccountFromData(info.Data)
	if err != nil {
		return sc.TokenAccountState{}, false, fmt.Errorf("decode token account: %w", err)
	}
	return sc.TokenAccountState{
		Address: ata.ToBase58(),
		Owner:   ta.Owner.ToBase58(),
		Mint:    sc.MintID(ta.Mint.ToBase58()),
		Amount:  ta.Amount,
	}, true, nil
}

func (l *Ledger) MintState(ctx context.Context, mint sc.MintID) (sc.MintState, error) {
	if l == nil || l.client == nil {
		return sc.MintState{}, ErrLedgerNotConfigured
	}
	info, err := l.client.GetAccountInfo(ctx, mint.String())
	if err != nil {
		return sc.MintState{}, sc.Unavailable(fmt.Errorf("GetAccountInfo: %w", err))
	}
	if info.Owner == (common.PublicKey{}) {
		return sc.MintState{}, fmt.Errorf("%w: mint %s", ErrAccountNotFound, mint)
	}

	ma, err := token.MintAccountFromData(info.Data)
	if err != nil {
		return sc.MintState{}, fmt.Errorf("decode mint account: %w", err)
	}
	st := sc.MintState{
		Address:  mint,
		Decimals: ma.Decimals,
		Supply:   ma.Supply,
	}
	if ma.MintAuthority != nil {
		st.MintAuthority = ma.MintAuthority.ToBase58()
	}
	return st, nil
}

func (l *Ledger) NativeBalance(ctx context.Context, wallet string) (uint64, error) {
	if l == nil || l.client == nil {
		return 0, ErrLedgerNotConfigured
	}
	bal, err := l.client.GetBalance(ctx, strings.TrimSpace(wallet))
	if err != nil {
		return 0, sc.Unavailable(fmt.Errorf("GetBalance: %w", err))
	}
	return bal, nil
}

func (l *Ledger) RecentSignatures(ctx context.Context, address string, limit int) ([]sc.SignatureRef, error) {
	if l == nil || l.client == nil {
		return nil, ErrLedgerNotConfigured
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("solana ledger: address is empty")
	}
	infos, err := l.client.GetSignaturesForAddressWithConfig(ctx, address, client.GetSignaturesForAddressConfig{
		Limit:      limit,
		Commitment: readCommitment(l.commitment),
	})
	if err != nil {
		return nil, sc.Unavailable(fmt.Errorf("GetSignaturesForAddress: %w", err))
	}
	out := make([]sc.SignatureRef, 0, len(infos))
	for _, in := range infos {
		out = append(out, sc.SignatureRef{
			Signature: in.Signature,
			Slot:      in.Slot,
			BlockTime: unixPtr(in.BlockTime),
			Failed:    hasErr(in.Err),
		})
	}
	return out, nil
}

func (l *Ledger) Transaction(ctx context.Context, signature string) (sc.LedgerTx, error) {
	if l == nil || l.client == nil {
		return sc.LedgerTx{}, ErrLedgerNotConfigured
	}
	res, err := l.client.GetTransactionWithConfig(ctx, strings.TrimSpace(signature), client.GetTransactionConfig{
		Commitment: readCommitment(l.commitment),
	})
	if err != nil {
		return sc.LedgerTx{}, sc.Unavailable(fmt.Errorf("GetTransaction: %w", err))
	}
	if res == nil {
		return sc.LedgerTx{}, sc.Unavailable(fmt.Errorf("%w: %s", ErrTxNotFound, logging.MaskShort(signature)))
	}
	return decodeTransaction(signature, res), nil
}

// decodeTransaction resolves the account indexes of top-level instructions.
// Instructions that cannot be resolved are dropped.
func decodeTransaction(signature string, res *client.Transaction) sc.LedgerTx {
	keys := res.AccountKeys
	tx := sc.LedgerTx{
		Signature: signature,
		Slot:      res.Slot,
		BlockTime: unixPtr(res.BlockTime),
		Failed:    res.Meta != nil && hasErr(res.Meta.Err),
	}

	for _, ci := range res.Transaction.Message.Instructions {
		if ci.ProgramIDIndex < 0 || ci.ProgramIDIndex >= len(keys) {
			continue
		}
		accounts := make([]string, 0, len(ci.Accounts))
		ok := true
		for _, idx := range ci.Accounts {
			if idx < 0 || idx >= len(keys) {
				ok = false
				break
			}
			accounts = append(accounts, keys[idx].ToBase58())
		}
		if !ok {
			continue
		}
		tx.Instructions = append(tx.Instructions, sc.Instruction{
			ProgramID: keys[ci.ProgramIDIndex].ToBase58(),
			Accounts:  accounts,
			Data:      ci.Data,
		})
	}
	return tx
}

// ============================================================
// send / confirm
// ============================================================

type opKind int

const (
	opCreate opKind = iota
	opMint
	opBurn
)

func (l *Ledger) sendAndConfirm(ctx context.Context, op opKind, ixs []types.Instruction, extra ...types.Account) (string, error) {
	latest, err := l.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", sc.Unavailable(fmt.Errorf("GetLatestBlockhash: %w", err))
	}
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        l.authority.PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ixs,
		}),
		Signers: append([]types.Account{l.authority}, extra...),
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}
	return l.submit(ctx, op, tx)
}

func (l *Ledger) submit(ctx context.Context, op opKind, tx types.Transaction) (string, error) {
	sig, err := l.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", classifyError(op, err)
	}
	l.logger.Debug("transaction submitted", zap.String("tx", logging.MaskShort(sig)))

	if err := l.confirm(ctx, op, sig); err != nil {
		return "", err
	}
	return sig, nil
}

// confirm polls the signature status until the configured commitment is
// reached, the transaction fails, or confirmTimeout elapses.
func (l *Ledger) confirm(ctx context.Context, op opKind, sig string) error {
	ctx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := l.client.GetSignatureStatuses(ctx, []string{sig})
		switch {
		case err != nil:
			l.logger.Debug("signature status poll failed", zap.String("tx", logging.MaskShort(sig)), zap.Error(err))
		case len(statuses) == 1 && statuses[0] != nil:
			st := statuses[0]
			if statusFailed(st) {
				return classifyError(op, fmt.Errorf("transaction %s failed: %s", sig, errText(st.Err)))
			}
			if statusReached(st, l.commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return sc.Unavailable(fmt.Errorf("confirm %s: %w", logging.MaskShort(sig), ctx.Err()))
		case <-ticker.C:
		}
	}
}

// classifyError maps node error text onto the domain taxonomy.
// Token program error 0x1 is InsufficientFunds on the token account for
// burns; elsewhere it comes from the system program (payer lamports).
// Token program error 0xe is Overflow.
func classifyError(op opKind, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	custom1 := customProgramError(msg, 0x1)

	switch {
	case customProgramError(msg, 0xe):
		return fmt.Errorf("%w: %v", sc.ErrSupplyOverflow, err)
	case op == opBurn && custom1:
		return fmt.Errorf("%w: %v", sc.ErrInsufficientBalance, err)
	case custom1,
		strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient lamports"),
		strings.Contains(msg, "insufficientfundsforfee"),
		strings.Contains(msg, "insufficientfundsforrent"),
		strings.Contains(msg, "no record of a prior credit"):
		return fmt.Errorf("%w: %v", sc.ErrInsufficientFunds, err)
	}
	return sc.Unavailable(err)
}

// customProgramError matches both the simulation log form ("custom program
// error: 0xe") and the status JSON form ({"Custom":14}).
func customProgramError(msg string, code int) bool {
	hex := fmt.Sprintf("custom program error: 0x%x", code)
	if i := strings.Index(msg, hex); i >= 0 {
		rest := msg[i+len(hex):]
		if rest == "" || !isHexDigit(rest[0]) {
			return true
		}
	}
	return strings.Contains(msg, fmt.Sprintf(`"custom":%d}`, code))
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}

func errText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (l *Ledger) accountExists(ctx context.Context, address string) (bool, error) {
	info, err := l.client.GetAccountInfo(ctx, address)
	if err != nil {
		return false, sc.Unavailable(fmt.Errorf("GetAccountInfo: %w", err))
	}
	return info.Owner != (common.PublicKey{}), nil
}

func unixPtr(sec *int64) *time.Time {
	if sec == nil {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}
