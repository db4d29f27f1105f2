// Package memledger is an in-memory stablecoin.Ledger used by tests and by
// LEDGER_BACKEND=memory local runs. It keeps the token-program rules the
// issuance code depends on (atomic mint/burn, balance check on burn) and
// records instruction data in the SPL token layout.
package memledger

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	sc "solusd/internal/domain/stablecoin"
)

// FeeLamports is charged to the fee payer per transaction when a payer balance is set.
const FeeLamports = 5000

var ErrNotFound = errors.New("memledger: not found")

type mintRec struct {
	decimals uint8
	supply   uint64
}

type tokenAcct struct {
	owner  string
	mint   sc.MintID
	amount uint64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAuthorizer requires burns to be signed by the wallet through a.
func WithAuthorizer(a sc.WalletAuthorizer) Option {
	return func(l *Ledger) { l.authorizer = a }
}

// WithFeePayerBalance enables fee accounting for the mint authority.
func WithFeePayerBalance(lamports uint64) Option {
	return func(l *Ledger) {
		l.chargeFees = true
		l.native[l.authority] = lamports
	}
}

// WithCreateMintDelay slows CreateMint down (used to widen race windows in tests).
func WithCreateMintDelay(d time.Duration) Option {
	return func(l *Ledger) { l.createDelay = d }
}

// WithClock sets the block-time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	authority   string
	authorizer  sc.WalletAuthorizer
	chargeFees  bool
	createDelay time.Duration
	now         func() time.Time

	mints    map[sc.MintID]*mintRec
	accounts map[string]*tokenAcct // keyed by associated token address
	native   map[string]uint64
	txs      map[string]sc.LedgerTx
	byAddr   map[string][]string // signatures, oldest first

	seq         uint64
	slot        uint64
	createCalls int
	failNext    map[string]error
}

var _ sc.Ledger = (*Ledger)(nil)

// New returns an empty ledger whose mint authority is authority.
func New(authority string, opts ...Option) *Ledger {
	l := &Ledger{
		authority: authority,
		now:       func() time.Time { return time.Now().UTC() },
		mints:     map[sc.MintID]*mintRec{},
		accounts:  map[string]*tokenAcct{},
		native:    map[string]uint64{},
		txs:       map[string]sc.LedgerTx{},
		byAddr:    map[string][]string{},
		failNext:  map[string]error{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// FailNext makes the next call of op ("CreateMint", "MintTo", "Burn", ...) return err.
func (l *Ledger) FailNext(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext[op] = err
}

// CreateMintCalls reports how many mints were created.
func (l *Ledger) CreateMintCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createCalls
}

// Address derives a deterministic 32-byte base58 address from seed.
func Address(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return base58.Encode(h[:])
}

func (l *Ledger) takeFailure(op string) error {
	if err, ok := l.failNext[op]; ok {
		delete(l.failNext, op)
		return err
	}
	return nil
}

func (l *Ledger) chargeFee() error {
	if !l.chargeFees {
		return nil
	}
	if l.native[l.authority] < FeeLamports {
		return sc.ErrInsufficientFunds
	}
	l.native[l.authority] -= FeeLamports
	return nil
}

// record appends a confirmed transaction. Caller holds l.mu.
func (l *Ledger) record(ixs ...sc.Instruction) string {
	l.seq++
	l.slot++
	h := sha512.Sum512([]byte(fmt.Sprintf("tx:%s:%d", l.authority, l.seq)))
	sig := base58.Encode(h[:])
	bt := l.now()

	l.txs[sig] = sc.LedgerTx{
		Signature:    sig,
		Slot:         l.slot,
		BlockTime:    &bt,
		Instructions: ixs,
	}
	seen := map[string]struct{}{}
	for _, ix := range ixs {
		for _, a := range ix.Accounts {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			l.byAddr[a] = append(l.byAddr[a], sig)
		}
	}
	return sig
}

func (l *Ledger) CreateMint(ctx context.Context, decimals uint8) (sc.MintID, string, error) {
	if l.createDelay > 0 {
		select {
		case <-time.After(l.createDelay):
		case <-ctx.Done():
			return "", "", sc.Unavailable(ctx.Err())
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("CreateMint"); err != nil {
		return "", "", err
	}
	if err := l.chargeFee(); err != nil {
		return "", "", err
	}

	l.createCalls++
	mint := sc.MintID(Address(fmt.Sprintf("mint:%s:%d", l.authority, l.createCalls)))
	l.mints[mint] = &mintRec{decimals: decimals}

	sig := l.record(sc.Instruction{
		ProgramID: sc.TokenProgramID,
		Accounts:  []string{mint.String()},
		Data:      []byte{0, decimals},
	})
	return mint, sig, nil
}

func (l *Ledger) AssociatedTokenAddress(mint sc.MintID, owner string) (string, error) {
	if mint.IsZero() || owner == "" {
		return "", fmt.Errorf("memledger: empty mint or owner")
	}
	return Address("ata:" + mint.String() + ":" + owner), nil
}

func (l *Ledger) EnsureTokenAccount(ctx context.Context, mint sc.MintID, owner string) (string, bool, error) {
	ata, err := l.AssociatedTokenAddress(mint, owner)
	if err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("EnsureTokenAccount"); err != nil {
		return "", false, err
	}
	if _, ok := l.mints[mint]; !ok {
		return "", false, fmt.Errorf("memledger: mint %s: %w", mint, ErrNotFound)
	}
	if _, ok := l.accounts[ata]; ok {
		return ata, false, nil
	}
	if err := l.chargeFee(); err != nil {
		return "", false, err
	}
	l.accounts[ata] = &tokenAcct{owner: owner, mint: mint}
	l.record(sc.Instruction{
		ProgramID: sc.AssociatedTokenProgramID,
		Accounts:  []string{l.authority, ata, owner, mint.String()},
	})
	return ata, true, nil
}

func (l *Ledger) TokenAccount(ctx context.Context, mint sc.MintID, owner string) (sc.TokenAccountState, bool, error) {
	ata, err := l.AssociatedTokenAddress(mint, owner)
	if err != nil {
		return sc.TokenAccountState{}, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("TokenAccount"); err != nil {
		return sc.TokenAccountState{}, false, err
	}
	a, ok := l.accounts[ata]
	if !ok {
		return sc.TokenAccountState{}, false, nil
	}
	return sc.TokenAccountState{Address: ata, Owner: a.owner, Mint: a.mint, Amount: a.amount}, true, nil
}

func (l *Ledger) MintTo(ctx context.Context, mint sc.MintID, owner string, amount uint64) (string, error) {
	ata, err := l.AssociatedTokenAddress(mint, owner)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("MintTo"); err != nil {
		return "", err
	}
	m, ok := l.mints[mint]
	if !ok {
		return "", fmt.Errorf("memledger: mint %s: %w", mint, ErrNotFound)
	}
	a, ok := l.accounts[ata]
	if !ok {
		return "", fmt.Errorf("memledger: token account %s: %w", ata, ErrNotFound)
	}
	if a.amount > math.MaxUint64-amount || m.supply > math.MaxUint64-amount {
		return "", sc.ErrSupplyOverflow
	}
	if err := l.chargeFee(); err != nil {
		return "", err
	}
	a.amount += amount
	m.supply += amount

	return l.record(sc.Instruction{
		ProgramID: sc.TokenProgramID,
		Accounts:  []string{mint.String(), ata, l.authority},
		Data:      sc.EncodeAmountInstruction(sc.TokenIxMintTo, amount),
	}), nil
}

func (l *Ledger) Burn(ctx context.Context, mint sc.MintID, owner string, amount uint64) (string, error) {
	ata, err := l.AssociatedTokenAddress(mint, owner)
	if err != nil {
		return "", err
	}
	data := sc.EncodeAmountInstruction(sc.TokenIxBurn, amount)

	// Called outside the lock.
	if l.authorizer != nil {
		if _, err := l.authorizer.Sign(ctx, owner, data); err != nil {
			return "", fmt.Errorf("%w: %v", sc.ErrUnauthorized, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("Burn"); err != nil {
		return "", err
	}
	m, ok := l.mints[mint]
	if !ok {
		return "", fmt.Errorf("memledger: mint %s: %w", mint, ErrNotFound)
	}
	a, ok := l.accounts[ata]
	if !ok || a.amount < amount {
		return "", sc.ErrInsufficientBalance
	}
	if err := l.chargeFee(); err != nil {
		return "", err
	}
	a.amount -= amount
	m.supply -= amount

	return l.record(sc.Instruction{
		ProgramID: sc.TokenProgramID,
		Accounts:  []string{ata, mint.String(), owner},
		Data:      data,
	}), nil
}

func (l *Ledger) MintState(ctx context.Context, mint sc.MintID) (sc.MintState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("MintState"); err != nil {
		return sc.MintState{}, err
	}
	m, ok := l.mints[mint]
	if !ok {
		return sc.MintState{}, fmt.Errorf("memledger: mint %s: %w", mint, ErrNotFound)
	}
	return sc.MintState{Address: mint, Decimals: m.decimals, Supply: m.supply, MintAuthority: l.authority}, nil
}

func (l *Ledger) NativeBalance(ctx context.Context, wallet string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("NativeBalance"); err != nil {
		return 0, err
	}
	return l.native[wallet], nil
}

func (l *Ledger) RecentSignatures(ctx context.Context, address string, limit int) ([]sc.SignatureRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("RecentSignatures"); err != nil {
		return nil, err
	}
	sigs := l.byAddr[address]
	out := make([]sc.SignatureRef, 0, len(sigs))
	for i := len(sigs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		tx := l.txs[sigs[i]]
		out = append(out, sc.SignatureRef{Signature: tx.Signature, Slot: tx.Slot, BlockTime: tx.BlockTime, Failed: tx.Failed})
	}
	return out, nil
}

func (l *Ledger) Transaction(ctx context.Context, signature string) (sc.LedgerTx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("Transaction"); err != nil {
		return sc.LedgerTx{}, err
	}
	tx, ok := l.txs[signature]
	if !ok {
		return sc.LedgerTx{}, fmt.Errorf("memledger: transaction %s: %w", signature, ErrNotFound)
	}
	return tx, nil
}

// Inject stores an arbitrary transaction touching the given addresses (tests).
func (l *Ledger) Inject(tx sc.LedgerTx, addresses ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[tx.Signature] = tx
	for _, a := range addresses {
		l.byAddr[a] = append(l.byAddr[a], tx.Signature)
	}
}

func (l *Ledger) Airdrop(ctx context.Context, wallet string, lamports uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.takeFailure("Airdrop"); err != nil {
		return "", err
	}
	l.native[wallet] += lamports
	return l.record(sc.Instruction{
		ProgramID: sc.SystemProgramID,
		Accounts:  []string{wallet},
	}), nil
}
