// backend/internal/domain/stablecoin/ledger_port.go
package stablecoin

import (
	"context"
	"time"
)

// Well-known program ids (base58).
const (
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	SystemProgramID          = "11111111111111111111111111111111"
)

// ========================================
// Ledger read models
// ========================================

type TokenAccountState struct {
	Address string
	Owner   string
	Mint    MintID
	Amount  uint64 // base units
}

type MintState struct {
	Address       MintID
	Decimals      uint8
	Supply        uint64 // base units
	MintAuthority string
}

type SignatureRef struct {
	Signature string
	Slot      uint64
	BlockTime *time.Time
	Failed    bool
}

// Instruction is a top-level instruction with resolved account addresses.
type Instruction struct {
	ProgramID string
	Accounts  []string
	Data      []byte
}

type LedgerTx struct {
	Signature    string
	Slot         uint64
	BlockTime    *time.Time
	Failed       bool
	Instructions []Instruction
}

// ========================================
// Ports
// ========================================

// Ledger is the external ledger client used by the issuance use cases.
// Write methods return the signature of a confirmed transaction.
type Ledger interface {
	// CreateMint creates and initializes a new mint owned by the mint authority.
	CreateMint(ctx context.Context, decimals uint8) (MintID, string, error)

	// AssociatedTokenAddress derives the owner's associated token account (no I/O).
	AssociatedTokenAddress(mint MintID, owner string) (string, error)

	// EnsureTokenAccount creates the owner's associated token account if absent.
	EnsureTokenAccount(ctx context.Context, mint MintID, owner string) (address string, created bool, err error)

	// TokenAccount reads the owner's associated token account. ok=false when it does not exist.
	TokenAccount(ctx context.Context, mint MintID, owner string) (state TokenAccountState, ok bool, err error)

	MintTo(ctx context.Context, mint MintID, owner string, amount uint64) (string, error)
	Burn(ctx context.Context, mint MintID, owner string, amount uint64) (string, error)

	MintState(ctx context.Context, mint MintID) (MintState, error)
	NativeBalance(ctx context.Context, wallet string) (uint64, error)

	RecentSignatures(ctx context.Context, address string, limit int) ([]SignatureRef, error)
	Transaction(ctx context.Context, signature string) (LedgerTx, error)

	Airdrop(ctx context.Context, wallet string, lamports uint64) (string, error)
}

// WalletAuthorizer signs a serialized transaction message on behalf of a wallet.
// Implementations must not retain key material beyond a single call.
type WalletAuthorizer interface {
	Sign(ctx context.Context, wallet string, message []byte) ([]byte, error)
}
