// backend/internal/domain/stablecoin/entity.go
package stablecoin

import (
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Token policy
const (
	Symbol   = "SOLUSD"
	Name     = "SOL-backed USD (devnet)"
	Decimals = 6

	// LamportsPerSOL is the native-coin precision.
	LamportsPerSOL = 1_000_000_000

	DefaultCluster  = "devnet"
	explorerBaseURL = "https://explorer.solana.com"
)

// MintID is the base58 address of the SOLUSD mint account.
type MintID string

func (m MintID) String() string { return string(m) }

func (m MintID) IsZero() bool { return strings.TrimSpace(string(m)) == "" }

// OperationType is the kind of issuance operation.
type OperationType string

const (
	OperationMint OperationType = "mint"
	OperationBurn OperationType = "burn"
)

func (t OperationType) Valid() bool {
	return t == OperationMint || t == OperationBurn
}

// MintInfo is the read-only projection of the mint state.
type MintInfo struct {
	Address  *string         `json:"address"`
	Decimals uint8           `json:"decimals"`
	Supply   decimal.Decimal `json:"supply"`
	Created  bool            `json:"created"`
}

// NotCreatedMintInfo is returned before the mint exists.
func NotCreatedMintInfo() MintInfo {
	return MintInfo{
		Address:  nil,
		Decimals: Decimals,
		Supply:   decimal.Zero,
		Created:  false,
	}
}

// BalanceSnapshot is a point-in-time read of a wallet.
// Token and Native come from independent round trips.
type BalanceSnapshot struct {
	Wallet    string          `json:"wallet"`
	Token     decimal.Decimal `json:"token"`
	Native    decimal.Decimal `json:"native"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Receipt is returned for a confirmed mint or burn.
type Receipt struct {
	Signature   string          `json:"signature"`
	Type        OperationType   `json:"type"`
	Wallet      string          `json:"wallet"`
	Mint        MintID          `json:"mint"`
	TokenAmount decimal.Decimal `json:"tokenAmount"`
	// SOLAmount is the deposited amount for mint and a display-only equivalent for burn.
	SOLAmount   decimal.Decimal `json:"solAmount"`
	Rate        decimal.Decimal `json:"rate"`
	ExplorerURL string          `json:"explorerUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SOLDisplay formats SOLAmount the way clients show it (6 places).
func (r Receipt) SOLDisplay() string {
	return r.SOLAmount.StringFixed(Decimals)
}

// TxRecord is one classified history entry.
type TxRecord struct {
	Signature   string          `json:"signature"`
	BlockTime   *time.Time      `json:"blockTime,omitempty"`
	Type        OperationType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	ExplorerURL string          `json:"explorerUrl"`
}

// ExplorerTxURL builds a transaction-explorer link for the given cluster.
func ExplorerTxURL(signature, cluster string) string {
	cluster = strings.TrimSpace(cluster)
	if cluster == "" {
		cluster = DefaultCluster
	}
	sig := strings.TrimSpace(signature)
	if cluster == "mainnet-beta" {
		return fmt.Sprintf("%s/tx/%s", explorerBaseURL, sig)
	}
	return fmt.Sprintf("%s/tx/%s?cluster=%s", explorerBaseURL, sig, cluster)
}

// Validation

// ValidateWallet checks that s is a base58-encoded 32-byte public key.
func ValidateWallet(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidWallet
	}
	b, err := base58.Decode(s)
	if err != nil || len(b) != 32 {
		return "", ErrInvalidWallet
	}
	return s, nil
}
