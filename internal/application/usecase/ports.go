// backend/internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"

	sc "solusd/internal/domain/stablecoin"
)

// Ports defined on the usecase side. Adapters live under adapters/out.
// All of them are optional: a nil port is skipped.

// ReceiptJournal persists confirmed issuance receipts.
type ReceiptJournal interface {
	Append(ctx context.Context, r sc.Receipt) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]sc.Receipt, error)
}

// IssuanceNotifier reports issuance outcomes to an operator.
type IssuanceNotifier interface {
	NotifySuccess(ctx context.Context, r sc.Receipt) error
	NotifyFailure(ctx context.Context, op sc.OperationType, wallet string, cause error) error
}

// MintCreated is emitted once after the mint account is created.
type MintCreated struct {
	Mint      sc.MintID
	Signature string
	Decimals  uint8
	Symbol    string
	Name      string
	CreatedAt time.Time
}

// MintPublisher publishes token metadata for a freshly created mint.
type MintPublisher interface {
	PublishMint(ctx context.Context, ev MintCreated) error
}

// IssuanceMetrics receives operation counters.
type IssuanceMetrics interface {
	ObserveOperation(op sc.OperationType, err error, elapsed time.Duration)
	MintCreated()
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(sc.OperationType, error, time.Duration) {}
func (nopMetrics) MintCreated()                                             {}
