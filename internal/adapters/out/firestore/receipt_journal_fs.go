// backend/internal/adapters/out/firestore/receipt_journal_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sc "solusd/internal/domain/stablecoin"
)

const defaultReceiptsCollection = "solusd_receipts"

// ReceiptJournalFS stores receipts in Firestore, one document per signature.
// Amounts are stored as decimal strings.
type ReceiptJournalFS struct {
	Client     *firestore.Client
	Collection string
}

func NewReceiptJournalFS(client *firestore.Client) *ReceiptJournalFS {
	return &ReceiptJournalFS{Client: client, Collection: defaultReceiptsCollection}
}

func (r *ReceiptJournalFS) col() *firestore.CollectionRef {
	name := strings.TrimSpace(r.Collection)
	if name == "" {
		name = defaultReceiptsCollection
	}
	return r.Client.Collection(name)
}

// Append is idempotent per signature: a second write of the same receipt is ignored.
func (r *ReceiptJournalFS) Append(ctx context.Context, rc sc.Receipt) error {
	if r == nil || r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if strings.TrimSpace(rc.Signature) == "" {
		return errors.New("receipt journal: empty signature")
	}

	_, err := r.col().Doc(rc.Signature).Create(ctx, receiptToDoc(rc))
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("receipt journal: create %s: %w", rc.Signature, err)
	}
	return nil
}

func (r *ReceiptJournalFS) ListByWallet(ctx context.Context, wallet string, limit int) ([]sc.Receipt, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	it := r.col().
		Where("wallet", "==", strings.TrimSpace(wallet)).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	out := make([]sc.Receipt, 0, limit)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("receipt journal: list: %w", err)
		}
		rc, err := docToReceipt(snap.Ref.ID, snap.Data())
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

func receiptToDoc(rc sc.Receipt) map[string]any {
	return map[string]any{
		"type":        string(rc.Type),
		"wallet":      rc.Wallet,
		"mint":        rc.Mint.String(),
		"tokenAmount": rc.TokenAmount.String(),
		"solAmount":   rc.SOLAmount.String(),
		"rate":        rc.Rate.String(),
		"explorerUrl": rc.ExplorerURL,
		"createdAt":   rc.CreatedAt.UTC(),
	}
}

func docToReceipt(id string, data map[string]any) (sc.Receipt, error) {
	str := func(k string) string {
		if v, ok := data[k].(string); ok {
			return v
		}
		return ""
	}
	dec := func(k string) (decimal.Decimal, error) {
		s := str(k)
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("receipt %s: field %s: %w", id, k, err)
		}
		return d, nil
	}

	rc := sc.Receipt{
		Signature:   id,
		Type:        sc.OperationType(str("type")),
		Wallet:      str("wallet"),
		Mint:        sc.MintID(str("mint")),
		ExplorerURL: str("explorerUrl"),
	}
	if !rc.Type.Valid() {
		return sc.Receipt{}, fmt.Errorf("receipt %s: unknown type %q", id, rc.Type)
	}

	var err error
	if rc.TokenAmount, err = dec("tokenAmount"); err != nil {
		return sc.Receipt{}, err
	}
	if rc.SOLAmount, err = dec("solAmount"); err != nil {
		return sc.Receipt{}, err
	}
	if rc.Rate, err = dec("rate"); err != nil {
		return sc.Receipt{}, err
	}
	if t, ok := data["createdAt"].(time.Time); ok {
		rc.CreatedAt = t.UTC()
	}
	return rc, nil
}
