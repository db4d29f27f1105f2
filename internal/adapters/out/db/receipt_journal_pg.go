// backend/internal/adapters/out/db/receipt_journal_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sc "solusd/internal/domain/stablecoin"
)

const receiptsSchema = `
CREATE TABLE IF NOT EXISTS solusd_receipts (
  id           UUID PRIMARY KEY,
  signature    TEXT NOT NULL UNIQUE,
  type         TEXT NOT NULL,
  wallet       TEXT NOT NULL,
  mint         TEXT NOT NULL,
  token_amount NUMERIC NOT NULL,
  sol_amount   NUMERIC NOT NULL,
  rate         NUMERIC NOT NULL,
  explorer_url TEXT NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS solusd_receipts_wallet_created_idx
  ON solusd_receipts (wallet, created_at DESC);
`

type ReceiptJournalPG struct {
	DB Runner
}

func NewReceiptJournalPG(db Runner) *ReceiptJournalPG {
	return &ReceiptJournalPG{DB: db}
}

// EnsureSchema creates the receipts table if it does not exist yet.
func (r *ReceiptJournalPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, receiptsSchema); err != nil {
		return fmt.Errorf("receipt journal: schema: %w", err)
	}
	return nil
}

// ========================================
// Append
// ========================================

func (r *ReceiptJournalPG) Append(ctx context.Context, rc sc.Receipt) error {
	if strings.TrimSpace(rc.Signature) == "" {
		return errors.New("receipt journal: empty signature")
	}

	const q = `
INSERT INTO solusd_receipts (
  id, signature, type, wallet, mint,
  token_amount, sol_amount, rate, explorer_url, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (signature) DO NOTHING
`
	_, err := r.DB.ExecContext(ctx, q,
		uuid.NewString(),
		rc.Signature,
		string(rc.Type),
		rc.Wallet,
		rc.Mint.String(),
		rc.TokenAmount.String(),
		rc.SOLAmount.String(),
		rc.Rate.String(),
		rc.ExplorerURL,
		rc.CreatedAt.UTC(),
	)
	if IsUniqueViolation(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("receipt journal: insert %s: %w", rc.Signature, err)
	}
	return nil
}

// ========================================
// ListByWallet
// ========================================

func (r *ReceiptJournalPG) ListByWallet(ctx context.Context, wallet string, limit int) ([]sc.Receipt, error) {
	const q = `
SELECT signature, type, wallet, mint, token_amount, sol_amount, rate, explorer_url, created_at
FROM solusd_receipts
WHERE wallet = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.DB.QueryContext(ctx, q, strings.TrimSpace(wallet), limit)
	if err != nil {
		return nil, fmt.Errorf("receipt journal: list: %w", err)
	}
	defer rows.Close()

	out := make([]sc.Receipt, 0, limit)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("receipt journal: list: %w", err)
	}
	return out, nil
}

func scanReceipt(s RowScanner) (sc.Receipt, error) {
	var (
		sig, typ, wallet, mint    string
		tokenAmt, solAmt, rateStr string
		explorerURL               sql.NullString
		createdAt                 time.Time
	)
	if err := s.Scan(&sig, &typ, &wallet, &mint, &tokenAmt, &solAmt, &rateStr, &explorerURL, &createdAt); err != nil {
		return sc.Receipt{}, fmt.Errorf("receipt journal: scan: %w", err)
	}

	parse := func(field, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("receipt journal: %s %s=%q: %w", sig, field, v, err)
		}
		return d, nil
	}

	rc := sc.Receipt{
		Signature:   sig,
		Type:        sc.OperationType(typ),
		Wallet:      wallet,
		Mint:        sc.MintID(mint),
		ExplorerURL: explorerURL.String,
		CreatedAt:   createdAt.UTC(),
	}
	if !rc.Type.Valid() {
		return sc.Receipt{}, fmt.Errorf("receipt journal: %s unknown type %q", sig, typ)
	}
	var err error
	if rc.TokenAmount, err = parse("token_amount", tokenAmt); err != nil {
		return sc.Receipt{}, err
	}
	if rc.SOLAmount, err = parse("sol_amount", solAmt); err != nil {
		return sc.Receipt{}, err
	}
	if rc.Rate, err = parse("rate", rateStr); err != nil {
		return sc.Receipt{}, err
	}
	return rc, nil
}
