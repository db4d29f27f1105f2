package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "solusd/internal/domain/stablecoin"
)

type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("want %d columns, got %d", len(r), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i].(string)
		case *sql.NullString:
			*p = sql.NullString{String: r[i].(string), Valid: true}
		case *time.Time:
			*p = r[i].(time.Time)
		default:
			return fmt.Errorf("unexpected dest %T", d)
		}
	}
	return nil
}

func TestScanReceipt(t *testing.T) {
	created := time.Date(2026, 3, 2, 0, 0, 0, 0, time.FixedZone("JST", 9*3600))
	row := fakeRow{"sig", "mint", "wallet", "mintaddr", "30.000000", "1.000000000", "30", "https://x", created}

	rc, err := scanReceipt(row)
	require.NoError(t, err)
	assert.Equal(t, sc.OperationMint, rc.Type)
	assert.True(t, rc.TokenAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, time.UTC, rc.CreatedAt.Location())
}

func TestScanReceiptRejectsBadRows(t *testing.T) {
	now := time.Now()
	_, err := scanReceipt(fakeRow{"sig", "swap", "w", "m", "1", "1", "1", "", now})
	assert.Error(t, err)

	_, err = scanReceipt(fakeRow{"sig", "burn", "w", "m", "NaN?", "1", "1", "", now})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
	assert.False(t, IsUniqueViolation(nil))
}

// Runs against a real database when SOLUSD_TEST_DATABASE_URL is set.
func TestReceiptJournalPGIntegration(t *testing.T) {
	dsn := os.Getenv("SOLUSD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SOLUSD_TEST_DATABASE_URL not set")
	}
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	j := NewReceiptJournalPG(conn)
	require.NoError(t, j.EnsureSchema(ctx))

	wallet := fmt.Sprintf("it-wallet-%d", time.Now().UnixNano())
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		rc := sc.Receipt{
			Signature:   fmt.Sprintf("%s-sig-%d", wallet, i),
			Type:        sc.OperationMint,
			Wallet:      wallet,
			Mint:        "mint",
			TokenAmount: decimal.NewFromInt(int64(i + 1)),
			SOLAmount:   decimal.Zero,
			Rate:        decimal.NewFromInt(30),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, j.Append(ctx, rc))
		require.NoError(t, j.Append(ctx, rc), "duplicate signature is ignored")
	}

	got, err := j.ListByWallet(ctx, wallet, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, wallet+"-sig-2", got[0].Signature)
	assert.Equal(t, wallet+"-sig-1", got[1].Signature)
}
