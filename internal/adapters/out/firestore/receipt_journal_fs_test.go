package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "solusd/internal/domain/stablecoin"
)

func TestReceiptDocumentMapping(t *testing.T) {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rc := sc.Receipt{
		Signature:   "sig",
		Type:        sc.OperationBurn,
		Wallet:      "wallet",
		Mint:        "mint",
		TokenAmount: decimal.RequireFromString("60"),
		SOLAmount:   decimal.RequireFromString("2"),
		Rate:        decimal.RequireFromString("30"),
		ExplorerURL: "https://explorer.solana.com/tx/sig?cluster=devnet",
		CreatedAt:   created,
	}

	doc := receiptToDoc(rc)
	assert.Equal(t, "60", doc["tokenAmount"], "amounts are stored as decimal strings")

	back, err := docToReceipt("sig", doc)
	require.NoError(t, err)
	assert.Equal(t, rc.Signature, back.Signature)
	assert.Equal(t, rc.Type, back.Type)
	assert.True(t, rc.TokenAmount.Equal(back.TokenAmount))
	assert.Equal(t, "2.000000", back.SOLDisplay())
	assert.Equal(t, created, back.CreatedAt)
}

func TestDocToReceiptRejectsCorruptDocuments(t *testing.T) {
	_, err := docToReceipt("x", map[string]any{"type": "transfer"})
	assert.Error(t, err)

	_, err = docToReceipt("x", map[string]any{"type": "mint", "tokenAmount": "lots"})
	assert.Error(t, err)
}
