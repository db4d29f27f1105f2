package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "solusd/internal/domain/stablecoin"
)

func TestHistoryBeforeMintIsEmpty(t *testing.T) {
	f := newFixture(t)
	recs, err := f.history.List(context.Background(), alice, 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestHistoryClassifiesMintAndBurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.issuance.Mint(ctx, alice, dec("2"))
	require.NoError(t, err)
	b, err := f.issuance.Burn(ctx, alice, dec("15"))
	require.NoError(t, err)
	_, err = f.issuance.Mint(ctx, bob, dec("1"))
	require.NoError(t, err)

	recs, err := f.history.List(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2, "token-account creation is omitted, bob's mint is not listed")

	assert.Equal(t, b.Signature, recs[0].Signature)
	assert.Equal(t, sc.OperationBurn, recs[0].Type)
	assert.Equal(t, "15", recs[0].Amount.String())
	assert.NotNil(t, recs[0].BlockTime)

	assert.Equal(t, m.Signature, recs[1].Signature)
	assert.Equal(t, sc.OperationMint, recs[1].Type)
	assert.Equal(t, "60", recs[1].Amount.String())
	assert.Contains(t, recs[1].ExplorerURL, m.Signature)
}

func TestHistoryOmitsUnclassifiableEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.issuance.Mint(ctx, alice, dec("1"))
	require.NoError(t, err)
	mint, _ := f.registry.CurrentMint()
	ata, err := f.ledger.AssociatedTokenAddress(mint, alice)
	require.NoError(t, err)

	bt := time.Now().UTC()
	// a transfer (tag 3) and a failed mint-to into the same account
	f.ledger.Inject(sc.LedgerTx{
		Signature: "transfer-sig",
		BlockTime: &bt,
		Instructions: []sc.Instruction{{
			ProgramID: sc.TokenProgramID,
			Accounts:  []string{ata, ata, alice},
			Data:      sc.EncodeAmountInstruction(3, 1),
		}},
	}, ata)
	f.ledger.Inject(sc.LedgerTx{
		Signature: "failed-sig",
		Failed:    true,
		Instructions: []sc.Instruction{{
			ProgramID: sc.TokenProgramID,
			Accounts:  []string{mint.String(), ata},
			Data:      sc.EncodeAmountInstruction(sc.TokenIxMintTo, 1),
		}},
	}, ata)

	recs, err := f.history.List(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, sc.OperationMint, recs[0].Type)
}

func TestHistoryLimitAndCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 4; i++ {
		_, err := f.issuance.Mint(ctx, alice, dec("1"))
		require.NoError(t, err)
	}

	recs, err := f.history.List(ctx, alice, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// cached records are served without another transaction fetch
	f.ledger.FailNext("Transaction", errors.New("should not be called"))
	again, err := f.history.List(ctx, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, recs, again)
}

func TestHistoryFetchFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.issuance.Mint(ctx, alice, dec("1"))
	require.NoError(t, err)

	f.ledger.FailNext("RecentSignatures", errors.New("rpc down"))
	_, err = f.history.List(ctx, alice, 10)
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, clampLimit(0))
	assert.Equal(t, DefaultHistoryLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxHistoryLimit, clampLimit(500))
}
