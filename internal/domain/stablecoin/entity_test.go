package stablecoin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWallet(t *testing.T) {
	got, err := ValidateWallet("  " + testWallet + " ")
	require.NoError(t, err)
	assert.Equal(t, testWallet, got)

	for _, bad := range []string{"", "0OIl", "abc", "3yZe7d"} {
		_, err := ValidateWallet(bad)
		assert.ErrorIs(t, err, ErrInvalidWallet, bad)
	}
}

func TestExplorerTxURL(t *testing.T) {
	assert.Equal(t, "https://explorer.solana.com/tx/abc?cluster=devnet", ExplorerTxURL("abc", ""))
	assert.Equal(t, "https://explorer.solana.com/tx/abc?cluster=testnet", ExplorerTxURL("abc", "testnet"))
	assert.Equal(t, "https://explorer.solana.com/tx/abc", ExplorerTxURL("abc", "mainnet-beta"))
}

func TestFailureWrapping(t *testing.T) {
	err := MintFailed(Unavailable(errors.New("dial tcp: timeout")))
	assert.ErrorIs(t, err, ErrMintFailed)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)

	err = BurnFailed(ErrInsufficientBalance)
	assert.ErrorIs(t, err, ErrBurnFailed)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrLedgerUnavailable)

	assert.Equal(t, ErrInsufficientFunds, Unavailable(ErrInsufficientFunds), "classified errors pass through")
	assert.Nil(t, MintFailed(nil))
}

func TestNotCreatedMintInfo(t *testing.T) {
	info := NotCreatedMintInfo()
	assert.False(t, info.Created)
	assert.Nil(t, info.Address)
	assert.Equal(t, uint8(Decimals), info.Decimals)
	assert.True(t, info.Supply.IsZero())
}
