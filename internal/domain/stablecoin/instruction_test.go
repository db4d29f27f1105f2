package stablecoin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	testMint   = MintID("So11111111111111111111111111111111111111112")
	testATA    = "SysvarRent111111111111111111111111111111111"
	testWallet = "Vote111111111111111111111111111111111111111"
)

func tokenIx(tag byte, amount uint64, accounts ...string) Instruction {
	return Instruction{
		ProgramID: TokenProgramID,
		Accounts:  accounts,
		Data:      EncodeAmountInstruction(tag, amount),
	}
}

func TestClassifyTransaction(t *testing.T) {
	bt := time.Unix(1_700_000_000, 0).UTC()

	cases := []struct {
		name   string
		ix     Instruction
		want   OperationType
		amount string
	}{
		{"mint_to", tokenIx(TokenIxMintTo, 60_000_000, testMint.String(), testATA, testWallet), OperationMint, "60"},
		{"mint_to_checked", tokenIx(TokenIxMintToChecked, 1_500_000, testMint.String(), testATA, testWallet), OperationMint, "1.5"},
		{"burn", tokenIx(TokenIxBurn, 10_000_000, testATA, testMint.String(), testWallet), OperationBurn, "10"},
		{"burn_checked", tokenIx(TokenIxBurnChecked, 1, testATA, testMint.String(), testWallet), OperationBurn, "0.000001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := LedgerTx{Signature: "sig", BlockTime: &bt, Instructions: []Instruction{tc.ix}}
			rec, ok := ClassifyTransaction(tx, testMint, testATA, "devnet")
			assert.True(t, ok)
			assert.Equal(t, tc.want, rec.Type)
			assert.Equal(t, tc.amount, rec.Amount.String())
			assert.Equal(t, &bt, rec.BlockTime)
			assert.Equal(t, "https://explorer.solana.com/tx/sig?cluster=devnet", rec.ExplorerURL)
		})
	}
}

func TestClassifyTransactionFailsClosed(t *testing.T) {
	otherMint := "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	cases := []struct {
		name string
		tx   LedgerTx
	}{
		{"failed", LedgerTx{Failed: true, Instructions: []Instruction{tokenIx(TokenIxMintTo, 1, testMint.String(), testATA)}}},
		{"other_program", LedgerTx{Instructions: []Instruction{{ProgramID: SystemProgramID, Accounts: []string{testMint.String(), testATA}, Data: EncodeAmountInstruction(TokenIxMintTo, 1)}}}},
		{"other_mint", LedgerTx{Instructions: []Instruction{tokenIx(TokenIxMintTo, 1, otherMint, testATA)}}},
		{"other_account", LedgerTx{Instructions: []Instruction{tokenIx(TokenIxBurn, 1, testWallet, testMint.String())}}},
		{"transfer", LedgerTx{Instructions: []Instruction{tokenIx(3, 1, testATA, testWallet, testMint.String())}}},
		{"short_data", LedgerTx{Instructions: []Instruction{{ProgramID: TokenProgramID, Accounts: []string{testMint.String(), testATA}, Data: []byte{TokenIxMintTo, 1}}}}},
		{"no_instructions", LedgerTx{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ClassifyTransaction(tc.tx, testMint, testATA, "devnet")
			assert.False(t, ok)
		})
	}
}

func TestClassifyTransactionSkipsUnrelatedInstructions(t *testing.T) {
	tx := LedgerTx{
		Signature: "sig",
		Instructions: []Instruction{
			{ProgramID: AssociatedTokenProgramID, Accounts: []string{testWallet, testATA}},
			tokenIx(TokenIxMintTo, 2_000_000, testMint.String(), testATA, testWallet),
		},
	}
	rec, ok := ClassifyTransaction(tx, testMint, testATA, "")
	assert.True(t, ok)
	assert.Equal(t, OperationMint, rec.Type)
	assert.Equal(t, "2", rec.Amount.String())
}
