package stablecoin

import (
	"encoding/binary"
)

// SPL token instruction tags.
const (
	TokenIxMintTo        byte = 7
	TokenIxBurn          byte = 8
	TokenIxMintToChecked byte = 14
	TokenIxBurnChecked   byte = 15
)

// EncodeAmountInstruction builds the data of an amount-carrying token instruction.
func EncodeAmountInstruction(tag byte, amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// ClassifyTransaction recovers the issuance type and amount of tx for the
// wallet's token account. ok=false means the entry must be omitted.
//
// Accounts layout:
//
//	MintTo / MintToChecked: [mint, destination, authority, ...]
//	Burn / BurnChecked:     [account, mint, owner, ...]
func ClassifyTransaction(tx LedgerTx, mint MintID, tokenAccount, cluster string) (TxRecord, bool) {
	if tx.Failed || mint.IsZero() || tokenAccount == "" {
		return TxRecord{}, false
	}
	for _, ix := range tx.Instructions {
		typ, amount, ok := classifyInstruction(ix, mint, tokenAccount)
		if !ok {
			continue
		}
		return TxRecord{
			Signature:   tx.Signature,
			BlockTime:   tx.BlockTime,
			Type:        typ,
			Amount:      FromBaseUnits(amount),
			ExplorerURL: ExplorerTxURL(tx.Signature, cluster),
		}, true
	}
	return TxRecord{}, false
}

func classifyInstruction(ix Instruction, mint MintID, tokenAccount string) (OperationType, uint64, bool) {
	if ix.ProgramID != TokenProgramID || len(ix.Data) < 9 || len(ix.Accounts) < 2 {
		return "", 0, false
	}
	amount := binary.LittleEndian.Uint64(ix.Data[1:9])

	switch ix.Data[0] {
	case TokenIxMintTo, TokenIxMintToChecked:
		if ix.Accounts[0] == mint.String() && ix.Accounts[1] == tokenAccount {
			return OperationMint, amount, true
		}
	case TokenIxBurn, TokenIxBurnChecked:
		if ix.Accounts[0] == tokenAccount && ix.Accounts[1] == mint.String() {
			return OperationBurn, amount, true
		}
	}
	return "", 0, false
}
