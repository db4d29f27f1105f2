package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "solusd/internal/domain/stablecoin"
)

// rpcStub is a JSON-RPC node answering with canned results per method.
type rpcStub struct {
	mu      sync.Mutex
	results map[string][]string // method -> queued raw results (last one repeats)
	errs    map[string]string   // method -> raw error object
	calls   map[string]int
	params  map[string]json.RawMessage
}

func newRPCStub() *rpcStub {
	return &rpcStub{
		results: map[string][]string{},
		errs:    map[string]string{},
		calls:   map[string]int{},
		params:  map[string]json.RawMessage{},
	}
}

func (s *rpcStub) on(method string, results ...string) *rpcStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[method] = results
	return s
}

func (s *rpcStub) fail(method, rawErr string) *rpcStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[method] = rawErr
	return s
}

func (s *rpcStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     any             `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	s.params[req.Method] = req.Params
	n := s.calls[req.Method]
	rawErr, hasErr := s.errs[req.Method]
	queue := s.results[req.Method]
	s.mu.Unlock()

	id, _ := json.Marshal(req.ID)
	w.Header().Set("Content-Type", "application/json")
	if hasErr {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(id) + `,"error":` + rawErr + `}`))
		return
	}
	if len(queue) == 0 {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(id) + `,"error":{"code":-32601,"message":"Method not found"}}`))
		return
	}
	res := queue[len(queue)-1]
	if n <= len(queue) {
		res = queue[n-1]
	}
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(id) + `,"result":` + res + `}`))
}

func (s *rpcStub) lastParams(method string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params[method]
}

func (s *rpcStub) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func TestRecentSignatures(t *testing.T) {
	stub := newRPCStub().on("getSignaturesForAddress", `[
		{"signature":"sigB","slot":12,"err":null,"blockTime":1767225600,"confirmationStatus":"finalized"},
		{"signature":"sigA","slot":10,"err":{"InstructionError":[0,{"Custom":1}]},"blockTime":null,"confirmationStatus":"finalized"}
	]`)
	l := newTestLedger(t, stub, time.Second)
	l.commitment = "processed"

	got, err := l.RecentSignatures(context.Background(), "addr", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sigB", got[0].Signature)
	assert.False(t, got[0].Failed)
	require.NotNil(t, got[0].BlockTime)
	assert.True(t, got[1].Failed)
	assert.Nil(t, got[1].BlockTime)

	var params []any
	require.NoError(t, json.Unmarshal(stub.lastParams("getSignaturesForAddress"), &params))
	require.Len(t, params, 2)
	cfg := params[1].(map[string]any)
	assert.Equal(t, float64(5), cfg["limit"])
	assert.Equal(t, "confirmed", cfg["commitment"], "processed is not accepted for history reads")
}

// encodedTx serializes a legacy transaction the way getTransaction returns it
// with encoding=base64.
func encodedTx(t *testing.T, accounts []common.PublicKey, ixs []types.CompiledInstruction) string {
	t.Helper()
	tx := types.Transaction{
		Signatures: []types.Signature{make([]byte, 64)},
		Message: types.Message{
			Version: types.MessageVersionLegacy,
			Header: types.MessageHeader{
				NumRequireSignatures:        1,
				NumReadonlyUnsignedAccounts: 1,
			},
			Accounts:        accounts,
			RecentBlockHash: types.NewAccount().PublicKey.ToBase58(),
			Instructions:    ixs,
		},
	}
	raw, err := tx.Serialize()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestTransactionDecodesInstructions(t *testing.T) {
	authority := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	ata := types.NewAccount().PublicKey.ToBase58()

	encoded := encodedTx(t,
		[]common.PublicKey{authority, mint, common.TokenProgramID},
		[]types.CompiledInstruction{
			{ProgramIDIndex: 9, Accounts: []int{0}},
			{ProgramIDIndex: 2, Accounts: []int{1, 3, 0}, Data: sc.EncodeAmountInstruction(sc.TokenIxMintToChecked, 2_500_000)},
		},
	)
	stub := newRPCStub().on("getTransaction", `{
		"slot": 99,
		"blockTime": 1767225600,
		"meta": {"err": null, "fee": 5000, "preBalances": [], "postBalances": [],
			"loadedAddresses": {"writable": ["`+ata+`"], "readonly": []}},
		"transaction": ["`+encoded+`", "base64"]
	}`)
	l := newTestLedger(t, stub, time.Second)

	tx, err := l.Transaction(context.Background(), "sig1")
	require.NoError(t, err)
	assert.False(t, tx.Failed)
	require.Len(t, tx.Instructions, 1, "out-of-range program index is dropped")
	assert.Equal(t, []string{mint.ToBase58(), ata, authority.ToBase58()}, tx.Instructions[0].Accounts, "loaded addresses follow static keys")
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, int64(1767225600), tx.BlockTime.Unix())

	rec, ok := sc.ClassifyTransaction(tx, sc.MintID(mint.ToBase58()), ata, "devnet")
	require.True(t, ok)
	assert.Equal(t, sc.OperationMint, rec.Type)
	assert.Equal(t, "2.5", rec.Amount.String())

	var params []any
	require.NoError(t, json.Unmarshal(stub.lastParams("getTransaction"), &params))
	cfg := params[1].(map[string]any)
	assert.Equal(t, "base64", cfg["encoding"])
	assert.Equal(t, float64(0), cfg["maxSupportedTransactionVersion"])
}

func TestTransactionNodeErrors(t *testing.T) {
	stub := newRPCStub().on("getTransaction", `null`)
	l := newTestLedger(t, stub, time.Second)
	ctx := context.Background()

	_, err := l.Transaction(ctx, "unknown")
	assert.ErrorIs(t, err, ErrTxNotFound)

	stub.fail("getTransaction", `{"code":-32005,"message":"Node is behind"}`)
	_, err = l.Transaction(ctx, "x")
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)
	var rpcErr *rpc.JsonRpcError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32005, rpcErr.Code)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer down.Close()
	l.client = NewRPCClient(down.URL, time.Second)
	_, err = l.Transaction(ctx, "x")
	assert.ErrorIs(t, err, sc.ErrLedgerUnavailable)
}

func TestStatusReached(t *testing.T) {
	confirmed := rpc.CommitmentConfirmed
	st := &rpc.SignatureStatus{ConfirmationStatus: &confirmed}
	assert.True(t, statusReached(st, "processed"))
	assert.True(t, statusReached(st, "confirmed"))
	assert.False(t, statusReached(st, "finalized"))
	assert.False(t, statusFailed(st))

	assert.False(t, statusReached(nil, "processed"))
	assert.False(t, statusReached(&rpc.SignatureStatus{}, "processed"))
	assert.True(t, statusFailed(&rpc.SignatureStatus{Err: map[string]any{"InstructionError": []any{0, "x"}}}))
}
