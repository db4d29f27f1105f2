// backend/internal/infra/solana/rpc_client.go
package solana

import (
	"net/http"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
)

// DevnetEndpoint is the default cluster endpoint.
const DevnetEndpoint = rpc.DevnetRPCEndpoint

const defaultRPCTimeout = 12 * time.Second

// NewRPCClient returns a blocto client with a bounded HTTP timeout.
func NewRPCClient(endpoint string, timeout time.Duration) *client.Client {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	if timeout <= 0 {
		timeout = defaultRPCTimeout
	}
	return client.New(
		rpc.WithEndpoint(ep),
		rpc.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
}

// hasErr reports whether an RPC "err" field carries an execution error.
func hasErr(v any) bool {
	return v != nil
}

func statusFailed(s *rpc.SignatureStatus) bool {
	return s != nil && hasErr(s.Err)
}

// statusReached reports whether s satisfies the wanted commitment.
func statusReached(s *rpc.SignatureStatus, commitment string) bool {
	if s == nil || s.ConfirmationStatus == nil {
		return false
	}
	return commitmentRank(string(*s.ConfirmationStatus)) >= commitmentRank(commitment)
}

func commitmentRank(c string) int {
	switch strings.ToLower(strings.TrimSpace(c)) {
	case "processed":
		return 1
	case "confirmed":
		return 2
	case "finalized":
		return 3
	default:
		return 0
	}
}

// readCommitment maps the configured commitment to one accepted by
// history reads, which reject "processed".
func readCommitment(c string) rpc.Commitment {
	if commitmentRank(c) >= 3 {
		return rpc.CommitmentFinalized
	}
	return rpc.CommitmentConfirmed
}
