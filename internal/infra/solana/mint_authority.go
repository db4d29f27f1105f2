// backend/internal/infra/solana/mint_authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrSecretNotFound = errors.New("solana: secret not found")

// Mint authority key sources.
const (
	KeySourceFile      = "file"
	KeySourceSecret    = "secretmanager"
	KeySourceEphemeral = "ephemeral"
)

// MintAuthority is the keypair that pays fees and signs mint-to.
type MintAuthority struct {
	Account types.Account
	Source  string
}

func (a *MintAuthority) Address() string {
	if a == nil {
		return ""
	}
	return a.Account.PublicKey.ToBase58()
}

// SecretReader reads the payload of a Secret Manager secret version.
type SecretReader interface {
	ReadSecret(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerReader is the SecretReader backed by GCP Secret Manager.
type SecretManagerReader struct {
	Client *secretmanager.Client
}

func NewSecretManagerReader(ctx context.Context) (*SecretManagerReader, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &SecretManagerReader{Client: c}, nil
}

func (r *SecretManagerReader) ReadSecret(ctx context.Context, name string) ([]byte, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("secret manager reader: not configured")
	}
	res, err := r.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}
	if res == nil || res.Payload == nil || len(res.Payload.Data) == 0 {
		return nil, fmt.Errorf("%w: %s (empty payload)", ErrSecretNotFound, name)
	}
	return res.Payload.Data, nil
}

func (r *SecretManagerReader) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// MintAuthoritySource selects where the mint authority comes from.
type MintAuthoritySource struct {
	KeyFile    string // Solana CLI keypair JSON
	SecretName string // projects/<p>/secrets/<s>/versions/<v>
	Secrets    SecretReader
}

// LoadMintAuthority resolves the key from the file, then the secret, and
// finally generates an ephemeral keypair. An ephemeral authority cannot mint
// again to a mint created by a previous process.
func LoadMintAuthority(ctx context.Context, src MintAuthoritySource, logger *zap.Logger) (*MintAuthority, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path := strings.TrimSpace(src.KeyFile); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mint key file: %w", err)
		}
		acc, err := accountFromKeypairJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("mint key file %s: %w", path, err)
		}
		logger.Info("loaded mint authority", zap.String("source", KeySourceFile), zap.String("pubkey", acc.PublicKey.ToBase58()))
		return &MintAuthority{Account: acc, Source: KeySourceFile}, nil
	}

	if name := strings.TrimSpace(src.SecretName); name != "" {
		if src.Secrets == nil {
			return nil, errors.New("mint authority: SOLANA_MINT_KEY_SECRET set but no secret reader")
		}
		raw, err := src.Secrets.ReadSecret(ctx, name)
		if err != nil {
			return nil, err
		}
		acc, err := accountFromKeypairJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("mint key secret: %w", err)
		}
		logger.Info("loaded mint authority", zap.String("source", KeySourceSecret), zap.String("pubkey", acc.PublicKey.ToBase58()))
		return &MintAuthority{Account: acc, Source: KeySourceSecret}, nil
	}

	acc := types.NewAccount()
	logger.Warn("no mint authority configured, generated an ephemeral keypair",
		zap.String("pubkey", acc.PublicKey.ToBase58()),
	)
	return &MintAuthority{Account: acc, Source: KeySourceEphemeral}, nil
}

func accountFromKeypairJSON(data []byte) (types.Account, error) {
	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("AccountFromBytes: %w", err)
	}
	return acc, nil
}

// decodeKeypairJSON restores the 64-byte key from a solana-keygen keypair
// file ([u8;64] as a JSON int array).
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}

// EncodeKeypairJSON is the inverse of decodeKeypairJSON.
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
