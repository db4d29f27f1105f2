// backend/internal/infra/solana/wallet_authorizer.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sc "solusd/internal/domain/stablecoin"
	"solusd/internal/infra/logging"
)

// DefaultWalletSecretPrefix: secretId = prefix + walletAddress
const DefaultWalletSecretPrefix = "solana-wallet-"

// SecretManagerAuthorizer signs for a wallet with the keypair stored in the
// secret "<prefix><wallet>". The key is loaded per call and not kept.
type SecretManagerAuthorizer struct {
	Secrets   SecretReader
	ProjectID string
	Prefix    string
}

var _ sc.WalletAuthorizer = (*SecretManagerAuthorizer)(nil)

func NewSecretManagerAuthorizer(secrets SecretReader, projectID, prefix string) (*SecretManagerAuthorizer, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, errors.New("wallet authorizer: projectID is empty")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultWalletSecretPrefix
	}
	return &SecretManagerAuthorizer{Secrets: secrets, ProjectID: pid, Prefix: strings.TrimSpace(prefix)}, nil
}

func (a *SecretManagerAuthorizer) Sign(ctx context.Context, wallet string, message []byte) ([]byte, error) {
	if a == nil || a.Secrets == nil {
		return nil, fmt.Errorf("%w: secret manager authorizer not configured", sc.ErrUnauthorized)
	}
	w := strings.TrimSpace(wallet)
	name := fmt.Sprintf("projects/%s/secrets/%s%s/versions/latest", a.ProjectID, a.Prefix, w)

	raw, err := a.Secrets.ReadSecret(ctx, name)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: no key for wallet %s", sc.ErrUnauthorized, logging.MaskShort(w))
		}
		return nil, sc.Unavailable(err)
	}
	return signWithKeypair(raw, w, message)
}

// KeystoreAuthorizer signs with "<dir>/<wallet>.json" keypair files.
type KeystoreAuthorizer struct {
	Dir string
}

var _ sc.WalletAuthorizer = (*KeystoreAuthorizer)(nil)

func (a *KeystoreAuthorizer) Sign(_ context.Context, wallet string, message []byte) ([]byte, error) {
	if a == nil || strings.TrimSpace(a.Dir) == "" {
		return nil, fmt.Errorf("%w: keystore not configured", sc.ErrUnauthorized)
	}
	w, err := sc.ValidateWallet(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sc.ErrUnauthorized, err)
	}

	raw, err := os.ReadFile(filepath.Join(a.Dir, w+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no key for wallet %s", sc.ErrUnauthorized, logging.MaskShort(w))
		}
		return nil, fmt.Errorf("%w: read keystore: %v", sc.ErrUnauthorized, err)
	}
	return signWithKeypair(raw, w, message)
}

func signWithKeypair(raw []byte, wallet string, message []byte) ([]byte, error) {
	acc, err := accountFromKeypairJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sc.ErrUnauthorized, err)
	}
	if acc.PublicKey.ToBase58() != wallet {
		return nil, fmt.Errorf("%w: key does not belong to wallet %s", sc.ErrUnauthorized, logging.MaskShort(wallet))
	}
	return acc.Sign(message), nil
}

