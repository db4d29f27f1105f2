// backend/internal/adapters/out/gcs/token_metadata_publisher.go
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

const tokenMetadataPrefix = "solusd"

// TokenMetadata is the public JSON document describing the mint.
type TokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Mint        string `json:"mint"`
	Signature   string `json:"signature"`
	Cluster     string `json:"cluster"`
	ExplorerURL string `json:"explorerUrl"`
	CreatedAt   string `json:"createdAt"`
}

// TokenMetadataPublisherGCS writes solusd/<mint>.json into Bucket once the mint exists.
type TokenMetadataPublisherGCS struct {
	Client  *storage.Client
	Bucket  string
	Cluster string
}

func NewTokenMetadataPublisherGCS(client *storage.Client, bucket, cluster string) *TokenMetadataPublisherGCS {
	return &TokenMetadataPublisherGCS{
		Client:  client,
		Bucket:  strings.TrimSpace(bucket),
		Cluster: strings.TrimSpace(cluster),
	}
}

func MetadataObjectPath(mint sc.MintID) string {
	return fmt.Sprintf("%s/%s.json", tokenMetadataPrefix, strings.TrimSpace(mint.String()))
}

// PublicURL is the storage.googleapis.com URL of the metadata object.
func (p *TokenMetadataPublisherGCS) PublicURL(mint sc.MintID) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", p.Bucket, MetadataObjectPath(mint))
}

func BuildTokenMetadata(ev uc.MintCreated, cluster string) TokenMetadata {
	return TokenMetadata{
		Name:        ev.Name,
		Symbol:      ev.Symbol,
		Decimals:    ev.Decimals,
		Mint:        ev.Mint.String(),
		Signature:   ev.Signature,
		Cluster:     cluster,
		ExplorerURL: sc.ExplorerTxURL(ev.Signature, cluster),
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (p *TokenMetadataPublisherGCS) PublishMint(ctx context.Context, ev uc.MintCreated) error {
	if p == nil || p.Client == nil {
		return errors.New("gcs client is nil")
	}
	if p.Bucket == "" {
		return errors.New("token metadata bucket is empty")
	}
	if ev.Mint.IsZero() {
		return errors.New("token metadata: empty mint")
	}

	body, err := json.MarshalIndent(BuildTokenMetadata(ev, p.Cluster), "", "  ")
	if err != nil {
		return err
	}

	obj := p.Client.Bucket(p.Bucket).Object(MetadataObjectPath(ev.Mint))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=300"
	w.Metadata = map[string]string{
		"mint":   ev.Mint.String(),
		"symbol": ev.Symbol,
	}

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("token metadata: write %s: %w", obj.ObjectName(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("token metadata: close %s: %w", obj.ObjectName(), err)
	}
	return nil
}

// FetchMetadata reads back a previously published document.
func (p *TokenMetadataPublisherGCS) FetchMetadata(ctx context.Context, mint sc.MintID) (*TokenMetadata, error) {
	r, err := p.Client.Bucket(p.Bucket).Object(MetadataObjectPath(mint)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var md TokenMetadata
	if err := json.NewDecoder(r).Decode(&md); err != nil {
		return nil, fmt.Errorf("token metadata: decode: %w", err)
	}
	return &md, nil
}
