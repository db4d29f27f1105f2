package gcs

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	uc "solusd/internal/application/usecase"
	sc "solusd/internal/domain/stablecoin"
)

func sampleEvent() uc.MintCreated {
	return uc.MintCreated{
		Mint:      "So1usdMint111",
		Signature: "3xSig",
		Decimals:  sc.Decimals,
		Symbol:    sc.Symbol,
		Name:      sc.Name,
		CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func TestBuildTokenMetadata(t *testing.T) {
	md := BuildTokenMetadata(sampleEvent(), "devnet")

	assert.Equal(t, "SOLUSD", md.Symbol)
	assert.Equal(t, uint8(6), md.Decimals)
	assert.Equal(t, "2026-02-03T04:05:06Z", md.CreatedAt)
	assert.Equal(t, "https://explorer.solana.com/tx/3xSig?cluster=devnet", md.ExplorerURL)
}

func TestMetadataPaths(t *testing.T) {
	p := NewTokenMetadataPublisherGCS(nil, " bucket ", "devnet")
	assert.Equal(t, "solusd/So1usdMint111.json", MetadataObjectPath("So1usdMint111"))
	assert.Equal(t, "https://storage.googleapis.com/bucket/solusd/So1usdMint111.json", p.PublicURL("So1usdMint111"))
}

func TestPublishMintRequiresClient(t *testing.T) {
	p := NewTokenMetadataPublisherGCS(nil, "bucket", "devnet")
	assert.Error(t, p.PublishMint(context.Background(), sampleEvent()))
}

// Runs against fake-gcs-server or similar when STORAGE_EMULATOR_HOST and
// SOLUSD_TEST_BUCKET are set.
func TestPublishMintEmulator(t *testing.T) {
	bucket := os.Getenv("SOLUSD_TEST_BUCKET")
	if os.Getenv("STORAGE_EMULATOR_HOST") == "" || bucket == "" {
		t.Skip("storage emulator not configured")
	}
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	p := NewTokenMetadataPublisherGCS(client, bucket, "devnet")
	require.NoError(t, p.PublishMint(ctx, sampleEvent()))

	md, err := p.FetchMetadata(ctx, "So1usdMint111")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "3xSig", md.Signature)

	missing, err := p.FetchMetadata(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
