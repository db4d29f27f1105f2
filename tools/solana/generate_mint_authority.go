// generate_mint_authority.go
//
// Generates the SOLUSD mint authority keypair:
//   - prints the base58 public key (the mint authority address)
//   - writes the secret key as a Solana CLI compatible JSON array
//
// Usage:
//
//	go run ./tools/solana -out solusd-mint-authority.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	solanainfra "solusd/internal/infra/solana"
)

func main() {
	out := flag.String("out", "solusd-mint-authority.json", "keypair file to write")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if _, err := os.Stat(*out); err == nil && !*force {
		log.Fatalf("%s already exists (use -force to overwrite)", *out)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("stat %s: %v", *out, err)
	}

	acc := types.NewAccount()
	data, err := solanainfra.EncodeKeypairJSON(acc)
	if err != nil {
		log.Fatalf("failed to encode keypair: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", *out, err)
	}

	fmt.Println("============================================")
	fmt.Println("SOLUSD mint authority generated")
	fmt.Println("============================================")
	fmt.Printf("Public key:\n  %s\n\n", base58.Encode(acc.PublicKey.Bytes()))
	fmt.Printf("Keypair file (Solana CLI JSON):\n  %s\n\n", *out)
	fmt.Println("Next steps:")
	fmt.Println("  - never commit this file")
	fmt.Println("  - local runs:  SOLANA_MINT_KEY_FILE=" + *out)
	fmt.Println("  - Cloud Run:   store it in Secret Manager and set SOLANA_MINT_KEY_SECRET")
	fmt.Println("  - fund it on devnet:  solusdctl airdrop <public key> 2")
}
