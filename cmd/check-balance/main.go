// check-balance prints the signer identity and the subaccount's spot
// balances.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uhyunpark/nadoquoter/params"
	"github.com/uhyunpark/nadoquoter/pkg/crypto"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

func main() {
	cfg := params.LoadFromEnv("")
	if cfg.PrivateKey == "" {
		log.Fatal("NADO_PRIVATE_KEY not set")
	}

	signer, err := crypto.FromPrivateKeyHex(cfg.PrivateKey)
	if err != nil {
		log.Fatalf("bad private key: %v", err)
	}

	client, err := nado.NewClient(nado.Options{
		V1URL:          cfg.Gateway.V1URL,
		V2URL:          cfg.Gateway.V2URL,
		SubaccountName: cfg.SubaccountName,
		HTTPTimeout:    cfg.Gateway.HTTPTimeout,
	}, signer)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	addr := signer.Address()
	fmt.Printf("owner:      %s\n", crypto.EIP55(addr[:]))
	fmt.Printf("subaccount: %s (name=%q)\n", client.Subaccount().Hex(), cfg.SubaccountName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := client.SubaccountInfo(ctx)
	if err != nil {
		log.Fatalf("subaccount info: %v", err)
	}

	if len(info.SpotBalances) == 0 {
		fmt.Println("\nno spot balances")
		return
	}
	fmt.Println("\nspot balances:")
	for _, b := range info.SpotBalances {
		fmt.Printf("  product %3d: %s\n", b.ProductID, b.Amount)
	}
}
