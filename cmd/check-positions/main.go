// check-positions prints perp positions and open orders for the
// configured market, with notional value against the current mid.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

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
		SubaccountName:  cfg.SubaccountName,
		HTTPTimeout:     cfg.Gateway.HTTPTimeout,
		ResolveMaxTries: cfg.Gateway.ResolveMaxTries,
	}, signer)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	product, err := client.ResolveProduct(ctx, cfg.Trading.Symbol)
	if err != nil {
		log.Fatalf("resolve %s: %v", cfg.Trading.Symbol, err)
	}

	info, err := client.SubaccountInfo(ctx)
	if err != nil {
		log.Fatalf("subaccount info: %v", err)
	}
	position := info.PerpPosition(product.ID)

	mid := decimal.Zero
	if book, err := client.Orderbook(ctx, product.TickerID, 1); err == nil {
		bid, _ := book.BestBid()
		ask, _ := book.BestAsk()
		mid = bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
	}

	fmt.Printf("subaccount: %s\n", client.Subaccount().Hex())
	fmt.Printf("market:     %s (id=%d)\n", product.Symbol, product.ID)
	fmt.Printf("position:   %s\n", position)
	if !mid.IsZero() {
		fmt.Printf("mid price:  %s\n", mid)
		fmt.Printf("notional:   %s\n", position.Mul(mid))
	}

	orders, err := client.OpenOrders(ctx, product.ID)
	if err != nil {
		log.Fatalf("open orders: %v", err)
	}
	if len(orders) == 0 {
		fmt.Println("\nno open orders")
		return
	}
	fmt.Printf("\nopen orders (%d):\n", len(orders))
	for _, o := range orders {
		side := "buy"
		if o.Amount.IsNegative() {
			side = "sell"
		}
		fmt.Printf("  %-4s %12s  x %-12s %s\n", side, o.Price, o.Amount.Abs(), o.Digest)
	}
}
