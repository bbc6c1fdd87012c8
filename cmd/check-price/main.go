// check-price prints the top of book for the configured market.
// Useful for verifying gateway connectivity before starting the quoter.
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
		V1URL:           cfg.Gateway.V1URL,
		V2URL:           cfg.Gateway.V2URL,
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
	fmt.Printf("product: %s (id=%d, ticker=%s)\n", product.Symbol, product.ID, product.TickerID)

	book, err := client.Orderbook(ctx, product.TickerID, 5)
	if err != nil {
		log.Fatalf("orderbook: %v", err)
	}

	fmt.Println("\nasks:")
	for i := len(book.Asks) - 1; i >= 0; i-- {
		fmt.Printf("  %12s  x %s\n", book.Asks[i].Price, book.Asks[i].Size)
	}
	fmt.Println("bids:")
	for _, lvl := range book.Bids {
		fmt.Printf("  %12s  x %s\n", lvl.Price, lvl.Size)
	}

	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	mid := bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2))
	spread := ask.Price.Sub(bid.Price)
	fmt.Printf("\nbest bid: %s\nbest ask: %s\nmid:      %s\nspread:   %s\n",
		bid.Price, ask.Price, mid, spread)
}
