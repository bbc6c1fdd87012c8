// check-stream subscribes to the gateway's best bid/offer stream and
// prints a handful of updates. Useful for verifying the websocket
// endpoint independently of the quoting loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/uhyunpark/nadoquoter/params"
	"github.com/uhyunpark/nadoquoter/pkg/crypto"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
)

type streamRequest struct {
	Method string       `json:"method"`
	Stream streamParams `json:"stream"`
	ID     int          `json:"id"`
}

type streamParams struct {
	Type      string `json:"type"`
	ProductID uint32 `json:"product_id"`
}

func main() {
	count := flag.Int("n", 10, "number of updates to print before exiting")
	flag.Parse()

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
	fmt.Printf("product: %s (id=%d)\n", product.Symbol, product.ID)
	fmt.Printf("dialing %s\n", cfg.Gateway.WSURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.Gateway.WSURL, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", cfg.Gateway.WSURL, err)
	}
	defer conn.Close()

	sub, err := json.Marshal(streamRequest{
		Method: "subscribe",
		Stream: streamParams{Type: "best_bid_offer", ProductID: product.ID},
		ID:     1,
	})
	if err != nil {
		log.Fatalf("encode subscribe: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	for i := 0; i < *count; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		fmt.Printf("%s\n", msg)
	}
}
