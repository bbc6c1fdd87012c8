package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uhyunpark/nadoquoter/params"
	"github.com/uhyunpark/nadoquoter/pkg/api"
	"github.com/uhyunpark/nadoquoter/pkg/bot"
	"github.com/uhyunpark/nadoquoter/pkg/crypto"
	"github.com/uhyunpark/nadoquoter/pkg/nado"
	"github.com/uhyunpark/nadoquoter/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	signer, err := crypto.FromPrivateKeyHex(cfg.PrivateKey)
	if err != nil {
		logger.Fatal("bad private key", zap.Error(err))
	}

	client, err := nado.NewClient(nado.Options{
		V1URL:             cfg.Gateway.V1URL,
		V2URL:             cfg.Gateway.V2URL,
		ChainID:           cfg.Gateway.ChainID,
		VerifyingContract: cfg.Gateway.VerifyingContract,
		SubaccountName:    cfg.SubaccountName,
		HTTPTimeout:       cfg.Gateway.HTTPTimeout,
		ExecutesPerSecond: cfg.Gateway.ExecutesPerSecond,
		ResolveMaxTries:   cfg.Gateway.ResolveMaxTries,
	}, signer)
	if err != nil {
		logger.Fatal("client init failed", zap.Error(err))
	}

	logger.Info("quoter starting",
		zap.String("symbol", cfg.Trading.Symbol),
		zap.String("subaccount", client.Subaccount().Hex()),
		zap.String("gateway", cfg.Gateway.V1URL),
		zap.Bool("inside_market", cfg.Trading.InsideMarket))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	quoter := bot.New(cfg, client, logger)

	if cfg.APIAddr != "" {
		product, err := client.ResolveProduct(ctx, cfg.Trading.Symbol)
		if err != nil {
			logger.Fatal("product lookup failed", zap.Error(err))
		}
		quoter.SetProduct(product)
		server := api.NewServer(api.Info{
			Symbol:     product.Symbol,
			TickerID:   product.TickerID,
			ProductID:  product.ID,
			Subaccount: client.Subaccount().Hex(),
		}, logger)
		quoter.SetReporter(server.Publish)
		go func() {
			if err := server.Start(cfg.APIAddr); err != nil {
				logger.Fatal("status server failed", zap.Error(err))
			}
		}()
	}

	if err := quoter.Run(ctx); err != nil {
		logger.Fatal("quoter stopped", zap.Error(err))
	}
	logger.Info("quoter shut down")
}

func buildLogger(cfg params.Config) (*zap.Logger, error) {
	if cfg.LogFile != "" {
		return util.NewLoggerWithFile(cfg.LogFile)
	}
	return util.NewLogger()
}
