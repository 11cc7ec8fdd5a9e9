// Package pricing implements the pricing bounded context: the native coin
// price in the quote currency.
package pricing

import (
	"context"

	"github.com/fd1az/sam-client/business/pricing/app"
	pricingDI "github.com/fd1az/sam-client/business/pricing/di"
	"github.com/fd1az/sam-client/business/pricing/infra/httpfeed"
	"github.com/fd1az/sam-client/business/pricing/infra/wsfeed"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/di"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceFeed (private - internal dependency)
	di.RegisterToken(c, pricingDI.PriceFeed, func(sr di.ServiceRegistry) app.PriceFeed {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		assets := sr.Get(monolith.ServiceAssets).(asset.Set)

		feed, err := NewFeed(cfg.Pricing, assets, log)
		if err != nil {
			panic("failed to create price feed: " + err.Error())
		}
		return feed
	})

	// Register PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		var feed app.PriceFeed
		if cfg.Pricing.Source != "none" {
			feed = pricingDI.GetPriceFeed(sr)
		}
		return app.NewPricingService(feed, cfg.Pricing.StaleTimeout, log)
	})

	return nil
}

// NewFeed builds the feed selected by cfg.Source.
func NewFeed(cfg config.PricingConfig, assets asset.Set, log logger.LoggerInterface) (app.PriceFeed, error) {
	switch cfg.Source {
	case "websocket":
		return wsfeed.New(wsfeed.Config{
			URL:               cfg.WebSocketURL,
			RESTURL:           cfg.RESTURL,
			Symbol:            cfg.Symbol,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}, assets.Native, assets.Quote, log)
	default:
		return httpfeed.New(httpfeed.Config{
			BaseURL:           cfg.HTTPURL,
			CoinID:            cfg.CoinID,
			VsCurrency:        cfg.VsCurrency,
			PollInterval:      cfg.PollInterval,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}, assets.Native, assets.Quote, log)
	}
}

// Startup starts the price feed. A feed that cannot connect keeps retrying
// in the background and never fails startup.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := pricingDI.GetPricingService(mono.Services())
	if err := svc.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "pricing module started", "source", mono.Config().Pricing.Source)
	return nil
}

// Shutdown stops the price feed.
func (m *Module) Shutdown(ctx context.Context, mono monolith.Monolith) error {
	pricingDI.GetPricingService(mono.Services()).Stop()
	mono.Logger().Info(ctx, "pricing module stopped")
	return nil
}
