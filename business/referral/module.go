// Package referral implements the referral bounded context: the upline
// captured from a referral link and reused for purchases.
package referral

import (
	"context"
	"io"
	"time"

	"github.com/fd1az/sam-client/business/referral/app"
	referralDI "github.com/fd1az/sam-client/business/referral/di"
	"github.com/fd1az/sam-client/business/referral/infra/filestore"
	"github.com/fd1az/sam-client/business/referral/infra/redisstore"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/di"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/monolith"
)

// Module implements the referral bounded context.
type Module struct{}

// RegisterServices registers all referral services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Store (private - internal dependency)
	di.RegisterToken(c, referralDI.Store, func(sr di.ServiceRegistry) app.Store {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		if cfg.Referral.Store == "redis" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			store, err := redisstore.New(ctx, redisstore.Config{
				Addr:     cfg.Referral.RedisAddr,
				Password: cfg.Referral.RedisPassword,
				DB:       cfg.Referral.RedisDB,
				Key:      cfg.Referral.RedisKey,
			})
			if err != nil {
				panic("failed to connect referral store: " + err.Error())
			}
			return store
		}
		return filestore.New(cfg.Referral.FilePath)
	})

	// Register ReferralService (public - exposed to other modules)
	di.RegisterToken(c, referralDI.ReferralService, func(sr di.ServiceRegistry) *app.Service {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewService(referralDI.GetStore(sr), log)
	})

	return nil
}

// Startup logs the stored upline, if any.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := referralDI.GetReferralService(mono.Services())
	if upline, ok := svc.Referral(ctx); ok {
		log.Info(ctx, "referral module started", "upline", upline.Hex())
		return nil
	}

	log.Info(ctx, "referral module started", "store", mono.Config().Referral.Store)
	return nil
}

// Shutdown closes the store connection when it holds one.
func (m *Module) Shutdown(ctx context.Context, mono monolith.Monolith) error {
	if c, ok := referralDI.GetStore(mono.Services()).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
