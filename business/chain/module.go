// Package chain implements the chain bounded context: protocol state
// synchronization and transaction submission.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/sam-client/business/chain/app"
	chainDI "github.com/fd1az/sam-client/business/chain/di"
	"github.com/fd1az/sam-client/business/chain/infra/ethereum"
	"github.com/fd1az/sam-client/business/chain/infra/notifier"
	pricingDI "github.com/fd1az/sam-client/business/pricing/di"
	referralDI "github.com/fd1az/sam-client/business/referral/di"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/di"
	"github.com/fd1az/sam-client/internal/keyfile"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/monolith"
	"github.com/fd1az/sam-client/internal/notify"
)

// Module implements the chain bounded context.
type Module struct {
	// Sync disables the periodic refresh loop when false; one-shot
	// commands refresh on demand instead.
	Sync bool
}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ABIs (private - internal dependency)
	di.RegisterToken(c, chainDI.ABIs, func(sr di.ServiceRegistry) ethereum.ABIs {
		abis, err := ethereum.ParseABIs()
		if err != nil {
			panic("failed to parse contract ABIs: " + err.Error())
		}
		return abis
	})

	// Register Wallet (public - the session account)
	di.RegisterToken(c, chainDI.Wallet, func(sr di.ServiceRegistry) *ethereum.Wallet {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		src := keyfile.Source{
			PrivateKey: cfg.Wallet.PrivateKey,
			Path:       cfg.Wallet.KeyFile,
			Passphrase: cfg.Wallet.Passphrase,
		}
		wallet, err := ethereum.LoadWallet(src, common.HexToAddress(cfg.Wallet.Address), new(big.Int).SetUint64(cfg.Chain.ChainID))
		if err != nil {
			panic("failed to load wallet: " + err.Error())
		}
		return wallet
	})

	// Register Reader (private - internal dependency)
	di.RegisterToken(c, chainDI.Reader, func(sr di.ServiceRegistry) *ethereum.Reader {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		client := sr.Get(monolith.ServiceEthClient).(*ethclient.Client)
		assets := sr.Get(monolith.ServiceAssets).(asset.Set)

		reader, err := ethereum.NewReader(client, chainDI.GetABIs(sr), assets, ethereum.ReaderConfig{
			Token:          cfg.Contracts.TokenAddress(),
			Protocol:       cfg.Contracts.ProtocolAddress(),
			CallTimeout:    cfg.Chain.CallTimeout,
			RequestsPerSec: cfg.Chain.RequestsPerSec,
			Burst:          cfg.Chain.Burst,
			QuoteCacheTTL:  cfg.Sync.QuoteCacheTTL,
		}, log)
		if err != nil {
			panic("failed to create chain reader: " + err.Error())
		}
		return reader
	})

	// Register Transactor (private - internal dependency)
	di.RegisterToken(c, chainDI.Transactor, func(sr di.ServiceRegistry) *ethereum.Transactor {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		client := sr.Get(monolith.ServiceEthClient).(*ethclient.Client)

		txCfg := ethereum.DefaultTransactorConfig(new(big.Int).SetUint64(cfg.Chain.ChainID))
		txCfg.Confirmations = cfg.Chain.Confirmations
		txCfg.ConfirmTimeout = cfg.Chain.ConfirmTimeout
		txCfg.PollInterval = cfg.Chain.PollInterval
		txCfg.GasLimitBuffer = cfg.Chain.GasLimitBuffer

		tx, err := ethereum.NewTransactor(client, chainDI.GetWallet(sr), txCfg, log)
		if err != nil {
			panic("failed to create transactor: " + err.Error())
		}
		return tx
	})

	// Register ChainClient (public - exposed to other modules)
	di.RegisterToken(c, chainDI.ChainClient, func(sr di.ServiceRegistry) *app.ChainClient {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		assets := sr.Get(monolith.ServiceAssets).(asset.Set)
		fanout := sr.Get(monolith.ServiceNotifier).(*notify.Notifier)

		deps := app.Deps{
			Reader: chainDI.GetReader(sr),
			Builder: ethereum.NewBuilder(chainDI.GetABIs(sr), ethereum.Addresses{
				Token:         cfg.Contracts.TokenAddress(),
				Protocol:      cfg.Contracts.ProtocolAddress(),
				Router:        cfg.Contracts.RouterAddress(),
				WrappedNative: cfg.Contracts.WrappedNativeAddress(),
			}),
			Sender:   chainDI.GetTransactor(sr),
			Decoder:  ethereum.RevertDecoder{},
			Notifier: notifier.New(fanout),
			Prices:   pricingDI.GetPricingService(sr),
			Uplines:  referralDI.GetReferralService(sr),
		}
		if addr := chainDI.GetWallet(sr).Address(); addr != (common.Address{}) {
			deps.Address = &addr
		}

		return app.NewChainClient(deps, assets, app.ClientConfig{
			Sync: app.SyncConfig{
				RefreshInterval: cfg.Sync.RefreshInterval,
				BondConcurrency: cfg.Sync.BondFetchConcurrency,
			},
			Submit: app.SubmitConfig{ExplorerURL: cfg.Chain.ExplorerURL},
		}, log)
	})

	return nil
}

// Startup loads the owner and the first snapshot, then starts periodic
// refresh when Sync is set.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	client := chainDI.GetChainClient(mono.Services())
	wallet := chainDI.GetWallet(mono.Services())

	if m.Sync {
		if err := client.Start(ctx); err != nil {
			return fmt.Errorf("start synchronizer: %w", err)
		}
	} else {
		client.Refresh(ctx)
	}

	log.Info(ctx, "chain module started",
		"address", wallet.Address().Hex(),
		"can_sign", wallet.CanSign(),
		"periodic_sync", m.Sync,
	)
	return nil
}

// Shutdown stops the synchronizer and releases caches.
func (m *Module) Shutdown(ctx context.Context, mono monolith.Monolith) error {
	chainDI.GetChainClient(mono.Services()).Stop()
	chainDI.GetReader(mono.Services()).Close()
	chainDI.GetTransactor(mono.Services()).Close()

	mono.Logger().Info(ctx, "chain module stopped")
	return nil
}

// HealthCheck reports whether the snapshot was refreshed within two intervals.
func HealthCheck(client *app.ChainClient, interval time.Duration) func(context.Context) (bool, string) {
	return func(context.Context) (bool, string) {
		updated := client.State().UpdatedAt
		if updated.IsZero() {
			return false, "no snapshot yet"
		}
		age := time.Since(updated).Round(time.Second)
		if age > 2*interval {
			return false, fmt.Sprintf("snapshot %s old", age)
		}
		return true, fmt.Sprintf("snapshot %s old", age)
	}
}
