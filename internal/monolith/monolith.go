// Package monolith wires shared infrastructure and runs the bounded-context
// modules against it.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/di"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/notify"
)

// Names of the shared services in the container.
const (
	ServiceConfig    = "config"
	ServiceLogger    = "logger"
	ServiceEthClient = "ethClient"
	ServiceAssets    = "assets"
	ServiceNotifier  = "notifier"
)

// Monolith is what modules see of the running application.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	Assets() asset.Set
	Notifier() *notify.Notifier
	Services() di.ServiceRegistry
}

// Module is a bounded context. RegisterServices only declares factories;
// nothing is built until Startup resolves it.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Stopper is implemented by modules that own background work.
type Stopper interface {
	Shutdown(context.Context, Monolith) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	ethClient *ethclient.Client
	assets    asset.Set
	notifier  *notify.Notifier
	container di.Container
}

// New dials the RPC endpoint, checks it serves the configured chain and
// registers the shared services.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, notifier *notify.Notifier) (*app, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err), apperror.WithContext(cfg.Chain.RPCURL))
	}

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err), apperror.WithContext("eth_chainId"))
	}
	if !chainID.IsUint64() || chainID.Uint64() != cfg.Chain.ChainID {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("rpc serves chain %s, configured %d", chainID, cfg.Chain.ChainID)))
	}

	a := &app{
		config:    cfg,
		logger:    log,
		ethClient: ethClient,
		assets:    asset.NewSet(cfg.Chain.ChainID, cfg.Contracts.TokenAddress()),
		notifier:  notifier,
		container: di.NewContainer(),
	}
	a.container.Register(ServiceConfig, a.config)
	a.container.Register(ServiceLogger, a.logger)
	a.container.Register(ServiceEthClient, a.ethClient)
	a.container.Register(ServiceAssets, a.assets)
	a.container.Register(ServiceNotifier, a.notifier)

	log.Debug(ctx, "connected to rpc", "chain_id", cfg.Chain.ChainID)
	return a, nil
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) EthClient() *ethclient.Client   { return a.ethClient }
func (a *app) Assets() asset.Set              { return a.assets }
func (a *app) Notifier() *notify.Notifier     { return a.notifier }
func (a *app) Services() di.ServiceRegistry   { return a.container }

// RegisterModules declares every module's services.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts modules in order and stops at the first failure.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
	}
	return nil
}

// StopModules stops modules in reverse start order. Every module is
// stopped even if an earlier one fails; the first error is returned.
func (a *app) StopModules(ctx context.Context, modules ...Module) error {
	var first error
	for i := len(modules) - 1; i >= 0; i-- {
		s, ok := modules[i].(Stopper)
		if !ok {
			continue
		}
		if err := s.Shutdown(ctx, a); err != nil {
			a.logger.Error(ctx, "module shutdown failed", "module", fmt.Sprintf("%T", modules[i]), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close releases the RPC connection.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
