package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/sam-client/business/chain"
	chainDI "github.com/fd1az/sam-client/business/chain/di"
	"github.com/fd1az/sam-client/business/chain/domain"
	pricingDI "github.com/fd1az/sam-client/business/pricing/di"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/health"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/monolith"
	"github.com/fd1az/sam-client/pkg/ui"
)

// statusInterval paces price, pending and health updates.
const statusInterval = time.Second

// sink receives what the watch loop observes.
type sink interface {
	State(domain.State)
	Price(asset.Price)
	Pending(kind string)
	Status(name string, ok bool, detail string)
}

// watchLoop forwards snapshots, prices and upstream health to s until ctx
// is done.
func watchLoop(ctx context.Context, mono monolith.Monolith, s sink) {
	sr := mono.Services()
	client := chainDI.GetChainClient(sr)
	prices := pricingDI.GetPricingService(sr)
	chainCheck := chain.HealthCheck(client, mono.Config().Sync.RefreshInterval)

	states, unsubscribe := client.Subscribe()
	defer unsubscribe()
	s.State(client.State())

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	var (
		lastPrice   time.Time
		lastPending string
	)
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			s.State(st)
		case <-ticker.C:
			if p, ok := prices.Latest(); ok && p.Timestamp().After(lastPrice) {
				lastPrice = p.Timestamp()
				s.Price(p)
			}
			if kind := pendingKind(client.Pending()); kind != lastPending {
				lastPending = kind
				s.Pending(kind)
			}
			ok, detail := chainCheck(ctx)
			s.Status("Chain", ok, detail)
			ok, detail = prices.Check(ctx)
			s.Status("Price", ok, detail)
		}
	}
}

func pendingKind(intent *domain.TransactionIntent) string {
	if intent == nil || intent.Status != domain.StatusPending {
		return ""
	}
	return string(intent.Kind)
}

// startHealth serves /health with chain and price checks when enabled.
func startHealth(ctx context.Context, mono monolith.Monolith) func() {
	cfg := mono.Config()
	log := mono.Logger()
	if !cfg.Health.Enabled {
		return func() {}
	}

	sr := mono.Services()
	srv := health.NewServer(cfg.Health.Port, version)
	srv.RegisterCheck("chain", chain.HealthCheck(chainDI.GetChainClient(sr), cfg.Sync.RefreshInterval))
	srv.RegisterCheck("pricing", pricingDI.GetPricingService(sr).Check)
	if err := srv.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
		return func() {}
	}
	log.Info(ctx, "health server started", "port", cfg.Health.Port)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Stop(stopCtx)
	}
}

// logSink writes watch updates to the logger.
type logSink struct {
	ctx context.Context
	log logger.LoggerInterface
}

func (l logSink) State(s domain.State) {
	if s.UpdatedAt.IsZero() {
		return
	}
	args := []any{
		"native_reserve", s.Pool.NativeReserve.String(),
		"token_reserve", s.Pool.TokenReserve.String(),
		"global_bonus", s.Pool.GlobalLiquidityBonus.StringFixed(2),
		"bonds", len(s.Bonds),
		"loading", s.Loading,
	}
	if s.Account.Connected() {
		args = append(args,
			"address", s.Account.Address.Hex(),
			"native_balance", s.Account.NativeBalance.String(),
			"token_balance", s.Account.TokenBalance.String(),
		)
	}
	l.log.Info(l.ctx, "state updated", args...)
}

func (l logSink) Price(p asset.Price) {
	l.log.Info(l.ctx, "price updated", "pair", p.Pair(), "rate", p.Rate().String())
}

func (l logSink) Pending(kind string) {
	if kind == "" {
		l.log.Info(l.ctx, "no transaction pending")
		return
	}
	l.log.Info(l.ctx, "transaction pending", "kind", kind)
}

func (l logSink) Status(name string, ok bool, detail string) {
	if !ok {
		l.log.Warn(l.ctx, "upstream unhealthy", "name", name, "detail", detail)
	}
}

// uiSink forwards watch updates to the dashboard.
type uiSink struct{}

func (uiSink) State(s domain.State) { ui.Send(ui.StateMsg{State: s}) }
func (uiSink) Price(p asset.Price)  { ui.Send(ui.PriceMsg{Price: p}) }
func (uiSink) Pending(kind string)  { ui.Send(ui.PendingMsg{Kind: kind}) }
func (uiSink) Status(name string, ok bool, detail string) {
	ui.Send(ui.ConnectionStatusMsg{Name: name, Connected: ok, Detail: detail})
}

func runCLI(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	stopHealth := startHealth(ctx, mono)
	defer stopHealth()

	log.Info(ctx, "all modules started, watching protocol state")
	watchLoop(ctx, mono, logSink{ctx: ctx, log: log})
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, mono monolith.Monolith, start func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}
	ui.OnRefresh = func() {
		chainDI.GetChainClient(mono.Services()).Refresh(ctx)
	}

	// Create and start the TUI program immediately (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		for _, step := range []string{"pricing", "referral", "chain"} {
			ui.Send(ui.StartupMsg{Step: step, Status: "connecting"})
		}

		if err := start(); err != nil {
			ui.Send(ui.StartupMsg{Step: "chain", Status: "failed"})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		for _, step := range []string{"pricing", "referral", "chain"} {
			ui.Send(ui.StartupMsg{Step: step, Status: "done"})
		}

		stopHealth := startHealth(ctx, mono)
		defer stopHealth()

		watchLoop(ctx, mono, uiSink{})
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	_, err := p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return <-errCh
}
