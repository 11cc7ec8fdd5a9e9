package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

const tracerName = "github.com/fd1az/sam-client/business/chain/app"

// ErrAlreadyStarted is returned by Start when the refresh loop is running.
var ErrAlreadyStarted = errors.New("synchronizer already started")

// SyncConfig configures the Synchronizer.
type SyncConfig struct {
	RefreshInterval time.Duration
	BondConcurrency int
}

// DefaultSyncConfig returns the defaults used by the protocol's web client.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		RefreshInterval: 3 * time.Minute,
		BondConcurrency: 4,
	}
}

// Synchronizer keeps the Store in line with the chain.
type Synchronizer struct {
	reader ChainReader
	store  *Store
	assets asset.Set
	cfg    SyncConfig
	logger logger.LoggerInterface
	tracer trace.Tracer

	address atomic.Pointer[common.Address]

	// globalMu and refreshMu serialize pool and user refreshes so results
	// land in call order.
	globalMu  sync.Mutex
	refreshMu sync.Mutex

	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(reader ChainReader, store *Store, assets asset.Set, cfg SyncConfig, log logger.LoggerInterface) *Synchronizer {
	if cfg.BondConcurrency <= 0 {
		cfg.BondConcurrency = 1
	}
	return &Synchronizer{
		reader: reader,
		store:  store,
		assets: assets,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// SetAddress changes the connected address. Nil disconnects.
func (s *Synchronizer) SetAddress(addr *common.Address) {
	if addr == nil || *addr == (common.Address{}) {
		s.address.Store(nil)
		return
	}
	a := *addr
	s.address.Store(&a)
}

// Address returns the connected address, if any.
func (s *Synchronizer) Address() (common.Address, bool) {
	p := s.address.Load()
	if p == nil {
		return common.Address{}, false
	}
	return *p, true
}

// Refresh reloads global state and then the user's state.
func (s *Synchronizer) Refresh(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "chain.refresh")
	defer span.End()

	s.RefreshGlobal(ctx)
	s.RefreshUser(ctx)
}

// RefreshGlobal reloads reserves and the global bonus. Failures are logged
// and leave the previous values in place.
func (s *Synchronizer) RefreshGlobal(ctx context.Context) {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "chain.refresh_global")
	defer span.End()

	var (
		g                     errgroup.Group
		native, token         asset.Amount
		bonus                 decimal.Decimal
		reservesErr, bonusErr error
	)

	g.Go(func() error {
		native, token, reservesErr = s.reader.TokenLiquidity(ctx)
		return nil
	})
	g.Go(func() error {
		bonus, bonusErr = s.reader.GlobalLiquidityBonus(ctx)
		return nil
	})
	_ = g.Wait()

	if reservesErr != nil {
		s.logger.Warn(ctx, "read token liquidity", "error", reservesErr)
	}
	if bonusErr != nil {
		s.logger.Warn(ctx, "read global liquidity bonus", "error", bonusErr)
	}
	if reservesErr != nil && bonusErr != nil {
		return
	}

	s.store.Update(func(st domain.State) domain.State {
		if reservesErr == nil {
			st.Pool.NativeReserve = native
			st.Pool.TokenReserve = token
		}
		if bonusErr == nil {
			st.Pool.GlobalLiquidityBonus = bonus
		}
		st.UpdatedAt = s.now()
		return st
	})
}

// RefreshUser reloads the connected account. Without an address the
// account is reset to empty and the position cleared.
func (s *Synchronizer) RefreshUser(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	addr, ok := s.Address()
	if !ok {
		s.store.Update(func(st domain.State) domain.State {
			st.Account = domain.EmptyAccount(s.assets)
			st.Position = nil
			st.Bonds = nil
			st.Loading = false
			st.UpdatedAt = s.now()
			return st
		})
		return
	}

	ctx, span := s.tracer.Start(ctx, "chain.refresh_user",
		trace.WithAttributes(attribute.String("address", addr.Hex())),
	)
	defer span.End()

	s.store.Update(func(st domain.State) domain.State {
		st.Loading = true
		return st
	})

	var (
		g                              errgroup.Group
		native, tokens, allowance      asset.Amount
		bonds                          []domain.Bond
		ui                             domain.UIData
		nativeErr, tokensErr, allowErr error
		bondsErr, uiErr                error
	)

	g.Go(func() error {
		native, nativeErr = s.reader.NativeBalance(ctx, addr)
		return nil
	})
	g.Go(func() error {
		tokens, tokensErr = s.reader.TokenBalance(ctx, addr)
		return nil
	})
	g.Go(func() error {
		allowance, allowErr = s.reader.TokenAllowance(ctx, addr)
		return nil
	})
	g.Go(func() error {
		bonds, bondsErr = s.fetchBonds(ctx, addr)
		return nil
	})
	g.Go(func() error {
		ui, uiErr = s.reader.UIData(ctx, addr)
		return nil
	})
	_ = g.Wait()

	for _, r := range []struct {
		what string
		err  error
	}{
		{"native balance", nativeErr},
		{"token balance", tokensErr},
		{"token allowance", allowErr},
		{"bonds", bondsErr},
		{"ui data", uiErr},
	} {
		if r.err != nil {
			s.logger.Warn(ctx, "read "+r.what, "address", addr.Hex(), "error", r.err)
		}
	}

	s.store.Update(func(st domain.State) domain.State {
		// Prior values only apply to the same account.
		prev := st.Account
		if prev.Address != addr {
			prev = domain.EmptyAccount(s.assets)
			st.Position = nil
			st.Bonds = nil
		}

		acc := domain.AccountSnapshot{
			Address:        addr,
			NativeBalance:  pick(native, prev.NativeBalance, nativeErr),
			TokenBalance:   pick(tokens, prev.TokenBalance, tokensErr),
			TokenAllowance: pick(allowance, prev.TokenAllowance, allowErr),
		}
		st.Account = acc

		if bondsErr == nil {
			st.Bonds = bonds
		}
		if uiErr == nil {
			pos := ui.Position
			st.Position = &pos
			st.BondActivations = ui.BondActivations
		}
		st.Loading = false
		st.UpdatedAt = s.now()
		return st
	})
}

// LoadOwner reads the protocol owner into the state.
func (s *Synchronizer) LoadOwner(ctx context.Context) {
	owner, err := s.reader.Owner(ctx)
	if err != nil {
		s.logger.Warn(ctx, "read protocol owner", "error", err)
		return
	}
	s.store.Update(func(st domain.State) domain.State {
		st.Owner = owner
		return st
	})
}

// fetchBonds reads the bond count, then every bond by index. The result is
// ordered by index regardless of completion order.
func (s *Synchronizer) fetchBonds(ctx context.Context, addr common.Address) ([]domain.Bond, error) {
	count, err := s.reader.BondsCount(ctx, addr)
	if err != nil {
		return nil, err
	}

	bonds := make([]domain.Bond, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BondConcurrency)

	for i := uint64(0); i < count; i++ {
		g.Go(func() error {
			b, err := s.reader.Bond(gctx, addr, i)
			if err != nil {
				return err
			}
			b.Index = i
			bonds[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bonds, nil
}

// Start loads the owner, refreshes once and then refreshes on every tick
// until Stop is called or ctx is done.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.LoadOwner(ctx)
	s.Refresh(ctx)

	go s.loop(ctx, s.done)

	s.logger.Info(ctx, "chain synchronizer started", "interval", s.cfg.RefreshInterval.String())
	return nil
}

func (s *Synchronizer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.cfg.RefreshInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Stop cancels the refresh loop and waits for it to exit.
func (s *Synchronizer) Stop() {
	s.loopMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func pick(v, prev asset.Amount, err error) asset.Amount {
	if err != nil {
		return prev
	}
	return v
}
