package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/logger"
)

// ChainClient is the entry point used by the CLI and the dashboard.
type ChainClient struct {
	store   *Store
	sync    *Synchronizer
	submit  *Submitter
	views   *Views
	reader  ChainReader
	uplines UplineSource
	assets  asset.Set
	logger  logger.LoggerInterface
}

// ClientConfig configures a ChainClient.
type ClientConfig struct {
	Sync   SyncConfig
	Submit SubmitConfig
}

// Deps groups the collaborators of a ChainClient.
type Deps struct {
	Reader   ChainReader
	Builder  CallBuilder
	Sender   TxSender
	Decoder  ErrorDecoder
	Notifier Notifier
	Prices   PriceSource  // optional
	Uplines  UplineSource // optional

	// Address is the watched account when the sender cannot sign.
	Address *common.Address
}

// NewChainClient wires the store, synchronizer, submitter and views.
func NewChainClient(deps Deps, assets asset.Set, cfg ClientConfig, log logger.LoggerInterface) *ChainClient {
	store := NewStore(domain.NewState(assets))
	sync := NewSynchronizer(deps.Reader, store, assets, cfg.Sync, log)
	submit := NewSubmitter(deps.Builder, deps.Sender, deps.Decoder, deps.Notifier, sync, assets, cfg.Submit, log)

	c := &ChainClient{
		store:   store,
		sync:    sync,
		submit:  submit,
		views:   NewViews(store, deps.Prices),
		reader:  deps.Reader,
		uplines: deps.Uplines,
		assets:  assets,
		logger:  log,
	}

	if from, err := deps.Sender.From(); err == nil {
		sync.SetAddress(&from)
	} else if deps.Address != nil {
		sync.SetAddress(deps.Address)
	}
	return c
}

// Start begins periodic synchronization.
func (c *ChainClient) Start(ctx context.Context) error { return c.sync.Start(ctx) }

// Stop ends periodic synchronization.
func (c *ChainClient) Stop() { c.sync.Stop() }

// SetAddress changes the connected address and refreshes.
func (c *ChainClient) SetAddress(ctx context.Context, addr *common.Address) {
	c.sync.SetAddress(addr)
	c.sync.RefreshUser(ctx)
}

// Address returns the connected address.
func (c *ChainClient) Address() (common.Address, bool) { return c.sync.Address() }

// Refresh reloads everything now.
func (c *ChainClient) Refresh(ctx context.Context) { c.sync.Refresh(ctx) }

// State returns the current snapshot.
func (c *ChainClient) State() domain.State { return c.store.Load() }

// Subscribe streams state changes.
func (c *ChainClient) Subscribe() (<-chan domain.State, func()) { return c.store.Subscribe() }

// Pending returns the in-flight intent, or nil.
func (c *ChainClient) Pending() *domain.TransactionIntent { return c.submit.Intent() }

// Assets returns the asset set of this deployment.
func (c *ChainClient) Assets() asset.Set { return c.assets }

// Buy bonds nativeAmount. A nil upline falls back to the stored referral
// and then to the protocol owner.
func (c *ChainClient) Buy(ctx context.Context, upline *common.Address, bondType uint8, nativeAmount decimal.Decimal) (*domain.Receipt, error) {
	resolved, err := c.resolveUpline(ctx, upline)
	if err != nil {
		return nil, c.submit.reject(ctx, domain.TxBuy, err)
	}
	return c.submit.Buy(ctx, resolved, bondType, nativeAmount)
}

// Withdraw closes the bond at bondIndex.
func (c *ChainClient) Withdraw(ctx context.Context, bondIndex uint64) (*domain.Receipt, error) {
	return c.submit.Withdraw(ctx, bondIndex)
}

// Stake adds nativeAmount to the bond at bondIndex.
func (c *ChainClient) Stake(ctx context.Context, bondIndex uint64, nativeAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.Stake(ctx, bondIndex, nativeAmount)
}

// Rebond reinvests tokenAmount of available tokens.
func (c *ChainClient) Rebond(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.Rebond(ctx, tokenAmount)
}

// Claim pays out tokenAmount of available tokens.
func (c *ChainClient) Claim(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.Claim(ctx, tokenAmount)
}

// Approve lets the protocol spend MaxApproveTokens of the token.
func (c *ChainClient) Approve(ctx context.Context) (*domain.Receipt, error) {
	return c.submit.Approve(ctx)
}

// Sell sells tokenAmount back to the protocol pool.
func (c *ChainClient) Sell(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.Sell(ctx, tokenAmount)
}

// SellOnExternalMarket swaps tokenAmount for native coin through the router.
func (c *ChainClient) SellOnExternalMarket(ctx context.Context, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.SellOnExternalMarket(ctx, tokenAmount)
}

// InfluencerBond gives user a free bond. Owner only.
func (c *ChainClient) InfluencerBond(ctx context.Context, user common.Address, tokenAmount decimal.Decimal) (*domain.Receipt, error) {
	return c.submit.InfluencerBond(ctx, user, tokenAmount)
}

// ValueInQuoteCurrency converts a token amount with the price feed.
func (c *ChainClient) ValueInQuoteCurrency(amount decimal.Decimal) string {
	return c.views.ValueInQuoteCurrency(amount)
}

// ValueInReserveCurrency converts a token amount through the pool reserves.
func (c *ChainClient) ValueInReserveCurrency(amount decimal.Decimal) string {
	return c.views.ValueInReserveCurrency(amount)
}

// QuoteTokens returns the tokens a bond of nativeAmount would buy.
func (c *ChainClient) QuoteTokens(ctx context.Context, nativeAmount decimal.Decimal) (asset.Amount, error) {
	amt, err := asset.ParseDecimal(c.assets.Native, nativeAmount)
	if err != nil {
		return asset.Zero(c.assets.Token), apperror.Validation(apperror.CodeInvalidAmount, err.Error())
	}
	out, err := c.reader.TokensAmount(ctx, amt)
	if err != nil {
		return asset.Zero(c.assets.Token), err
	}
	return out, nil
}

// TokenBalanceOf reads the token balance of any address.
func (c *ChainClient) TokenBalanceOf(ctx context.Context, addr common.Address) (asset.Amount, error) {
	out, err := c.reader.TokenBalance(ctx, addr)
	if err != nil {
		return asset.Zero(c.assets.Token), err
	}
	return out, nil
}

// resolveUpline picks the explicit upline, then the stored referral, then
// the protocol owner. No upline at all is a validation error.
func (c *ChainClient) resolveUpline(ctx context.Context, upline *common.Address) (common.Address, error) {
	if upline != nil && *upline != (common.Address{}) {
		return *upline, nil
	}
	if c.uplines != nil {
		if ref, ok := c.uplines.Referral(ctx); ok {
			return ref, nil
		}
	}
	if owner := c.store.Load().Owner; owner != (common.Address{}) {
		return owner, nil
	}
	owner, err := c.reader.Owner(ctx)
	if err != nil {
		c.logger.Warn(ctx, "resolve default upline", "error", err)
		return common.Address{}, apperror.New(apperror.CodeInvalidAddress,
			apperror.WithKind(apperror.KindValidation),
			apperror.WithContext("no upline available"),
			apperror.WithCause(err))
	}
	if owner == (common.Address{}) {
		return common.Address{}, apperror.Validation(apperror.CodeInvalidAddress, "no upline available")
	}
	return owner, nil
}
