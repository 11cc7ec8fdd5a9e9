package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/app"
	chainDI "github.com/fd1az/sam-client/business/chain/di"
	"github.com/fd1az/sam-client/business/chain/domain"
	pricingApp "github.com/fd1az/sam-client/business/pricing/app"
	pricingDI "github.com/fd1az/sam-client/business/pricing/di"
	referralDI "github.com/fd1az/sam-client/business/referral/di"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/keyfile"
	"github.com/fd1az/sam-client/internal/monolith"
)

var errUsage = errors.New("invalid usage")

// env is what one-shot commands operate on.
type env struct {
	client *app.ChainClient
	prices *pricingApp.PricingService
	out    io.Writer
}

type commandFunc func(ctx context.Context, e env, args []string) error

var commands = map[string]commandFunc{
	"status":          cmdStatus,
	"quote":           cmdQuote,
	"balance-of":      cmdBalanceOf,
	"value":           cmdValue,
	"buy":             cmdBuy,
	"withdraw":        cmdWithdraw,
	"stake":           cmdStake,
	"rebond":          tokenCommand((*app.ChainClient).Rebond),
	"claim":           tokenCommand((*app.ChainClient).Claim),
	"sell":            tokenCommand((*app.ChainClient).Sell),
	"sell-dex":        tokenCommand((*app.ChainClient).SellOnExternalMarket),
	"approve":         cmdApprove,
	"influencer-bond": cmdInfluencerBond,
}

func runCommand(ctx context.Context, mono monolith.Monolith, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
	sr := mono.Services()
	return cmd(ctx, env{
		client: chainDI.GetChainClient(sr),
		prices: pricingDI.GetPricingService(sr),
		out:    os.Stdout,
	}, args)
}

func cmdStatus(_ context.Context, e env, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	s := e.client.State()

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Native reserve\t%s\n", s.Pool.NativeReserve.StringFixed(4))
	fmt.Fprintf(tw, "Token reserve\t%s\n", s.Pool.TokenReserve.StringFixed(4))
	fmt.Fprintf(tw, "Global liquidity bonus\t%s%%\n", s.Pool.GlobalLiquidityBonus.StringFixed(2))
	fmt.Fprintf(tw, "Token price\t%s %s\n", e.client.ValueInReserveCurrency(decimal.NewFromInt(1)), e.client.Assets().Native.Symbol())
	if s.Owner != (common.Address{}) {
		fmt.Fprintf(tw, "Owner\t%s\n", s.Owner.Hex())
	}

	if !s.Account.Connected() {
		fmt.Fprintln(tw, "Account\tnot connected")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "Account\t%s\n", s.Account.Address.Hex())
	fmt.Fprintf(tw, "Native balance\t%s\n", s.Account.NativeBalance.StringFixed(4))
	fmt.Fprintf(tw, "Token balance\t%s\n", s.Account.TokenBalance.StringFixed(4))
	fmt.Fprintf(tw, "Allowance\t%s\n", s.Account.TokenAllowance.StringFixed(4))

	if p := s.Position; p != nil {
		fmt.Fprintf(tw, "Upline\t%s\n", p.Upline.Hex())
		fmt.Fprintf(tw, "Available\t%s\n", p.AvailableAmount.StringFixed(4))
		fmt.Fprintf(tw, "Total invested\t%s\n", p.TotalInvested.StringFixed(4))
		fmt.Fprintf(tw, "Total claimed\t%s\n", p.TotalClaimed.StringFixed(4))
		fmt.Fprintf(tw, "Hold bonus\t%s%%\n", p.HoldBonus.StringFixed(2))
		fmt.Fprintf(tw, "Liquidity bonus\t%s%%\n", p.LiquidityBonus.StringFixed(2))
		fmt.Fprintf(tw, "Referrals\t%d\n", p.ReferralsNumber)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Bonds) == 0 {
		return nil
	}
	fmt.Fprintln(e.out)
	tw = tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tAMOUNT\tTOKENS\tCREATED\tSTATUS")
	for _, b := range s.Bonds {
		status := "open"
		if b.Closed {
			status = "closed"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			b.Index, b.Type, b.Amount.StringFixed(4), b.Tokens.StringFixed(4),
			b.CreatedAt.Format("2006-01-02 15:04"), status)
	}
	return tw.Flush()
}

func cmdQuote(ctx context.Context, e env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	tokens, err := e.client.QuoteTokens(ctx, amount)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, tokens.StringFixed(4))
	return nil
}

func cmdBalanceOf(ctx context.Context, e env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	balance, err := e.client.TokenBalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, balance.StringFixed(4))
	return nil
}

func cmdValue(ctx context.Context, e env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	if _, err := e.prices.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "price unavailable: %v\n", err)
	}
	assets := e.client.Assets()
	fmt.Fprintf(e.out, "%s %s\n", e.client.ValueInReserveCurrency(amount), assets.Native.Symbol())
	fmt.Fprintf(e.out, "%s %s\n", e.client.ValueInQuoteCurrency(amount), assets.Quote.Symbol())
	return nil
}

func cmdBuy(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ContinueOnError)
	bondType := fs.Uint("type", 0, "bond type")
	uplineFlag := fs.String("upline", "", "upline address (defaults to the stored referral, then the owner)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 || *bondType >= domain.BondTypes {
		return errUsage
	}
	amount, err := parseAmount(fs.Arg(0))
	if err != nil {
		return err
	}

	var upline *common.Address
	if *uplineFlag != "" {
		addr, err := parseAddress(*uplineFlag)
		if err != nil {
			return err
		}
		upline = &addr
	}
	r, err := e.client.Buy(ctx, upline, uint8(*bondType), amount)
	return printReceipt(e.out, r, err)
}

func cmdWithdraw(ctx context.Context, e env, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	r, err := e.client.Withdraw(ctx, idx)
	return printReceipt(e.out, r, err)
}

func cmdStake(ctx context.Context, e env, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	r, err := e.client.Stake(ctx, idx, amount)
	return printReceipt(e.out, r, err)
}

func cmdApprove(ctx context.Context, e env, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	r, err := e.client.Approve(ctx)
	return printReceipt(e.out, r, err)
}

func cmdInfluencerBond(ctx context.Context, e env, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	user, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	r, err := e.client.InfluencerBond(ctx, user, amount)
	return printReceipt(e.out, r, err)
}

// tokenCommand adapts the single token-amount writes.
func tokenCommand(fn func(*app.ChainClient, context.Context, decimal.Decimal) (*domain.Receipt, error)) commandFunc {
	return func(ctx context.Context, e env, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		r, err := fn(e.client, ctx, amount)
		return printReceipt(e.out, r, err)
	}
}

func printReceipt(w io.Writer, r *domain.Receipt, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tx %s mined in block %d (gas %d)\n", r.TxHash.Hex(), r.BlockNumber, r.GasUsed)
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	return d, nil
}

func parseIndex(s string) (uint64, error) {
	idx, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bond index %q", s)
	}
	return idx, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func runRef(ctx context.Context, mono monolith.Monolith, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sr := mono.Services()
	svc := referralDI.GetReferralService(sr)

	switch args[0] {
	case "show":
		ref, ok, err := svc.Stored(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no referral stored")
			return nil
		}
		fmt.Printf("%s (captured %s)\n", ref.Address.Hex(), ref.CapturedAt.Format("2006-01-02 15:04:05"))
		return nil

	case "capture":
		if len(args) != 2 {
			return errUsage
		}
		connected := chainDI.GetWallet(sr).Address()
		addr, decision, err := svc.CaptureURL(ctx, args[1], connected)
		if err != nil {
			return err
		}
		if addr != (common.Address{}) {
			fmt.Printf("%s: %s\n", decision, addr.Hex())
		} else {
			fmt.Println(decision)
		}
		return nil

	case "clear":
		if err := svc.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("referral cleared")
		return nil
	}
	return errUsage
}

func runEncryptKey(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("encrypt-key", flag.ContinueOnError)
	out := fs.String("out", "key.json", "output file")
	passphrase := fs.String("passphrase", cfg.Wallet.Passphrase, "encryption passphrase")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	if cfg.Wallet.PrivateKey == "" {
		return errors.New("no private key configured")
	}
	if strings.TrimSpace(*passphrase) == "" {
		return errors.New("passphrase must not be empty")
	}

	key, err := keyfile.Load(keyfile.Source{PrivateKey: cfg.Wallet.PrivateKey})
	if err != nil {
		return err
	}
	data, err := keyfile.Encrypt(key, *passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	fmt.Printf("encrypted key written to %s\n", *out)
	return nil
}
