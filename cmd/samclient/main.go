// Package main is the entry point for the SAM protocol client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/sam-client/business/chain"
	"github.com/fd1az/sam-client/business/pricing"
	"github.com/fd1az/sam-client/business/referral"
	"github.com/fd1az/sam-client/internal/apm"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/config"
	"github.com/fd1az/sam-client/internal/logger"
	"github.com/fd1az/sam-client/internal/metrics"
	"github.com/fd1az/sam-client/internal/monolith"
	"github.com/fd1az/sam-client/internal/notify"
	"github.com/fd1az/sam-client/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const usage = `usage: samclient [flags] <command> [args]

commands:
  watch                              live dashboard (-cli for log output)
  status                             print pool, account and bonds
  quote <native>                     tokens a bond of <native> would buy
  balance-of <address>               token balance of any address
  value <tokens>                     value in reserve and quote currency
  buy [-type n] [-upline a] <native> buy a bond
  withdraw <bond>                    withdraw a bond
  stake <bond> <native>              add native to a bond
  rebond <tokens>                    rebond available tokens
  claim <tokens>                     claim available tokens
  approve                            approve the protocol for token spending
  sell <tokens>                      sell tokens to the protocol
  sell-dex <tokens>                  sell tokens on the external market
  influencer-bond <user> <tokens>    create a bond for another user
  ref show|capture <url>|clear       manage the stored referral
  encrypt-key -out <file>            encrypt the configured private key
`

// shutdownTimeout bounds module shutdown after a signal.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run watch in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("samclient %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	command, args := "watch", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	tuiMode := command == "watch" && !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, command, args, tuiMode); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindConflict:
		return 2
	case apperror.KindReverted:
		return 3
	default:
		return 1
	}
}

func run(ctx context.Context, configPath, command string, args []string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// encrypt-key needs no chain connection.
	if command == "encrypt-key" {
		return runEncryptKey(cfg, args)
	}

	// In TUI mode logs would corrupt the screen.
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Debug(ctx, "starting samclient", "version", version, "command", command, "environment", cfg.App.Environment)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	notifier := newNotifier(cfg, log, tuiMode)

	mono, err := monolith.New(ctx, cfg, log, notifier)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: chain reads prices and referrals.
	modules := []monolith.Module{
		&pricing.Module{},
		&referral.Module{},
		&chain.Module{Sync: command == "watch"},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// ref only touches the referral store.
	if command == "ref" {
		if err := mono.StartModules(ctx, modules[1]); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		defer mono.StopModules(context.Background(), modules[1])
		return runRef(ctx, mono, args)
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mono.StopModules(stopCtx, modules...); err != nil {
			log.Error(stopCtx, "failed to stop modules", "error", err)
		}
	}()

	if command == "watch" {
		start := func() error {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			return nil
		}
		if tuiMode {
			return runTUI(ctx, mono, start)
		}
		if err := start(); err != nil {
			return err
		}
		return runCLI(ctx, mono)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCommand(ctx, mono, command, args)
}

func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	traceProvider, err := apm.NewTraceProvider(ctx, apm.Settings{
		ServiceName: cfg.Telemetry.ServiceName,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	ms := metrics.Settings{
		ServiceName: cfg.Telemetry.ServiceName,
		Prometheus:  cfg.Telemetry.PrometheusPort > 0,
	}
	if cfg.Telemetry.Exporter == apm.ExporterOTLPGRPC {
		ms.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		ms.OTLPHeaders = apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
	}
	meterProvider, err := metrics.NewMeterProvider(ctx, ms)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	var promServer *metrics.PrometheusServer
	if port := cfg.Telemetry.PrometheusPort; port > 0 {
		promServer = metrics.NewPrometheusServer(port)
		if err := promServer.Start(); err != nil {
			log.Warn(ctx, "failed to start prometheus server", "error", err)
			promServer = nil
		} else {
			log.Info(ctx, "prometheus metrics server started", "port", port)
		}
	}

	log.Info(ctx, "telemetry initialized", "exporter", cfg.Telemetry.Exporter)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if promServer != nil {
			_ = promServer.Stop(stopCtx)
		}
		_ = meterProvider.Shutdown(stopCtx)
		_ = traceProvider.Stop()
	}, nil
}

func newNotifier(cfg *config.Config, log logger.LoggerInterface, tuiMode bool) *notify.Notifier {
	n := notify.NewNotifier(log, notify.NewLogSender(log))

	if tuiMode {
		n.Add(ui.FeedSender{})
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(notify.TelegramAPIURL, cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			log.Warn(context.Background(), "telegram notifications disabled", "error", err)
		} else {
			n.Add(tg)
		}
	}
	if cfg.Notify.DiscordWebhook != "" {
		dc, err := notify.NewDiscordSender(cfg.Notify.DiscordWebhook)
		if err != nil {
			log.Warn(context.Background(), "discord notifications disabled", "error", err)
		} else {
			n.Add(dc)
		}
	}
	return n
}
