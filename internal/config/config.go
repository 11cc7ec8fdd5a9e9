// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Referral  ReferralConfig  `mapstructure:"referral"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// ChainConfig holds chain node and transaction settings.
type ChainConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	ExplorerURL    string        `mapstructure:"explorer_url"` // prefix joined with the tx hash
	Confirmations  uint64        `mapstructure:"confirmations"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"` // 0 waits as long as the node answers
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	GasLimitBuffer float64       `mapstructure:"gas_limit_buffer"` // multiplier over the simulated gas
}

// ContractsConfig holds the addresses of the contracts the client talks to.
type ContractsConfig struct {
	Token         string `mapstructure:"token"`
	Protocol      string `mapstructure:"protocol"`
	Router        string `mapstructure:"router"`
	WrappedNative string `mapstructure:"wrapped_native"`
}

// TokenAddress returns the token address as common.Address.
func (c *ContractsConfig) TokenAddress() common.Address {
	return common.HexToAddress(c.Token)
}

// ProtocolAddress returns the protocol address as common.Address.
func (c *ContractsConfig) ProtocolAddress() common.Address {
	return common.HexToAddress(c.Protocol)
}

// RouterAddress returns the router address as common.Address.
func (c *ContractsConfig) RouterAddress() common.Address {
	return common.HexToAddress(c.Router)
}

// WrappedNativeAddress returns the wrapped native coin address as common.Address.
func (c *ContractsConfig) WrappedNativeAddress() common.Address {
	return common.HexToAddress(c.WrappedNative)
}

// WalletConfig selects the connected account.
// PrivateKey and KeyFile enable signing; Address alone gives a watch-only session.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	KeyFile    string `mapstructure:"key_file"`
	Passphrase string `mapstructure:"passphrase"`
	Address    string `mapstructure:"address"`
}

// HasSigner reports whether a signing key source is configured.
func (c *WalletConfig) HasSigner() bool {
	return c.PrivateKey != "" || c.KeyFile != ""
}

// SyncConfig holds state synchronizer settings.
type SyncConfig struct {
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`
	BondFetchConcurrency int           `mapstructure:"bond_fetch_concurrency"`
	QuoteCacheTTL        time.Duration `mapstructure:"quote_cache_ttl"`
}

// PricingConfig holds the external price feed settings.
type PricingConfig struct {
	Source            string        `mapstructure:"source"` // http or websocket
	HTTPURL           string        `mapstructure:"http_url"`
	CoinID            string        `mapstructure:"coin_id"`
	VsCurrency        string        `mapstructure:"vs_currency"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	WebSocketURL      string        `mapstructure:"websocket_url"`
	RESTURL           string        `mapstructure:"rest_url"` // ticker fallback for the websocket source
	Symbol            string        `mapstructure:"symbol"`
	StaleTimeout      time.Duration `mapstructure:"stale_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// ReferralConfig holds referral persistence settings.
type ReferralConfig struct {
	Store         string `mapstructure:"store"` // file or redis
	FilePath      string `mapstructure:"file_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

// NotifyConfig holds notification sender settings.
type NotifyConfig struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat_id"`
	DiscordWebhook string `mapstructure:"discord_webhook"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // zipkin, otlp-grpc, otlp-http, console
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("SAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SAM_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SAM_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SAM_LOG_LEVEL", "LOG_LEVEL")

	// Chain
	v.BindEnv("chain.rpc_url", "SAM_RPC_URL", "RPC_URL")
	v.BindEnv("chain.chain_id", "SAM_CHAIN_ID", "CHAIN_ID")
	v.BindEnv("chain.explorer_url", "SAM_CHAIN_SCAN", "CHAIN_SCAN")

	// Contracts
	v.BindEnv("contracts.token", "SAM_TOKEN_CONTRACT", "SAM_CONTRACT")
	v.BindEnv("contracts.protocol", "SAM_PROTOCOL_CONTRACT", "PROTOCOL_CONTRACT")
	v.BindEnv("contracts.router", "SAM_ROUTER_CONTRACT", "ROUTER_CONTRACT")
	v.BindEnv("contracts.wrapped_native", "SAM_WPLS_CONTRACT", "WPLS_CONTRACT")

	// Wallet
	v.BindEnv("wallet.private_key", "SAM_PRIVATE_KEY", "PRIVATE_KEY")
	v.BindEnv("wallet.key_file", "SAM_KEY_FILE")
	v.BindEnv("wallet.passphrase", "SAM_KEY_PASSPHRASE")
	v.BindEnv("wallet.address", "SAM_ADDRESS")

	// Pricing
	v.BindEnv("pricing.source", "SAM_PRICE_SOURCE")
	v.BindEnv("pricing.http_url", "SAM_PRICE_HTTP_URL")
	v.BindEnv("pricing.websocket_url", "SAM_PRICE_WS_URL")
	v.BindEnv("pricing.rest_url", "SAM_PRICE_REST_URL")

	// Referral
	v.BindEnv("referral.store", "SAM_REFERRAL_STORE")
	v.BindEnv("referral.redis_addr", "SAM_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("referral.redis_password", "SAM_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Notify
	v.BindEnv("notify.telegram_token", "SAM_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("notify.telegram_chat_id", "SAM_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	v.BindEnv("notify.discord_webhook", "SAM_DISCORD_WEBHOOK", "DISCORD_WEBHOOK_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SAM_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SAM_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SAM_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "sam-client")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// PulseChain mainnet defaults
	v.SetDefault("chain.rpc_url", "https://rpc.pulsechain.com")
	v.SetDefault("chain.chain_id", 369)
	v.SetDefault("chain.explorer_url", "https://scan.pulsechain.com/tx/")
	v.SetDefault("chain.confirmations", 1)
	v.SetDefault("chain.confirm_timeout", "0s")
	v.SetDefault("chain.poll_interval", "2s")
	v.SetDefault("chain.call_timeout", "15s")
	v.SetDefault("chain.requests_per_sec", 20)
	v.SetDefault("chain.burst", 10)
	v.SetDefault("chain.gas_limit_buffer", 1.2)

	v.SetDefault("contracts.router", "0x165C3410fC91EF562C50559f7d2289fEbed552d9")
	v.SetDefault("contracts.wrapped_native", "0xA1077a294dDE1B09bB078844df40758a5D0f9a27")

	// Sync defaults
	v.SetDefault("sync.refresh_interval", "3m")
	v.SetDefault("sync.bond_fetch_concurrency", 4)
	v.SetDefault("sync.quote_cache_ttl", "15s")

	// Pricing defaults
	v.SetDefault("pricing.source", "http")
	v.SetDefault("pricing.http_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("pricing.coin_id", "pulsechain")
	v.SetDefault("pricing.vs_currency", "usd")
	v.SetDefault("pricing.poll_interval", "1m")
	v.SetDefault("pricing.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("pricing.rest_url", "https://api.binance.com")
	v.SetDefault("pricing.symbol", "PLSUSDT")
	v.SetDefault("pricing.stale_timeout", "5m")
	v.SetDefault("pricing.requests_per_minute", 10)

	// Referral defaults
	v.SetDefault("referral.store", "file")
	v.SetDefault("referral.file_path", "referral.json")
	v.SetDefault("referral.redis_addr", "localhost:6379")
	v.SetDefault("referral.redis_key", "sam-client:referral")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "sam-client")
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:9411/api/v2/spans")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ChainID == 0 {
		return fmt.Errorf("chain.chain_id is required")
	}
	contracts := map[string]string{
		"contracts.token":          c.Contracts.Token,
		"contracts.protocol":       c.Contracts.Protocol,
		"contracts.router":         c.Contracts.Router,
		"contracts.wrapped_native": c.Contracts.WrappedNative,
	}
	for key, addr := range contracts {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s: %q", key, addr)
		}
	}
	if c.Wallet.Address != "" && !common.IsHexAddress(c.Wallet.Address) {
		return fmt.Errorf("invalid wallet.address: %q", c.Wallet.Address)
	}
	if c.Wallet.KeyFile != "" && c.Wallet.Passphrase == "" {
		return fmt.Errorf("wallet.passphrase is required with wallet.key_file")
	}
	if c.Sync.RefreshInterval <= 0 {
		return fmt.Errorf("sync.refresh_interval must be positive")
	}
	if c.Sync.BondFetchConcurrency <= 0 {
		return fmt.Errorf("sync.bond_fetch_concurrency must be positive")
	}
	switch c.Pricing.Source {
	case "http", "websocket", "none":
	default:
		return fmt.Errorf("pricing.source must be http, websocket or none, got %q", c.Pricing.Source)
	}
	switch c.Referral.Store {
	case "file", "redis":
	default:
		return fmt.Errorf("referral.store must be file or redis, got %q", c.Referral.Store)
	}
	if c.Chain.GasLimitBuffer < 1 {
		return fmt.Errorf("chain.gas_limit_buffer must be >= 1")
	}
	return nil
}
