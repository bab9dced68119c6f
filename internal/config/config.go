// Package config defines the top-level configuration for the strikedesk
// client and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STRIKEDESK_* environment variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Chain     ChainConfig     `toml:"chain"`
	Orderbook OrderbookConfig `toml:"orderbook"`
	Positions PositionsConfig `toml:"positions"`
	Executor  ExecutorConfig  `toml:"executor"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// WalletConfig identifies the account that fills orders. The client never
// holds a plaintext signing key for execution; batches go through the EIP-5792
// wallet provider. The encrypted key file exists only to derive the account
// address and to authenticate against the positions API.
type WalletConfig struct {
	Address          string `toml:"address"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ChainConfig holds RPC endpoints and chain parameters.
type ChainConfig struct {
	RPCURL       string `toml:"rpc_url"`
	ProviderURL  string `toml:"provider_url"` // EIP-5792 wallet provider endpoint
	ChainID      int64  `toml:"chain_id"`
	PaymasterURL string `toml:"paymaster_url"` // empty disables gas sponsorship
}

// OrderbookConfig holds the off-chain orderbook API endpoints.
type OrderbookConfig struct {
	BaseURL         string   `toml:"base_url"`
	WsHost          string   `toml:"ws_host"`
	RefreshInterval duration `toml:"refresh_interval"`
	RequestTimeout  duration `toml:"request_timeout"`
}

// PositionsConfig holds the fill-recording API parameters. Recording is best
// effort; a missing base_url disables it.
type PositionsConfig struct {
	BaseURL   string `toml:"base_url"`
	ApiKey    string `toml:"api_key"`
	ApiSecret string `toml:"api_secret"`
}

// ExecutorConfig tunes batch submission and confirmation polling.
type ExecutorConfig struct {
	PollInterval    duration `toml:"poll_interval"`
	MaxPollAttempts int      `toml:"max_poll_attempts"`
	MinBetUSD       float64  `toml:"min_bet_usd"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	PairTTL    duration `toml:"pair_ttl"`
}

// S3Config holds S3-compatible object storage parameters for market
// snapshots.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:      "https://mainnet.base.org",
			ProviderURL: "http://localhost:8545",
			ChainID:     8453,
		},
		Orderbook: OrderbookConfig{
			BaseURL:         "https://api.strikelabs.xyz",
			WsHost:          "wss://ws.strikelabs.xyz",
			RefreshInterval: duration{30 * time.Second},
			RequestTimeout:  duration{10 * time.Second},
		},
		Executor: ExecutorConfig{
			PollInterval:    duration{2 * time.Second},
			MaxPollAttempts: 60,
			MinBetUSD:       0.10,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "strikedesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			PairTTL:    duration{2 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "strikedesk-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"batch_confirmed", "batch_failed", "error"},
		},
		Mode:     "pairs",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"pairs":   true,
	"watch":   true,
	"execute": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: pairs, watch, execute)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet: execute mode needs an account to fill from.
	if strings.ToLower(c.Mode) == "execute" {
		if c.Wallet.Address == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either address or encrypted_key_path must be set for mode execute")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Chain.ProviderURL == "" {
			errs = append(errs, "chain: provider_url must not be empty for mode execute")
		}
	}

	// Chain
	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}

	// Orderbook
	if c.Orderbook.BaseURL == "" {
		errs = append(errs, "orderbook: base_url must not be empty")
	}
	if c.Orderbook.RefreshInterval.Duration <= 0 {
		errs = append(errs, "orderbook: refresh_interval must be > 0")
	}

	// Positions: key and secret must be set together, or both empty.
	pk := c.Positions.ApiKey != ""
	ps := c.Positions.ApiSecret != ""
	if pk != ps {
		errs = append(errs, "positions: api_key and api_secret must be set together")
	}

	// Executor
	if c.Executor.PollInterval.Duration <= 0 {
		errs = append(errs, "executor: poll_interval must be > 0")
	}
	if c.Executor.MaxPollAttempts < 1 {
		errs = append(errs, "executor: max_poll_attempts must be >= 1")
	}
	if c.Executor.MinBetUSD <= 0 {
		errs = append(errs, "executor: min_bet_usd must be > 0")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Endpoint == "" {
		errs = append(errs, "s3: endpoint must not be empty")
	}
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
