package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STRIKEDESK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STRIKEDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "STRIKEDESK_WALLET_ADDRESS")
	setStr(&cfg.Wallet.EncryptedKeyPath, "STRIKEDESK_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "STRIKEDESK_WALLET_KEY_PASSWORD")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "STRIKEDESK_CHAIN_RPC_URL")
	setStr(&cfg.Chain.ProviderURL, "STRIKEDESK_CHAIN_PROVIDER_URL")
	setInt64(&cfg.Chain.ChainID, "STRIKEDESK_CHAIN_ID")
	setStr(&cfg.Chain.PaymasterURL, "STRIKEDESK_CHAIN_PAYMASTER_URL")

	// ── Orderbook ──
	setStr(&cfg.Orderbook.BaseURL, "STRIKEDESK_ORDERBOOK_BASE_URL")
	setStr(&cfg.Orderbook.WsHost, "STRIKEDESK_ORDERBOOK_WS_HOST")
	setDuration(&cfg.Orderbook.RefreshInterval, "STRIKEDESK_ORDERBOOK_REFRESH_INTERVAL")
	setDuration(&cfg.Orderbook.RequestTimeout, "STRIKEDESK_ORDERBOOK_REQUEST_TIMEOUT")

	// ── Positions ──
	setStr(&cfg.Positions.BaseURL, "STRIKEDESK_POSITIONS_BASE_URL")
	setStr(&cfg.Positions.ApiKey, "STRIKEDESK_POSITIONS_API_KEY")
	setStr(&cfg.Positions.ApiSecret, "STRIKEDESK_POSITIONS_API_SECRET")

	// ── Executor ──
	setDuration(&cfg.Executor.PollInterval, "STRIKEDESK_EXECUTOR_POLL_INTERVAL")
	setInt(&cfg.Executor.MaxPollAttempts, "STRIKEDESK_EXECUTOR_MAX_POLL_ATTEMPTS")
	setFloat64(&cfg.Executor.MinBetUSD, "STRIKEDESK_EXECUTOR_MIN_BET_USD")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STRIKEDESK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STRIKEDESK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STRIKEDESK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STRIKEDESK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STRIKEDESK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STRIKEDESK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STRIKEDESK_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STRIKEDESK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STRIKEDESK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STRIKEDESK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STRIKEDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STRIKEDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STRIKEDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STRIKEDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STRIKEDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STRIKEDESK_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.PairTTL, "STRIKEDESK_REDIS_PAIR_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "STRIKEDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STRIKEDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "STRIKEDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STRIKEDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STRIKEDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STRIKEDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STRIKEDESK_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STRIKEDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STRIKEDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STRIKEDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "STRIKEDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "STRIKEDESK_MODE")
	setStr(&cfg.LogLevel, "STRIKEDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
