package config

import (
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateExecuteModeNeedsWallet(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "execute"
	if err := cfg.Validate(); err == nil {
		t.Fatal("execute mode without a wallet must not validate")
	}

	cfg.Wallet.Address = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("execute mode with address: %v", err)
	}
}

func TestValidateRejectsPartialPositionsCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Positions.ApiKey = "key"
	if err := cfg.Validate(); err == nil {
		t.Fatal("api_key without api_secret must not validate")
	}
	cfg.Positions.ApiSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete credentials: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STRIKEDESK_CHAIN_RPC_URL", "https://rpc.example.org")
	t.Setenv("STRIKEDESK_CHAIN_ID", "84532")
	t.Setenv("STRIKEDESK_EXECUTOR_POLL_INTERVAL", "500ms")
	t.Setenv("STRIKEDESK_NOTIFY_EVENTS", "batch_confirmed, error")
	t.Setenv("STRIKEDESK_POSTGRES_RUN_MIGRATIONS", "false")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Chain.RPCURL != "https://rpc.example.org" {
		t.Errorf("rpc_url: %s", cfg.Chain.RPCURL)
	}
	if cfg.Chain.ChainID != 84532 {
		t.Errorf("chain_id: %d", cfg.Chain.ChainID)
	}
	if cfg.Executor.PollInterval.Duration != 500*time.Millisecond {
		t.Errorf("poll_interval: %s", cfg.Executor.PollInterval)
	}
	if len(cfg.Notify.Events) != 2 || cfg.Notify.Events[1] != "error" {
		t.Errorf("events: %v", cfg.Notify.Events)
	}
	if cfg.Postgres.RunMigrations {
		t.Error("run_migrations override not applied")
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "aws-secret"
	cfg.Wallet.Address = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

	red := RedactedConfig(&cfg)
	if red.Postgres.Password != "***" || red.S3.SecretKey != "***" {
		t.Error("secrets must be redacted")
	}
	if red.Wallet.Address != cfg.Wallet.Address {
		t.Error("non-secret fields must survive redaction")
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("redaction must not mutate the original")
	}
}
