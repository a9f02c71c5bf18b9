package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AUDITOR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// callers should invoke Config.Validate() after Load.
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

// applyEnvOverrides reads well-known AUDITOR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Chain.RPCURL, "AUDITOR_CHAIN_RPC_URL")
	setInt(&cfg.Chain.ChainID, "AUDITOR_CHAIN_ID")

	setStr(&cfg.Indexer.WsURL, "AUDITOR_INDEXER_WS_URL")
	setStr(&cfg.Indexer.ApiKey, "AUDITOR_INDEXER_API_KEY")

	setStr(&cfg.Postgres.DSN, "AUDITOR_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "AUDITOR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "AUDITOR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "AUDITOR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "AUDITOR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "AUDITOR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "AUDITOR_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "AUDITOR_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "AUDITOR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "AUDITOR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "AUDITOR_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "AUDITOR_REDIS_TLS_ENABLED")

	setStr(&cfg.S3.Endpoint, "AUDITOR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "AUDITOR_S3_REGION")
	setStr(&cfg.S3.Bucket, "AUDITOR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "AUDITOR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "AUDITOR_S3_SECRET_KEY")

	setStr(&cfg.Notify.DiscordWebhookURL, "AUDITOR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramBotToken, "AUDITOR_NOTIFY_TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "AUDITOR_NOTIFY_TELEGRAM_CHAT_ID")

	setStr(&cfg.Verify.InputPath, "AUDITOR_VERIFY_INPUT_PATH")
	setDuration(&cfg.Verify.BalanceCacheTTL, "AUDITOR_VERIFY_BALANCE_CACHE_TTL")
	setBool(&cfg.Verify.LogWrites, "AUDITOR_VERIFY_LOG_WRITES")

	setStr(&cfg.Mode, "AUDITOR_MODE")
	setStr(&cfg.LogLevel, "AUDITOR_LOG_LEVEL")
}

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
