// Package config defines the top-level configuration for the settlement
// auditor and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by AUDITOR_* environment
// variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Indexer  IndexerConfig  `toml:"indexer"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Verify   VerifyConfig   `toml:"verify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig holds the JSON-RPC endpoint the balance oracle reads from.
type ChainConfig struct {
	RPCURL  string `toml:"rpc_url"`
	ChainID int    `toml:"chain_id"`
}

// IndexerConfig holds the fulfillment-event stream endpoint.
type IndexerConfig struct {
	WsURL  string `toml:"ws_url"`
	ApiKey string `toml:"api_key"`
}

// PostgresConfig holds PostgreSQL connection parameters for the audit store.
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

// RedisConfig holds Redis connection parameters for the balance cache.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for report
// archival. An empty Bucket disables archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds alerting channels and the event filter.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	TelegramBotToken  string   `toml:"telegram_bot_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	Events            []string `toml:"events"`
}

// VerifyConfig tunes the verification passes themselves.
type VerifyConfig struct {
	// InputPath is the fulfillment-event JSON file consumed by verify mode.
	InputPath string `toml:"input_path"`
	// BalanceCacheTTL bounds staleness of cached oracle reads.
	BalanceCacheTTL duration `toml:"balance_cache_ttl"`
	// LogWrites enables per-write ledger observation at debug level.
	LogWrites bool `toml:"log_writes"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			ChainID: 1,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			PoolSize:   8,
			MaxRetries: 3,
		},
		Notify: NotifyConfig{
			Events: []string{"mismatch", "error"},
		},
		Verify: VerifyConfig{
			BalanceCacheTTL: duration{15 * time.Second},
		},
		Mode:     "verify",
		LogLevel: "info",
	}
}

// Validate checks that the configuration is internally consistent for the
// selected mode.
func (c *Config) Validate() error {
	mode := strings.ToLower(c.Mode)
	switch mode {
	case "verify", "watch":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		return fmt.Errorf("config: chain.rpc_url is required")
	}
	if mode == "verify" && strings.TrimSpace(c.Verify.InputPath) == "" {
		return fmt.Errorf("config: verify.input_path is required in verify mode")
	}
	if mode == "watch" && strings.TrimSpace(c.Indexer.WsURL) == "" {
		return fmt.Errorf("config: indexer.ws_url is required in watch mode")
	}
	if (c.Notify.TelegramBotToken == "") != (c.Notify.TelegramChatID == "") {
		return fmt.Errorf("config: telegram_bot_token and telegram_chat_id must be set together")
	}
	return nil
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

// UsesPostgres reports whether an audit store should be wired.
func (c *Config) UsesPostgres() bool {
	return strings.TrimSpace(c.Postgres.DSN) != "" || strings.TrimSpace(c.Postgres.Host) != ""
}

// UsesRedis reports whether the balance cache should be wired.
func (c *Config) UsesRedis() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// UsesS3 reports whether the report archiver should be wired.
func (c *Config) UsesS3() bool {
	return strings.TrimSpace(c.S3.Bucket) != ""
}
