package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// HTTP server
	Server ServerConfig `json:"server"`

	// Bot data directory
	Data DataConfig `json:"data"`

	// Status enrichment
	Enrich EnrichConfig `json:"enrich"`

	// Event streaming
	Stream StreamConfig `json:"stream"`

	// Alert forwarding
	Watcher WatcherConfig `json:"watcher"`

	// Discord
	Discord DiscordConfig `json:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port       int    `json:"port"`
	StaticDir  string `json:"static_dir"`
	PauseToken string `json:"-"` // Excluded - env var only
}

// DataConfig points at the directory the bot writes its files into.
type DataConfig struct {
	Dir string `json:"dir"`
}

// EnrichConfig controls PnL enrichment of status snapshots.
type EnrichConfig struct {
	Enabled bool `json:"enabled"`
}

// StreamConfig holds event stream configuration.
type StreamConfig struct {
	PollInterval time.Duration `json:"poll_interval"`
}

// WatcherConfig holds alert forwarding configuration.
type WatcherConfig struct {
	Enabled      bool          `json:"enabled"`
	PollInterval time.Duration `json:"poll_interval"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Server: ServerConfig{
			Port:      8081,
			StaticDir: "dashboard/dist",
		},
		Data: DataConfig{
			Dir: "data",
		},
		Enrich: EnrichConfig{
			Enabled: true,
		},
		Stream: StreamConfig{
			PollInterval: 1 * time.Second,
		},
		Watcher: WatcherConfig{
			Enabled:      true,
			PollInterval: 2 * time.Second,
		},
		Discord:  DiscordConfig{},
		Telegram: TelegramConfig{},
	}
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Server: ServerConfig{
			Port:       envInt("DASHBOARD_PORT", 8081),
			StaticDir:  envString("DASHBOARD_STATIC_DIR", "dashboard/dist"),
			PauseToken: envString("DASHBOARD_PAUSE_TOKEN", ""),
		},

		Data: DataConfig{
			Dir: envString("ARB_DATA_DIR", "data"),
		},

		Enrich: EnrichConfig{
			Enabled: envBoolDefault("PNL_ENRICH_ENABLED", true),
		},

		Stream: StreamConfig{
			PollInterval: envDuration("STREAM_POLL_INTERVAL", 1*time.Second),
		},

		Watcher: WatcherConfig{
			Enabled:      envBoolDefault("ALERT_FORWARD_ENABLED", true),
			PollInterval: envDuration("ALERT_FORWARD_POLL_INTERVAL", 2*time.Second),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_KEY", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
