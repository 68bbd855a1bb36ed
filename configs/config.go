package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Market   MarketConfig   `yaml:"market"`
	Telegram TelegramConfig `yaml:"telegram"`
	Chart    ChartConfig    `yaml:"chart"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port     string `yaml:"port"`
	OpsPort  string `yaml:"ops_port"`
	Env      string `yaml:"env"`
	TimeZone string `yaml:"timezone"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level          string `yaml:"level"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
}

// DatabaseConfig holds database configuration. URL selects Postgres; when it
// is empty the SQLite file is used.
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// AIConfig holds the AI completion provider configuration
type AIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	PromptLang string `yaml:"prompt_lang"`
}

// MarketConfig holds market data endpoints
type MarketConfig struct {
	BinanceURL string `yaml:"binance_url"`
	FNGURL     string `yaml:"fng_url"`
}

// TelegramConfig holds the optional signal notifier configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// ChartConfig holds chart polling configuration
type ChartConfig struct {
	PollSeconds int `yaml:"poll_seconds"`
}

// PollInterval returns the chart poll period
func (c ChartConfig) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// UsePostgres reports whether a Postgres URL is configured
func (c *Config) UsePostgres() bool {
	return c.Database.URL != ""
}

// Load reads the YAML file at path (a missing file is fine), applies
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.OpsPort = getEnv("OPS_PORT", cfg.Server.OpsPort)
	cfg.Server.Env = getEnv("GO_ENV", cfg.Server.Env)
	cfg.Server.TimeZone = getEnv("TZ", cfg.Server.TimeZone)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.TracingEnabled = getEnvBool("LOG_TRACING_ENABLED", cfg.Log.TracingEnabled)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.AI.APIKey = getEnv("AI_API_KEY", getEnv("GROQ_API_KEY", cfg.AI.APIKey))
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.Model = getEnv("AI_MODEL", cfg.AI.Model)
	cfg.AI.PromptLang = getEnv("PROMPT_LANG", cfg.AI.PromptLang)
	cfg.Market.BinanceURL = getEnv("BINANCE_BASE_URL", cfg.Market.BinanceURL)
	cfg.Market.FNGURL = getEnv("FNG_BASE_URL", cfg.Market.FNGURL)
	cfg.Telegram.BotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = getEnv("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)
	cfg.Chart.PollSeconds = getEnvInt("CHART_POLL_SECONDS", cfg.Chart.PollSeconds)

	// Defaults
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.OpsPort == "" {
		cfg.Server.OpsPort = "8081"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/kotvukai.db"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "llama-3.1-8b-instant"
	}
	if cfg.AI.PromptLang == "" {
		cfg.AI.PromptLang = "ru"
	}
	if cfg.Market.BinanceURL == "" {
		cfg.Market.BinanceURL = "https://api.binance.com"
	}
	if cfg.Market.FNGURL == "" {
		cfg.Market.FNGURL = "https://api.alternative.me"
	}
	if cfg.Chart.PollSeconds == 0 {
		cfg.Chart.PollSeconds = 10
	}

	return cfg, nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", c.Server.Port)
	}
	if _, err := strconv.Atoi(c.Server.OpsPort); err != nil {
		return fmt.Errorf("server.ops_port must be numeric, got %q", c.Server.OpsPort)
	}
	if c.Server.Port == c.Server.OpsPort {
		return fmt.Errorf("server.port and server.ops_port must differ")
	}
	if c.Chart.PollSeconds < 1 {
		return fmt.Errorf("chart.poll_seconds must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if !c.UsePostgres() && c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required without database.url")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
