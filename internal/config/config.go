package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all FinZap configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines webhook server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// SheetsConfig locates the spreadsheet backing the transaction/limit stores.
type SheetsConfig struct {
	SpreadsheetID     string `mapstructure:"spreadsheet_id"`
	CredentialsFile   string `mapstructure:"credentials_file"`
	TransactionsRange string `mapstructure:"transactions_range"`
	LimitsRange       string `mapstructure:"limits_range"`
}

// WhatsAppConfig defines WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	APIBase       string `mapstructure:"api_base"`
	Token         string `mapstructure:"token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	VerifyToken   string `mapstructure:"verify_token"`
}

// LLMConfig defines the chat-completion backend.
type LLMConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	ContextBudget int     `mapstructure:"context_budget"`
}

// KnowledgeConfig defines the vector-search backend.
type KnowledgeConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	TopK   int    `mapstructure:"top_k"`
}

// AlertsConfig defines budget alert evaluation settings.
type AlertsConfig struct {
	Timezone      string `mapstructure:"timezone"`
	TemplatesFile string `mapstructure:"templates_file"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// QuotaConfig defines the free-tier message quota.
type QuotaConfig struct {
	FreeMessages int `mapstructure:"free_messages"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".finzap"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".finzap", "finzap.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("sheets.transactions_range", "Transacoes!A2:E")
	v.SetDefault("sheets.limits_range", "Limites!A2:D")
	v.SetDefault("whatsapp.api_base", "https://graph.facebook.com/v19.0")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 400)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.context_budget", 1500)
	v.SetDefault("knowledge.top_k", 3)
	v.SetDefault("alerts.timezone", "America/Sao_Paulo")
	v.SetDefault("alerts.retention_days", 90)
	v.SetDefault("quota.free_messages", 20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("FINZAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
