package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Gemini GeminiConfig `yaml:"gemini" mapstructure:"gemini"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Driver is "file" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the data directory for the file driver or the database file
	// for sqlite.
	Path string `yaml:"path" mapstructure:"path"`
}

// LedgerConfig tunes the statistics ledger bounds.
type LedgerConfig struct {
	HistoryLimit int `yaml:"history_limit" mapstructure:"history_limit"`
	RecentLimit  int `yaml:"recent_limit" mapstructure:"recent_limit"`
	// CategoryTable optionally points at a YAML file replacing the built-in
	// category keyword rules.
	CategoryTable string `yaml:"category_table" mapstructure:"category_table"`
}

// GeminiConfig holds the optional LLM collaborator settings. An empty key
// disables the collaborator entirely.
type GeminiConfig struct {
	Key               string   `yaml:"key" mapstructure:"key"`
	Models            []string `yaml:"models" mapstructure:"models"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ServerConfig configures the reporting HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks settings needed for the given command mode. Modes with no
// settings beyond the common ones still pass through the common checks.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "file", "sqlite":
	default:
		problems = append(problems, "store.driver must be file or sqlite")
	}
	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if c.Ledger.HistoryLimit < 1 {
		problems = append(problems, "ledger.history_limit must be >= 1")
	}
	if c.Ledger.RecentLimit < 1 {
		problems = append(problems, "ledger.recent_limit must be >= 1")
	}
	if c.Gemini.Key != "" && c.Gemini.RequestsPerSecond <= 0 {
		problems = append(problems, "gemini.requests_per_second must be > 0")
	}

	switch mode {
	case "scan", "history", "manufacturers", "export":
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LMSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data")
	v.SetDefault("ledger.history_limit", 1000)
	v.SetDefault("ledger.recent_limit", 10)
	v.SetDefault("gemini.requests_per_second", 1.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
