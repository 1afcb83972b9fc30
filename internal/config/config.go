// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Funda  FundaConfig  `yaml:"funda" mapstructure:"funda"`
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Notion NotionConfig `yaml:"notion" mapstructure:"notion"`
	Scores ScoresConfig `yaml:"scores" mapstructure:"scores"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SearchConfig holds the city list and the two office destinations travel
// times are computed against.
type SearchConfig struct {
	Cities  []string `yaml:"cities" mapstructure:"cities"`
	OfficeS string   `yaml:"office_s" mapstructure:"office_s"`
	OfficeV string   `yaml:"office_v" mapstructure:"office_v"`
}

// FundaConfig holds the listing search tuning parameters.
type FundaConfig struct {
	WantTo       string `yaml:"want_to" mapstructure:"want_to"`
	MinPrice     int    `yaml:"min_price" mapstructure:"min_price"`
	MaxPrice     int    `yaml:"max_price" mapstructure:"max_price"`
	DaysSince    int    `yaml:"days_since" mapstructure:"days_since"`
	PropertyType string `yaml:"property_type" mapstructure:"property_type"`
	PageStart    int    `yaml:"page_start" mapstructure:"page_start"`
	PageCount    int    `yaml:"page_count" mapstructure:"page_count"`
}

// GoogleConfig holds the Maps API credential and travel mode.
type GoogleConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Mode   string `yaml:"mode" mapstructure:"mode"`
}

// NotionConfig holds the record store credential and database.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DatabaseID string `yaml:"database_id" mapstructure:"database_id"`
}

// ScoresConfig locates the bundled life-level dataset.
type ScoresConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDASCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a natural default still get one so viper knows
	// them and env overrides reach Unmarshal.
	v.SetDefault("search.cities", []string{})
	v.SetDefault("search.office_s", "")
	v.SetDefault("search.office_v", "")
	v.SetDefault("funda.want_to", "buy")
	v.SetDefault("funda.property_type", "huis")
	v.SetDefault("funda.page_start", 1)
	v.SetDefault("funda.page_count", 100)
	v.SetDefault("funda.min_price", 0)
	v.SetDefault("funda.max_price", 0)
	v.SetDefault("funda.days_since", 0)
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.mode", "transit")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("scores.path", "data/scores.csv")
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

	// Cities arrive as a comma-delimited string from the environment; viper
	// splits on commas but leaves whitespace and empty entries behind.
	cfg.Search.Cities = normalizeCities(cfg.Search.Cities)

	return &cfg, nil
}

// Validate checks the settings a run cannot start without. Called before any
// network activity so a bad deployment fails immediately.
func (c *Config) Validate() error {
	if len(c.Search.Cities) == 0 {
		return eris.New("config: search.cities is required")
	}
	if c.Search.OfficeS == "" || c.Search.OfficeV == "" {
		return eris.New("config: search.office_s and search.office_v are required")
	}
	if c.Google.APIKey == "" {
		return eris.New("config: google.api_key is required")
	}
	if c.Notion.Token == "" {
		return eris.New("config: notion.token is required")
	}
	if c.Notion.DatabaseID == "" {
		return eris.New("config: notion.database_id is required")
	}
	// max_price 0 means unbounded, so only compare when both ends are set.
	if c.Funda.MaxPrice > 0 && c.Funda.MinPrice > c.Funda.MaxPrice {
		return eris.Errorf("config: funda.min_price %d exceeds funda.max_price %d", c.Funda.MinPrice, c.Funda.MaxPrice)
	}
	return nil
}

func normalizeCities(raw []string) []string {
	cities := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cities = append(cities, trimmed)
			}
		}
	}
	return cities
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
