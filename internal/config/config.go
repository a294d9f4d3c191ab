package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Crawl   CrawlConfig   `yaml:"crawl" mapstructure:"crawl"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Claude  ClaudeConfig  `yaml:"claude" mapstructure:"claude"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StorageConfig configures where artifacts, datasets and the run ledger
// live.
type StorageConfig struct {
	Root       string `yaml:"root" mapstructure:"root"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	LedgerPath string `yaml:"ledger_path" mapstructure:"ledger_path"`
}

// HarvestConfig configures the harvest window and volume.
type HarvestConfig struct {
	StartDate     string `yaml:"start_date" mapstructure:"start_date"`
	EndDate       string `yaml:"end_date" mapstructure:"end_date"`
	Limit         int    `yaml:"limit" mapstructure:"limit"`
	TramitacaoCap int    `yaml:"tramitacao_cap" mapstructure:"tramitacao_cap"`
}

// CrawlConfig configures HTTP politeness.
type CrawlConfig struct {
	DelayMS     int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	Parallelism int    `yaml:"parallelism" mapstructure:"parallelism"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Delay returns the per-domain request delay.
func (c CrawlConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// CatalogConfig points at the house catalog for dataset-backed sources.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ClaudeConfig holds the LLM credentials and model settings.
type ClaudeConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures the batch text-extraction pass.
type ExtractConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
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
	v.SetEnvPrefix("ASSESSORAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("storage.root", "storage/downloads")
	v.SetDefault("storage.output_dir", "output")
	v.SetDefault("storage.ledger_path", "storage/ledger.db")
	v.SetDefault("harvest.tramitacao_cap", 3)
	v.SetDefault("crawl.delay_ms", 1000)
	v.SetDefault("crawl.parallelism", 2)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (compatible; AssessorAI/1.0)")
	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("claude.max_tokens", 8192)
	v.SetDefault("extract.concurrency", 4)
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the harvest cannot run with. Window
// dates must arrive already in ISO form; "15/03/2024" is a
// configuration error, not something to reinterpret.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"harvest.start_date": c.Harvest.StartDate,
		"harvest.end_date":   c.Harvest.EndDate,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return eris.Errorf("config: %s %q is not a YYYY-MM-DD date", name, value)
		}
	}
	if c.Harvest.StartDate != "" && c.Harvest.EndDate != "" && c.Harvest.EndDate < c.Harvest.StartDate {
		return eris.Errorf("config: harvest.end_date %s precedes harvest.start_date %s",
			c.Harvest.EndDate, c.Harvest.StartDate)
	}
	if c.Harvest.Limit < 0 {
		return eris.New("config: harvest.limit must not be negative")
	}
	if c.Harvest.TramitacaoCap < 0 {
		return eris.New("config: harvest.tramitacao_cap must not be negative")
	}
	if c.Storage.Root == "" {
		return eris.New("config: storage.root is required")
	}
	if c.Storage.OutputDir == "" {
		return eris.New("config: storage.output_dir is required")
	}
	return nil
}

// RequireClaude checks the settings the LLM-backed commands need.
func (c *Config) RequireClaude() error {
	if c.Claude.Key == "" {
		return eris.New("config: claude.key is required (set ASSESSORAI_CLAUDE_KEY)")
	}
	return nil
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
