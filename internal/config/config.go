package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Cog     CogConfig     `yaml:"cog" mapstructure:"cog"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// DatasetConfig supplies dataset properties when no metadata document is used.
type DatasetConfig struct {
	Title       string  `yaml:"title" mapstructure:"title" validate:"required"`
	Description string  `yaml:"description" mapstructure:"description"`
	MetadataURL string  `yaml:"metadata_url" mapstructure:"metadata_url"`
	EPSG        int     `yaml:"epsg" mapstructure:"epsg" validate:"gt=0"`
	Resolution  float64 `yaml:"resolution" mapstructure:"resolution" validate:"gt=0"`
}

// CogConfig configures COG output.
type CogConfig struct {
	BlockSize    int    `yaml:"block_size" mapstructure:"block_size" validate:"gt=0"`
	DeflateLevel int    `yaml:"deflate_level" mapstructure:"deflate_level" validate:"min=1,max=12"`
	Tiles        int    `yaml:"tiles" mapstructure:"tiles" validate:"min=1"`
	SkipEmpty    bool   `yaml:"skip_empty" mapstructure:"skip_empty"`
	TmpDir       string `yaml:"tmp_dir" mapstructure:"tmp_dir"`
}

// FetchConfig configures metadata and asset package downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Retries     int    `yaml:"retries" mapstructure:"retries" validate:"min=0"`
}

func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("dataset.title", "2015 Land Cover of Canada")
	v.SetDefault("dataset.description", "")
	v.SetDefault("dataset.metadata_url", "https://open.canada.ca/data/en/dataset/4e615eae-b90c-420b-adee-2ca35896caf6.jsonld")
	v.SetDefault("dataset.epsg", 3978)
	v.SetDefault("dataset.resolution", 30.0)
	v.SetDefault("cog.block_size", 512)
	v.SetDefault("cog.deflate_level", 9)
	v.SetDefault("cog.tiles", 1)
	v.SetDefault("cog.skip_empty", false)
	v.SetDefault("cog.tmp_dir", "")
	v.SetDefault("fetch.timeout_secs", 600)
	v.SetDefault("fetch.user_agent", "landcover-stac")
	v.SetDefault("fetch.retries", 2)

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
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: validate")
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
