// Package config loads application configuration from file, environment, and
// defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arogyamap/access-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string            `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// DatasetConfig configures dataset acquisition and parsing.
type DatasetConfig struct {
	FacilitiesURL  string `yaml:"facilities_url" mapstructure:"facilities_url"`
	RegionsURL     string `yaml:"regions_url" mapstructure:"regions_url"`
	RoadsURL       string `yaml:"roads_url" mapstructure:"roads_url"`
	BoundaryURL    string `yaml:"boundary_url" mapstructure:"boundary_url"`
	PopulationURL  string `yaml:"population_url" mapstructure:"population_url"`
	DataDir        string `yaml:"data_dir" mapstructure:"data_dir"`
	AliasFile      string `yaml:"alias_file" mapstructure:"alias_file"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	PopulationCSV  PopulationTable `yaml:"population_csv" mapstructure:"population_csv"`
}

// PopulationTable selects the columns of the census table.
type PopulationTable struct {
	DistrictCol   int    `yaml:"district_col" mapstructure:"district_col"`
	PopulationCol int    `yaml:"population_col" mapstructure:"population_col"`
	SkipRows      int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	SheetName     string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// PipelineConfig tunes one scoring run.
type PipelineConfig struct {
	UTMZone        int      `yaml:"utm_zone" mapstructure:"utm_zone"`
	Southern       bool     `yaml:"southern" mapstructure:"southern"`
	GoodThreshold  float64  `yaml:"good_threshold" mapstructure:"good_threshold"`
	PoorThreshold  float64  `yaml:"poor_threshold" mapstructure:"poor_threshold"`
	RoadCategories []string `yaml:"road_categories" mapstructure:"road_categories"`
	RoadSearchM    float64  `yaml:"road_search_m" mapstructure:"road_search_m"`
	Concurrency    int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml, ACCESS_* environment variables,
// and defaults, in that order of precedence.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACCESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "access.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("dataset.data_dir", "data")
	v.SetDefault("dataset.user_agent", "access-cli/1.0")
	v.SetDefault("dataset.population_csv.district_col", 0)
	v.SetDefault("dataset.population_csv.population_col", 1)
	v.SetDefault("dataset.population_csv.skip_rows", 1)
	v.SetDefault("pipeline.utm_zone", 43)
	v.SetDefault("pipeline.good_threshold", 0.8)
	v.SetDefault("pipeline.poor_threshold", 1.2)
	v.SetDefault("pipeline.road_categories", []string{"primary", "secondary"})
	v.SetDefault("pipeline.road_search_m", 5000)

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
