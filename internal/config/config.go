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
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Reference ReferenceConfig `yaml:"reference" mapstructure:"reference"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates the coded-study table.
type SourceConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	IDColumn    string `yaml:"id_column" mapstructure:"id_column"`
	TitleColumn string `yaml:"title_column" mapstructure:"title_column"`
	// ScalarColumns are carried once per record into the master table.
	ScalarColumns []string `yaml:"scalar_columns" mapstructure:"scalar_columns"`
}

// ReferenceConfig locates reference tables and alias maps.
type ReferenceConfig struct {
	// Dir holds <field>.csv and <field>_curated.yaml per field.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// AliasDir holds one <column>.csv or <column>.yaml alias map per column.
	AliasDir string `yaml:"alias_dir" mapstructure:"alias_dir"`
	// Boundaries is an optional administrative-boundary shapefile.
	Boundaries     string               `yaml:"boundaries" mapstructure:"boundaries"`
	BoundaryFields BoundaryFieldsConfig `yaml:"boundary_fields" mapstructure:"boundary_fields"`
}

// BoundaryFieldsConfig names the shapefile attributes.
type BoundaryFieldsConfig struct {
	Country    string `yaml:"country" mapstructure:"country"`
	Region     string `yaml:"region" mapstructure:"region"`
	RegionType string `yaml:"region_type" mapstructure:"region_type"`
}

// OutputConfig configures exported artifacts.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Workbook bool   `yaml:"workbook" mapstructure:"workbook"`
}

// PipelineConfig configures field processing.
type PipelineConfig struct {
	// Fields restricts runs to the named fields. Empty runs every field.
	Fields      []string `yaml:"fields" mapstructure:"fields"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PublishConfig configures loading long tables into PostgreSQL.
type PublishConfig struct {
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	Schema         string `yaml:"schema" mapstructure:"schema"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ServerConfig configures the review API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("CURATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.path", "data/coded_studies.xlsx")
	v.SetDefault("source.id_column", "study_id")
	v.SetDefault("source.title_column", "title")
	v.SetDefault("source.scalar_columns", []string{"publication_year", "evidence_type", "offset_category"})
	v.SetDefault("reference.dir", "reference")
	v.SetDefault("reference.alias_dir", "reference/aliases")
	v.SetDefault("reference.boundary_fields.country", "NAME_0")
	v.SetDefault("reference.boundary_fields.region", "NAME_1")
	v.SetDefault("reference.boundary_fields.region_type", "ENGTYPE_1")
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.workbook", true)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "curate.db")
	v.SetDefault("publish.schema", "curation")
	v.SetDefault("publish.retry_attempts", 3)
	v.SetDefault("publish.retry_backoff_ms", 500)
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

// Validate checks the settings a command mode depends on. Modes are
// "standardize", "publish" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "standardize":
		if c.Source.Path == "" {
			problems = append(problems, "source.path is required")
		}
		if c.Source.IDColumn == "" || c.Source.TitleColumn == "" {
			problems = append(problems, "source.id_column and source.title_column are required")
		}
		if c.Output.Dir == "" {
			problems = append(problems, "output.dir is required")
		}
	case "publish":
		if c.Publish.DatabaseURL == "" {
			problems = append(problems, "publish.database_url is required")
		}
		if c.Output.Dir == "" {
			problems = append(problems, "output.dir is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 16 {
		problems = append(problems, "pipeline.concurrency must be between 1 and 16")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
