package config

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	Output      OutputConfig
	Extract     ExtractConfig
	Pipeline    PipelineConfig
	Datasets    map[string]DatasetConfig
	Store       StoreConfig
	DuckDB      DuckDBConfig
	B3          B3Config
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	Env         string
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	RawDir string `mapstructure:"raw_dir"`
}

type ExtractConfig struct {
	Backoff BackoffConfig
	Timeout time.Duration `mapstructure:"timeout"`
}

type BackoffConfig struct {
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	RetryMax     int           `mapstructure:"retry_max"`
}

type PipelineConfig struct {
	MaxParallel int `mapstructure:"max_parallel"`
}

// DatasetConfig overrides the built-in defaults of one dataset. Empty fields keep the default.
type DatasetConfig struct {
	URL         string   `mapstructure:"url"`
	Delimiter   string   `mapstructure:"delimiter"`
	Encoding    string   `mapstructure:"encoding"`
	LabelColumn string   `mapstructure:"label_column"`
	DropColumns []string `mapstructure:"drop_columns"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type DuckDBConfig struct {
	Path              string   `mapstructure:"path"`
	ConnInitFnQueries []string `mapstructure:"conn_init_fn_queries"`
}

type B3Config struct {
	URL      string `mapstructure:"url"`
	Encoding string `mapstructure:"encoding"`
	Dir      string `mapstructure:"dir"`
	// ObjectKey is the key the raw parquet is published under.
	ObjectKey string `mapstructure:"object_key"`
}

type ObjectStoreConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RawBucket     string `mapstructure:"raw_bucket"`
	RefinedBucket string `mapstructure:"refined_bucket"`
}

// NewConfig loads the configuration from the provided base config reader
// and merges it with the environment-specific configuration.
func NewConfig(baseConfigReader io.Reader, envConfigReader io.Reader, env string) (*Config, error) {
	if env == "" {
		env = "dev"
	}

	viper.SetConfigType("yaml")

	if err := viper.ReadConfig(baseConfigReader); err != nil {
		return nil, fmt.Errorf("error reading base config: %w", err)
	}

	if envConfigReader != nil {
		if err := viper.MergeConfig(envConfigReader); err != nil {
			log.Printf("Error merging environment-specific config: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	config.Env = env

	return &config, nil
}

