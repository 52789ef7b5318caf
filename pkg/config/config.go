package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Inputs configuration
	Inputs InputsConfig `mapstructure:"inputs"`

	// Inference configuration
	Inference InferenceConfig `mapstructure:"inference"`

	// Reranker configuration
	Reranker RerankerConfig `mapstructure:"reranker"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// InputsConfig selects the corpus files and model checkpoints to process
type InputsConfig struct {
	// JSONGlob matches the corpus files to score
	JSONGlob string `mapstructure:"json_glob"`
	// CheckpointsGlob matches the model checkpoint directories
	CheckpointsGlob string `mapstructure:"checkpoints_glob"`
}

// InferenceConfig holds inference configuration
type InferenceConfig struct {
	BatchSize      int    `mapstructure:"batch_size"`
	Seed           int64  `mapstructure:"seed"`
	DoLowerCase    bool   `mapstructure:"do_lower_case"`
	SourceLanguage string `mapstructure:"source_language"`
	TargetLanguage string `mapstructure:"target_language"`
}

// RerankerConfig holds configuration for the local cross-encoder backend
type RerankerConfig struct {
	Model string `mapstructure:"model"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")

	// Inference defaults
	viper.SetDefault("inference.batch_size", 8)
	viper.SetDefault("inference.seed", 42)
	viper.SetDefault("inference.do_lower_case", false)
	viper.SetDefault("inference.source_language", "de")
	viper.SetDefault("inference.target_language", "en")

	// Reranker defaults
	viper.SetDefault("reranker.model", "BAAI/bge-reranker-base")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if glob := os.Getenv("PARASCORE_JSON_GLOB"); glob != "" {
		config.Inputs.JSONGlob = glob
	}
	if glob := os.Getenv("PARASCORE_CHECKPOINTS_GLOB"); glob != "" {
		config.Inputs.CheckpointsGlob = glob
	}
	if size := os.Getenv("PARASCORE_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.Inference.BatchSize = n
		}
	}
	if model := os.Getenv("PARASCORE_RERANKER_MODEL"); model != "" {
		config.Reranker.Model = model
	}
	if path := os.Getenv("PARASCORE_TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
