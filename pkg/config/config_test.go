package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Inference.BatchSize)
	assert.Equal(t, int64(42), cfg.Inference.Seed)
	assert.False(t, cfg.Inference.DoLowerCase)
	assert.Equal(t, "de", cfg.Inference.SourceLanguage)
	assert.Equal(t, "en", cfg.Inference.TargetLanguage)
	assert.Equal(t, "BAAI/bge-reranker-base", cfg.Reranker.Model)
	assert.Empty(t, cfg.Inputs.JSONGlob)
	assert.Empty(t, cfg.Telemetry.ParquetPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PARASCORE_JSON_GLOB", "/data/wmtp_*.json")
	t.Setenv("PARASCORE_BATCH_SIZE", "32")
	t.Setenv("PARASCORE_RERANKER_MODEL", "BAAI/bge-reranker-large")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/wmtp_*.json", cfg.Inputs.JSONGlob)
	assert.Equal(t, 32, cfg.Inference.BatchSize)
	assert.Equal(t, "BAAI/bge-reranker-large", cfg.Reranker.Model)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PARASCORE_BATCH_SIZE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Inference.BatchSize)
}
