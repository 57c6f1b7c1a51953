package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AIS:    AISConfig{Key: "test-key", RateLimit: 9},
		TomTom: TomTomConfig{RateLimit: 10},
		Input: InputConfig{
			File:             "input.csv",
			FullAddressField: "address",
		},
		Output: OutputConfig{SRID4326: true},
		Batch:  BatchConfig{Concurrency: 8, TimeoutSecs: 3600},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.phila.gov/ais/v1", cfg.AIS.BaseURL)
	assert.InDelta(t, 9.0, cfg.AIS.RateLimit, 1e-9)
	assert.InDelta(t, 10.0, cfg.TomTom.RateLimit, 1e-9)
	assert.True(t, cfg.Output.SRID4326)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENRICH_AIS_KEY", "env-key")
	t.Setenv("ENRICH_BATCH_CONCURRENCY", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.AIS.Key)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_SplitMode(t *testing.T) {
	cfg := validConfig()
	cfg.Input.FullAddressField = ""
	cfg.Input.StreetField = "street"
	cfg.Input.ZipField = "zip"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input file", func(c *Config) { c.Input.File = "" }},
		{"both address modes", func(c *Config) { c.Input.StreetField = "street" }},
		{"no address mode", func(c *Config) { c.Input.FullAddressField = "" }},
		{"zip without street mode", func(c *Config) {
			c.Input.ZipField = "zip"
		}},
		{"no coordinate system", func(c *Config) { c.Output.SRID4326 = false }},
		{"missing ais key", func(c *Config) { c.AIS.Key = "" }},
		{"zero rate limit", func(c *Config) { c.AIS.RateLimit = 0 }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Batch.TimeoutSecs = 0 }},
		{"unknown enrichment field", func(c *Config) {
			c.Output.EnrichmentFields = []string{"no_such_field"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
