// Package config loads and validates the application configuration from
// file, environment, and flags. Validation failures are fatal before any
// batch work starts; a misconfigured run never processes a single row.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phila-data/enrich-cli/internal/fields"
)

// Config holds the full application configuration.
type Config struct {
	AIS       AISConfig    `yaml:"ais" mapstructure:"ais"`
	TomTom    TomTomConfig `yaml:"tomtom" mapstructure:"tomtom"`
	Input     InputConfig  `yaml:"input" mapstructure:"input"`
	Output    OutputConfig `yaml:"output" mapstructure:"output"`
	Batch     BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig    `yaml:"log" mapstructure:"log"`
	Reference RefConfig    `yaml:"reference" mapstructure:"reference"`
}

// AISConfig holds the primary geocoding service settings.
type AISConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TomTomConfig holds the secondary geocoding service settings.
type TomTomConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// InputConfig describes how to find addresses in the input table. Either
// FullAddressField names a single-line address column, or StreetField
// (plus optional City/State/Zip columns) names split components; the two
// modes are mutually exclusive.
type InputConfig struct {
	File             string `yaml:"file" mapstructure:"file"`
	FullAddressField string `yaml:"full_address_field" mapstructure:"full_address_field"`
	StreetField      string `yaml:"street_field" mapstructure:"street_field"`
	CityField        string `yaml:"city_field" mapstructure:"city_field"`
	StateField       string `yaml:"state_field" mapstructure:"state_field"`
	ZipField         string `yaml:"zip_field" mapstructure:"zip_field"`
}

// OutputConfig selects enrichment fields and coordinate systems for the
// output file.
type OutputConfig struct {
	File             string   `yaml:"file" mapstructure:"file"`
	EnrichmentFields []string `yaml:"enrichment_fields" mapstructure:"enrichment_fields"`
	SRID4326         bool     `yaml:"srid_4326" mapstructure:"srid_4326"`
	SRID2272         bool     `yaml:"srid_2272" mapstructure:"srid_2272"`
}

// BatchConfig bounds batch concurrency and wall-clock runtime.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RefConfig locates the local address reference table.
type RefConfig struct {
	Database string `yaml:"database" mapstructure:"database"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one (empty where there is no sensible
	// value) so AutomaticEnv overrides reach Unmarshal.
	v.SetDefault("ais.key", "")
	v.SetDefault("ais.base_url", "https://api.phila.gov/ais/v1")
	v.SetDefault("ais.rate_limit", 9.0)
	v.SetDefault("tomtom.base_url", "https://citygeo-geocoder-aws.phila.city/arcgis/rest/services/TomTom/US_StreetAddress/GeocodeServer")
	v.SetDefault("tomtom.rate_limit", 10.0)
	v.SetDefault("input.file", "")
	v.SetDefault("input.full_address_field", "")
	v.SetDefault("input.street_field", "")
	v.SetDefault("input.city_field", "")
	v.SetDefault("input.state_field", "")
	v.SetDefault("input.zip_field", "")
	v.SetDefault("output.file", "")
	v.SetDefault("output.enrichment_fields", []string{})
	v.SetDefault("output.srid_4326", true)
	v.SetDefault("output.srid_2272", false)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.timeout_secs", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("reference.database", "reference.db")

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

// Validate checks the invariants a batch run depends on. Any error here
// is fatal and reported before the first record is processed.
func (c *Config) Validate() error {
	if c.Input.File == "" {
		return eris.New("config: input file is required")
	}

	full := c.Input.FullAddressField != ""
	split := c.Input.StreetField != ""
	switch {
	case full && split:
		return eris.New("config: full_address_field and street_field are mutually exclusive")
	case !full && !split:
		return eris.New("config: one of full_address_field or street_field is required")
	}
	if !split && (c.Input.CityField != "" || c.Input.StateField != "" || c.Input.ZipField != "") {
		return eris.New("config: city/state/zip fields require street_field mode")
	}

	if !c.Output.SRID4326 && !c.Output.SRID2272 {
		return eris.New("config: at least one output coordinate system is required")
	}

	if c.AIS.Key == "" {
		return eris.New("config: ais key is required")
	}
	if c.AIS.RateLimit <= 0 || c.TomTom.RateLimit <= 0 {
		return eris.New("config: rate limits must be positive")
	}

	if c.Batch.Concurrency < 1 {
		return eris.New("config: batch concurrency must be at least 1")
	}
	if c.Batch.TimeoutSecs < 1 {
		return eris.New("config: batch timeout must be at least 1 second")
	}

	if err := fields.Validate(c.Output.EnrichmentFields); err != nil {
		return err
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
