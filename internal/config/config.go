package config

import (
	"time"
)

type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Wait      WaitConfig      `mapstructure:"wait"`
	Inspector InspectorConfig `mapstructure:"inspector"`
	History   HistoryConfig   `mapstructure:"history"`

	// Environment names the target deployment (prod, stage, ...) and is the
	// value the <environment> placeholder resolves to.
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CaptureConfig struct {
	// EndpointPattern is a regexp matched against the request host+path.
	// Only POST requests matching it enter the captured log.
	EndpointPattern string `mapstructure:"endpoint_pattern"`
}

type TemplatesConfig struct {
	// Dir is the root of the per-area module template tree:
	// {dir}/{AREA}/{sanitized module title}.json
	Dir string `mapstructure:"dir"`
}

type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

type BrowserConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Headless bool          `mapstructure:"headless"`
	SlowMoMS int           `mapstructure:"slow_mo_ms"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// Screenshots enables a failure screenshot under the artifacts dir.
	Screenshots bool `mapstructure:"screenshots"`
}

type WaitConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type InspectorConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Port                int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type HistoryConfig struct {
	// MongoURI empty disables run-history persistence.
	MongoURI string `mapstructure:"mongo_uri"`
	Database string `mapstructure:"database"`
}
