package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("environment", "TRACKCHECK_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("capture.endpoint_pattern", "CAPTURE_ENDPOINT_PATTERN")
	viper.BindEnv("templates.dir", "TEMPLATES_DIR")
	viper.BindEnv("artifacts.dir", "ARTIFACTS_DIR")

	viper.BindEnv("browser.base_url", "BROWSER_BASE_URL")
	viper.BindEnv("browser.headless", "BROWSER_HEADLESS")
	viper.BindEnv("browser.timeout", "BROWSER_TIMEOUT")

	viper.BindEnv("inspector.enabled", "INSPECTOR_ENABLED")
	viper.BindEnv("inspector.port", "INSPECTOR_PORT")

	viper.BindEnv("history.mongo_uri", "HISTORY_MONGO_URI")
	viper.BindEnv("history.database", "HISTORY_DATABASE")
}

func setDefaults() {
	viper.SetDefault("environment", "prod")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("capture.endpoint_pattern", `aplus\.gmarket\.co(\.kr|m)`)
	viper.SetDefault("templates.dir", "config")
	viper.SetDefault("artifacts.dir", "json")

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.timeout", 30*time.Second)
	viper.SetDefault("browser.screenshots", true)

	viper.SetDefault("wait.initial_interval", 250*time.Millisecond)
	viper.SetDefault("wait.max_interval", 2*time.Second)
	viper.SetDefault("wait.max_elapsed_time", 15*time.Second)

	viper.SetDefault("inspector.port", 8080)
	viper.SetDefault("inspector.read_timeout", 10*time.Second)
	viper.SetDefault("inspector.write_timeout", 10*time.Second)

	viper.SetDefault("history.database", "trackcheck")
}
