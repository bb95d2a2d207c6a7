package config

import (
	"fmt"
	"regexp"
)

func ValidateStatic(cfg *Config) error {
	if cfg.Environment == "" {
		return fmt.Errorf("environment must not be empty")
	}

	if cfg.Capture.EndpointPattern == "" {
		return fmt.Errorf("capture.endpoint_pattern must not be empty")
	}
	if _, err := regexp.Compile(cfg.Capture.EndpointPattern); err != nil {
		return fmt.Errorf("capture.endpoint_pattern is not a valid regexp: %w", err)
	}

	if cfg.Templates.Dir == "" {
		return fmt.Errorf("templates.dir must not be empty")
	}
	if cfg.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir must not be empty")
	}

	if cfg.Wait.InitialInterval <= 0 || cfg.Wait.MaxInterval <= 0 || cfg.Wait.MaxElapsedTime <= 0 {
		return fmt.Errorf("wait intervals must be positive")
	}
	if cfg.Wait.InitialInterval > cfg.Wait.MaxInterval {
		return fmt.Errorf("wait.initial_interval must not exceed wait.max_interval")
	}

	if cfg.Inspector.Enabled && (cfg.Inspector.Port < 1 || cfg.Inspector.Port > 65535) {
		return fmt.Errorf("inspector.port must be in range 1-65535, got %d", cfg.Inspector.Port)
	}
	if cfg.Inspector.ReadTimeout <= 0 || cfg.Inspector.WriteTimeout <= 0 {
		return fmt.Errorf("inspector timeouts must be positive")
	}

	if cfg.History.MongoURI != "" && cfg.History.Database == "" {
		return fmt.Errorf("history.database must be set when history.mongo_uri is set")
	}

	return nil
}
