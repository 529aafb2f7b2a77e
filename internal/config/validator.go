package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for required fields and obviously wrong values.
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.App.ID == "" {
		errs = append(errs, "app.id is required")
	}
	if cfg.Server.QueueWarnDepth < 0 {
		errs = append(errs, "server.queue_warn_depth must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
