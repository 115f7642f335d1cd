package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/majorjayant/siteconfig/internal/app"
)

func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return app.LoadConfig(path)
	case err == nil:
		return app.LoadConfigFile(path)
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	}
	return nil, fmt.Errorf("stat config path: %w", err)
}

// prepareConfig loads, logs and validates the configuration. The returned map
// lists runtime secrets that were generated rather than configured.
func prepareConfig(path string) (*app.Config, map[string]bool, error) {
	cfg, err := loadApplicationConfig(path)
	if err != nil {
		return nil, nil, err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.LogFile); err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, generated, nil
}
