package app

import (
	"strings"

	"github.com/majorjayant/siteconfig/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
// A non-empty file additionally writes rotated JSON logs to that path.
func ConfigureLogging(level, file string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}

	file = strings.TrimSpace(file)
	if file == "" {
		return logger.Init(level)
	}
	return logger.InitWithFile(level, logger.FileOptions{Path: file})
}
