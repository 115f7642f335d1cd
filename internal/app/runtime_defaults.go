package app

import (
	"fmt"
	"strings"

	"github.com/majorjayant/siteconfig/pkg/crypto"
)

const jwtSecretBytes = 48

// GeneratedJWTSecret is the key ApplyRuntimeDefaults reports when it had to
// mint a token secret.
const GeneratedJWTSecret = "auth.jwt.secret"

// ApplyRuntimeDefaults ensures the token secret is populated even when no configuration
// file is supplied. It returns a map describing which keys were generated so callers can
// log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated[GeneratedJWTSecret] = true
	}

	return generated, nil
}
