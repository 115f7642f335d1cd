package app

import (
	"github.com/majorjayant/siteconfig/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// Credential builds the admin credential. It fails when either half is unset.
func (c AuthConfig) Credential() (auth.Credential, error) {
	return auth.NewCredential(c.Admin.Username, c.Admin.Password)
}
