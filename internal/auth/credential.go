package auth

import (
	"errors"
	"strings"

	"github.com/majorjayant/siteconfig/pkg/crypto"
)

// ErrCredentialMissing is returned when the admin account is not configured.
var ErrCredentialMissing = errors.New("auth: admin username and password must be configured")

// Credential is the single admin account. Password holds either the
// plaintext secret or a bcrypt digest of it.
type Credential struct {
	Username string
	Password string
}

// NewCredential validates the injected admin account.
func NewCredential(username, password string) (Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Credential{}, ErrCredentialMissing
	}
	return Credential{Username: username, Password: password}, nil
}

// Hashed reports whether the configured password is a bcrypt digest.
func (c Credential) Hashed() bool {
	return crypto.IsBcryptHash(c.Password)
}

// Verify compares both fields exactly. Both comparisons always run so a
// wrong username costs the same as a wrong password.
func (c Credential) Verify(username, password string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}

	userOK := crypto.ConstantTimeEqual(c.Username, username)

	var passOK bool
	if c.Hashed() {
		passOK = crypto.VerifyPassword(c.Password, password)
	} else {
		passOK = crypto.ConstantTimeEqual(c.Password, password)
	}

	return userOK && passOK
}
