package auth

import (
	"crypto/subtle"
	"sync"
)

// SecretValidator checks candidate secrets against the configured set.
type SecretValidator struct {
	mu      sync.RWMutex
	secrets [][]byte
}

// NewSecretValidator creates a validator accepting any of secrets. Empty
// strings are ignored; a validator with no secrets rejects everything.
func NewSecretValidator(secrets ...string) *SecretValidator {
	v := &SecretValidator{}
	v.Rotate(secrets...)
	return v
}

// Validate reports whether candidate matches a configured secret. Every
// secret is compared so timing does not reveal which one matched.
func (v *SecretValidator) Validate(candidate string) bool {
	if candidate == "" {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	matched := 0
	for _, secret := range v.secrets {
		matched |= subtle.ConstantTimeCompare(secret, []byte(candidate))
	}
	return matched == 1
}

// Rotate replaces the accepted secrets.
func (v *SecretValidator) Rotate(secrets ...string) {
	next := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			next = append(next, []byte(s))
		}
	}

	v.mu.Lock()
	v.secrets = next
	v.mu.Unlock()
}

// Configured reports whether at least one secret is set.
func (v *SecretValidator) Configured() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.secrets) > 0
}
