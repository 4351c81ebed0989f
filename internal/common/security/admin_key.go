package security

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKey checks login credentials against the configured admin key, which
// is either a bcrypt hash or the plain key.
type AdminKey struct {
	hash  []byte
	plain []byte
}

func NewAdminKey(configured string) (*AdminKey, error) {
	if configured == "" {
		return nil, errors.New("admin key must not be empty")
	}
	if _, err := bcrypt.Cost([]byte(configured)); err == nil {
		return &AdminKey{hash: []byte(configured)}, nil
	}
	return &AdminKey{plain: []byte(configured)}, nil
}

func (k *AdminKey) Matches(credential string) bool {
	if k.hash != nil {
		return bcrypt.CompareHashAndPassword(k.hash, []byte(credential)) == nil
	}
	return subtle.ConstantTimeCompare(k.plain, []byte(credential)) == 1
}

// HashAdminKey produces a value suitable for ADMIN_KEY.
func HashAdminKey(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("admin key must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin key: %w", err)
	}
	return string(hashed), nil
}
