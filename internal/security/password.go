package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/automation-hub/hub/internal/settings"
	"golang.org/x/crypto/bcrypt"
)

// ErrNoLocalCredential reports a user created by import without a password.
var ErrNoLocalCredential = errors.New("user has no local credential")

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("security: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("security: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a plaintext password. Imported users carry the
// sentinel instead of a hash and can never log in.
func CheckPassword(hash, password string) error {
	if hash == "" || hash == settings.ImportedUserPassword {
		return ErrNoLocalCredential
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
