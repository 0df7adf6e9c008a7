package settings

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/weblate-settings/internal/env"
)

// secretKeyChars matches Django's get_random_secret_key alphabet.
const secretKeyChars = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"

const secretKeyLength = 50

// resolveSecret prefers the secret file, then the environment, then the
// built-in key. Trailing newlines written by editors are dropped.
func resolveSecret(r *env.Reader, path string, readFile func(string) ([]byte, error)) (string, SecretSource) {
	if path != "" && readFile != nil {
		if data, err := readFile(path); err == nil {
			return strings.TrimRight(string(data), "\r\n"), SecretFromFile
		}
	}
	if v, ok := r.Lookup("WEBLATE_SECRET_KEY"); ok {
		return v, SecretFromEnv
	}
	return DefaultSecretKey, SecretFromDefault
}

// GenerateSecretKey returns a random 50 character key.
func GenerateSecretKey() (string, error) {
	limit := big.NewInt(int64(len(secretKeyChars)))
	var b strings.Builder
	b.Grow(secretKeyLength)
	for i := 0; i < secretKeyLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate secret key: %w", err)
		}
		b.WriteByte(secretKeyChars[n.Int64()])
	}
	return b.String(), nil
}

// WriteSecretKey generates a key and stores it at path with owner-only
// permissions. An existing file is kept unless force is set.
func WriteSecretKey(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrSecretExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat secret file: %w", err)
		}
	}

	key, err := GenerateSecretKey()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create secret directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
		return "", fmt.Errorf("write secret file: %w", err)
	}
	return key, nil
}
