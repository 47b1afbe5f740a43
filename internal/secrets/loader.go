package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when neither an inline value nor a file provides the secret.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes where an API credential comes from.
type Source struct {
	// Name is used in error messages, e.g. "notion api key".
	Name string
	// Value is the inline secret from flags, environment or the config file.
	Value string
	// File points to a file holding the secret. When set it takes precedence over Value.
	File string
}

// Load returns the trimmed secret from src. A missing or empty secret yields an
// error wrapping ErrNotConfigured; an unreadable file yields the read error.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	value := src.Value
	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		value = string(data)
	}

	secret := strings.TrimSpace(value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrNotConfigured)
		}
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	return secret, nil
}
