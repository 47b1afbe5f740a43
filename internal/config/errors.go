package config

import (
	"fmt"
	"strings"
)

// ConfigurationError lists every missing or invalid setting at once.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, "; "))
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return fmt.Sprintf("configuration error: %s", strings.Join(parts, "; "))
}
