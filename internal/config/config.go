package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/spigell/cv-screener/internal/secrets"
)

const (
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultTimezone          = "UTC"
	DefaultGeminiConcurrency = 10
	DefaultNotionConcurrency = 5
	DefaultDebounce          = 2 * time.Second
	DefaultItemTimeout       = 300 * time.Second

	MaxTemperature = 2.0
)

// Config is the validated, read-only configuration of a run.
type Config struct {
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	Notion      NotionConfig      `mapstructure:"notion"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Timezone    string            `mapstructure:"timezone"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Export      ExportConfig      `mapstructure:"export"`

	location *time.Location
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type NotionConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	DatabaseID string `mapstructure:"database-id"`
}

type ConcurrencyConfig struct {
	Gemini int `mapstructure:"gemini"`
	Notion int `mapstructure:"notion"`
}

type WatchConfig struct {
	Debounce    time.Duration `mapstructure:"debounce"`
	ItemTimeout time.Duration `mapstructure:"item-timeout"`
}

type ExportConfig struct {
	Output            string `mapstructure:"output"`
	SheetID           string `mapstructure:"sheet-id"`
	SheetName         string `mapstructure:"sheet-name"`
	SheetsCredentials string `mapstructure:"sheets-credentials"`
}

// Location is the time zone used for processing timestamps.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// envBindings maps config keys to the environment variables of the tool.
var envBindings = map[string]string{
	"gemini.api-key":            "GEMINI_API_KEY",
	"gemini.api-key-file":       "GEMINI_API_KEY_FILE",
	"gemini.model":              "GEMINI_MODEL",
	"gemini.temperature":        "TEMPERATURE",
	"notion.api-key":            "NOTION_API_KEY",
	"notion.api-key-file":       "NOTION_API_KEY_FILE",
	"notion.database-id":        "NOTION_DATABASE_ID",
	"timezone":                  "TIMEZONE",
	"concurrency.gemini":        "MAX_GEMINI_CONCURRENT",
	"concurrency.notion":        "MAX_NOTION_CONCURRENT",
	"watch.debounce":            "WATCH_DEBOUNCE",
	"watch.item-timeout":        "WATCH_ITEM_TIMEOUT",
	"export.sheet-id":           "GOOGLE_SHEET_ID",
	"export.sheets-credentials": "GOOGLE_APPLICATION_CREDENTIALS",
}

// EnvNames returns the environment variable bound to each config key.
func EnvNames() map[string]string {
	out := make(map[string]string, len(envBindings))
	for k, v := range envBindings {
		out[k] = v
	}
	return out
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) error {
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max-log-length", 200)
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("concurrency.gemini", DefaultGeminiConcurrency)
	v.SetDefault("concurrency.notion", DefaultNotionConcurrency)
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("watch.item-timeout", DefaultItemTimeout)
	v.SetDefault("export.sheet-name", "Candidates")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

// LoadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load decodes the settings of v, resolves secrets and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, &ConfigurationError{Invalid: []string{fmt.Sprintf("decoding configuration: %v", err)}}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	problems := &ConfigurationError{}

	geminiKey, err := secrets.Load(secrets.Source{Name: "gemini api key", Value: c.Gemini.APIKey, File: c.Gemini.APIKeyFile})
	switch {
	case errors.Is(err, secrets.ErrNotConfigured):
		problems.Missing = append(problems.Missing, envBindings["gemini.api-key"])
	case err != nil:
		problems.Invalid = append(problems.Invalid, err.Error())
	}
	c.Gemini.APIKey = geminiKey

	notionKey, err := secrets.Load(secrets.Source{Name: "notion api key", Value: c.Notion.APIKey, File: c.Notion.APIKeyFile})
	switch {
	case errors.Is(err, secrets.ErrNotConfigured):
		problems.Missing = append(problems.Missing, envBindings["notion.api-key"])
	case err != nil:
		problems.Invalid = append(problems.Invalid, err.Error())
	}
	c.Notion.APIKey = notionKey

	c.Notion.DatabaseID = strings.TrimSpace(c.Notion.DatabaseID)
	if c.Notion.DatabaseID == "" {
		problems.Missing = append(problems.Missing, envBindings["notion.database-id"])
	}

	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = DefaultGeminiModel
	}

	if err := c.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			problems.Invalid = append(problems.Invalid, e.Error())
		}
	}

	if len(problems.Missing) > 0 || len(problems.Invalid) > 0 {
		return problems
	}
	return nil
}

// Validate checks the value ranges of the configuration and loads the time zone.
func (c *Config) Validate() error {
	var err error

	if c.Concurrency.Gemini < 1 {
		err = multierr.Append(err, fmt.Errorf("%s must be at least 1, got %d", envBindings["concurrency.gemini"], c.Concurrency.Gemini))
	}
	if c.Concurrency.Notion < 1 {
		err = multierr.Append(err, fmt.Errorf("%s must be at least 1, got %d", envBindings["concurrency.notion"], c.Concurrency.Notion))
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > MaxTemperature {
		err = multierr.Append(err, fmt.Errorf("%s must be between 0 and %.1f, got %v", envBindings["gemini.temperature"], MaxTemperature, c.Gemini.Temperature))
	}
	if c.Watch.Debounce < 0 {
		err = multierr.Append(err, fmt.Errorf("watch debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if c.Watch.ItemTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("watch item timeout must be positive, got %s", c.Watch.ItemTimeout))
	}

	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, locErr := time.LoadLocation(tz)
	if locErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s %q is not a known time zone", envBindings["timezone"], c.Timezone))
	} else {
		c.Timezone = tz
		c.location = loc
	}

	return err
}
