// Package config loads notion-picker settings from defaults, an optional
// YAML file and the environment (including a .env file).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/notion-picker/pkg/notion"
)

// Environment variables.
const (
	EnvToken          = "NOTION_SECRET"
	EnvAPIURL         = "NOTION_API_URL"
	EnvNotionVersion  = "NOTION_VERSION"
	EnvStatusProperty = "PICKER_STATUS_PROPERTY"
	EnvStatuses       = "PICKER_STATUSES"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogPretty      = "LOG_PRETTY"
	EnvEnvPath        = "ENV_PATH"
)

// DefaultEnvPath is the dotenv file read when ENV_PATH is unset.
const DefaultEnvPath = ".env"

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New(EnvToken + " is not set")

// DefaultStatuses are the status values that make an entry pickable.
var DefaultStatuses = []string{
	"listening",
	"partially watched",
	"paused",
	"playing",
	"reading",
	"shelved",
	"want to play",
	"want to read",
	"want to rewatch",
	"want to watch",
	"want to watch again",
	"watching",
}

// Config holds all notion-picker settings.
type Config struct {
	Token          string   `yaml:"-"` // never read from files
	APIURL         string   `yaml:"api_url"`
	NotionVersion  string   `yaml:"notion_version"`
	StatusProperty string   `yaml:"status_property"`
	Statuses       []string `yaml:"statuses"`
	LogLevel       string   `yaml:"log_level"`
	LogPretty      bool     `yaml:"log_pretty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:         notion.DefaultBaseURL,
		NotionVersion:  notion.DefaultVersion,
		StatusProperty: "Status",
		Statuses:       append([]string(nil), DefaultStatuses...),
		LogLevel:       "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables. A dotenv file is loaded
// into the environment first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Defaults()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()

		if err := decodeYAML(f, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.Statuses = normalizeStatuses(cfg.Statuses)

	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	return &cfg, nil
}

// loadDotEnv loads ENV_PATH, or .env when unset. A missing default file is
// not an error; a missing explicit ENV_PATH is.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(EnvEnvPath)
	if !explicit || path == "" {
		path = DefaultEnvPath
		explicit = false
	}

	err := godotenv.Load(path)
	if err == nil {
		log.Debug().Str("path", path).Msg("Loaded dotenv file")
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load dotenv %s: %w", path, err)
}

func decodeYAML(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Token = getEnv(EnvToken, cfg.Token)
	cfg.APIURL = getEnv(EnvAPIURL, cfg.APIURL)
	cfg.NotionVersion = getEnv(EnvNotionVersion, cfg.NotionVersion)
	cfg.StatusProperty = getEnv(EnvStatusProperty, cfg.StatusProperty)
	cfg.Statuses = getListEnv(EnvStatuses, cfg.Statuses)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.LogPretty = getBoolEnv(EnvLogPretty, cfg.LogPretty)
}

func normalizeStatuses(statuses []string) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getListEnv(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.Split(value, ",")
	}
	return fallback
}
