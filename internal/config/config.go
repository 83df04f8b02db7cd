// Package config holds the runtime settings of the dashboard and the user's
// saved preferences.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// Environment variables read at startup.
const (
	EnvDBPath      = "STRYD_DB"
	EnvLLMURL      = "OLLAMA_API_URL"
	EnvPort        = "STRYD_PORT"
	EnvChatTimeout = "STRYD_CHAT_TIMEOUT"
	EnvPrefsPath   = "STRYD_PREFS"
)

// Defaults for the runtime settings.
const (
	DefaultDBPath      = "stryd_activities.db"
	DefaultLLMURL      = "http://localhost:11434"
	DefaultPort        = 3000
	DefaultMCPPort     = 8081
	DefaultChatTimeout = 2 * time.Minute
	DefaultPrefsPath   = "preferences.toml"
)

// Runtime is the process configuration assembled from flags and environment.
type Runtime struct {
	DBPath      string
	Port        int
	MCPPort     int
	LLMURL      string
	ChatTimeout time.Duration
	PrefsPath   string
	LogFile     string
	OpenBrowser bool
}

// LoadEnv loads variables from the given .env files (".env" when none is
// given) without overriding variables already set. A missing file is not an
// error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		logging.Debug("no .env file found", "files", files)
		return nil
	}

	logging.Debug("loading environment files", "files", present)
	return godotenv.Load(present...)
}

// DefaultRuntime returns the defaults with environment overrides applied.
func DefaultRuntime() Runtime {
	return Runtime{
		DBPath:      EnvString(EnvDBPath, DefaultDBPath),
		Port:        EnvInt(EnvPort, DefaultPort),
		MCPPort:     DefaultMCPPort,
		LLMURL:      EnvString(EnvLLMURL, DefaultLLMURL),
		ChatTimeout: EnvDuration(EnvChatTimeout, DefaultChatTimeout),
		PrefsPath:   EnvString(EnvPrefsPath, DefaultPrefsPath),
	}
}

// EnvString returns the variable's value or def when unset or empty.
func EnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns the variable parsed as an int or def when unset or invalid.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn("ignoring invalid integer in environment", "key", key, "value", v)
		return def
	}
	return n
}

// EnvDuration returns the variable parsed as a time.Duration ("90s", "2m")
// or def when unset or invalid.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logging.Warn("ignoring invalid duration in environment", "key", key, "value", v)
		return def
	}
	return d
}
