package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// ErrInvalidPreferences is returned when a preference value is out of range.
var ErrInvalidPreferences = errors.New("invalid preferences")

// Preferences are the user's saved dashboard settings.
type Preferences struct {
	Language         string `toml:"language" json:"language"`
	Theme            string `toml:"theme" json:"theme"`
	MapProvider      string `toml:"map_provider" json:"mapProvider"`
	AIModel          string `toml:"ai_model" json:"aiModel"`
	AIInstanceType   string `toml:"ai_instance_type" json:"aiInstanceType"`
	AIRemoteURL      string `toml:"ai_remote_url,omitempty" json:"aiRemoteUrl,omitempty"`
	RemoteServerType string `toml:"remote_server_type,omitempty" json:"remoteServerType,omitempty"`
	RemoteModelName  string `toml:"remote_model_name,omitempty" json:"remoteModelName,omitempty"`
	StartDate        string `toml:"start_date,omitempty" json:"startDate,omitempty"`
}

// Allowed preference values.
var (
	Languages         = []string{"en", "fr"}
	Themes            = []string{"light", "dark"}
	MapProviders      = []string{"leaflet", "maplibre"}
	AIModels          = []string{"mistral", "llama3.1", "phi3", "gemma2", "qwen2.5"}
	AIInstanceTypes   = []string{"local", "remote"}
	RemoteServerTypes = []string{"ollama", "lmstudio"}
)

// DefaultPreferences returns the settings used before anything is saved.
func DefaultPreferences() Preferences {
	return Preferences{
		Language:       "en",
		Theme:          "light",
		MapProvider:    "leaflet",
		AIModel:        "mistral",
		AIInstanceType: "local",
	}
}

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q not in %v", ErrInvalidPreferences, field, value, allowed)
}

// Validate checks every field against its allowed values.
func (p Preferences) Validate() error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"language", p.Language, Languages},
		{"theme", p.Theme, Themes},
		{"map_provider", p.MapProvider, MapProviders},
		{"ai_model", p.AIModel, AIModels},
		{"ai_instance_type", p.AIInstanceType, AIInstanceTypes},
	}
	for _, c := range checks {
		if err := oneOf(c.field, c.value, c.allowed); err != nil {
			return err
		}
	}

	if p.RemoteServerType != "" {
		if err := oneOf("remote_server_type", p.RemoteServerType, RemoteServerTypes); err != nil {
			return err
		}
	}
	if p.AIInstanceType == "remote" && p.AIRemoteURL == "" {
		return fmt.Errorf("%w: ai_remote_url is required for a remote instance", ErrInvalidPreferences)
	}
	if p.StartDate != "" {
		if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
			return fmt.Errorf("%w: start_date %q must be YYYY-MM-DD", ErrInvalidPreferences, p.StartDate)
		}
	}
	return nil
}

// LoadPreferences reads preferences from a TOML file. A missing file yields
// the defaults. A corrupt or invalid file also yields the defaults, along with
// the error so the caller can report it. Fields absent from the file keep
// their default value.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("no preferences file, using defaults", "path", path)
			return prefs, nil
		}
		return DefaultPreferences(), fmt.Errorf("reading preferences: %w", err)
	}

	if _, err := toml.Decode(string(data), &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("decoding preferences %s: %w", path, err)
	}
	if err := prefs.Validate(); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

// SavePreferences validates and writes preferences to path, replacing the
// file atomically.
func SavePreferences(path string, prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(prefs); err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".preferences-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp preferences file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing preferences: %w", err)
	}

	logging.Debug("preferences saved", "path", path)
	return nil
}

// PreferenceStore serialises access to the preferences file.
type PreferenceStore struct {
	path string

	mu      sync.RWMutex
	current Preferences
}

// NewPreferenceStore loads the file at path. Load errors are logged and the
// defaults are used.
func NewPreferenceStore(path string) *PreferenceStore {
	prefs, err := LoadPreferences(path)
	if err != nil {
		logging.Warn("failed to load preferences, using defaults", "path", path, "error", err)
	}
	return &PreferenceStore{path: path, current: prefs}
}

// Get returns the current preferences.
func (s *PreferenceStore) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates, persists and then adopts prefs.
func (s *PreferenceStore) Update(prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := SavePreferences(s.path, prefs); err != nil {
		return err
	}
	s.current = prefs
	return nil
}
