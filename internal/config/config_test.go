package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPreferencesAreValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultPreferences().Validate())
}

func TestPreferencesValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(p *Preferences)
		wantErr bool
	}{
		{name: "french dark maplibre", mutate: func(p *Preferences) { p.Language, p.Theme, p.MapProvider = "fr", "dark", "maplibre" }},
		{name: "unknown language", mutate: func(p *Preferences) { p.Language = "de" }, wantErr: true},
		{name: "unknown model", mutate: func(p *Preferences) { p.AIModel = "gpt-4" }, wantErr: true},
		{name: "remote without url", mutate: func(p *Preferences) { p.AIInstanceType = "remote" }, wantErr: true},
		{name: "remote lmstudio", mutate: func(p *Preferences) {
			p.AIInstanceType, p.AIRemoteURL, p.RemoteServerType = "remote", "http://10.0.0.2:1234", "lmstudio"
		}},
		{name: "bad server type", mutate: func(p *Preferences) { p.RemoteServerType = "vllm" }, wantErr: true},
		{name: "bad start date", mutate: func(p *Preferences) { p.StartDate = "01/02/2024" }, wantErr: true},
		{name: "good start date", mutate: func(p *Preferences) { p.StartDate = "2024-01-02" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultPreferences()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPreferences)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadPreferencesMissingFile(t *testing.T) {
	t.Parallel()

	prefs, err := LoadPreferences(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
}

func TestLoadPreferencesCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("language = [unterminated"), 0o600))

	prefs, err := LoadPreferences(path)
	assert.Error(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
}

func TestLoadPreferencesPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("language = \"fr\"\n"), 0o600))

	prefs, err := LoadPreferences(path)
	require.NoError(t, err)
	assert.Equal(t, "fr", prefs.Language)
	assert.Equal(t, "light", prefs.Theme)
	assert.Equal(t, "mistral", prefs.AIModel)
}

func TestSaveAndLoadPreferences(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.toml")
	want := Preferences{
		Language:         "fr",
		Theme:            "dark",
		MapProvider:      "maplibre",
		AIModel:          "qwen2.5",
		AIInstanceType:   "remote",
		AIRemoteURL:      "http://192.168.1.20:11434",
		RemoteServerType: "ollama",
		RemoteModelName:  "qwen2.5:14b",
		StartDate:        "2024-03-01",
	}

	require.NoError(t, SavePreferences(path, want))

	got, err := LoadPreferences(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be cleaned up")
}

func TestSavePreferencesRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.toml")
	p := DefaultPreferences()
	p.Theme = "sepia"

	assert.ErrorIs(t, SavePreferences(path, p), ErrInvalidPreferences)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPreferenceStoreUpdate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prefs.toml")
	store := NewPreferenceStore(path)
	assert.Equal(t, DefaultPreferences(), store.Get())

	bad := DefaultPreferences()
	bad.Language = "xx"
	assert.Error(t, store.Update(bad))
	assert.Equal(t, "en", store.Get().Language)

	good := DefaultPreferences()
	good.Language = "fr"
	require.NoError(t, store.Update(good))
	assert.Equal(t, "fr", store.Get().Language)
	assert.Equal(t, "fr", NewPreferenceStore(path).Get().Language)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STRYD_TEST_FROM_FILE=hello\nSTRYD_TEST_PRESET=file\n"), 0o600))

	t.Setenv("STRYD_TEST_PRESET", "process")
	t.Setenv("STRYD_TEST_FROM_FILE", "")
	os.Unsetenv("STRYD_TEST_FROM_FILE")

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "hello", os.Getenv("STRYD_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("STRYD_TEST_PRESET"), "existing variables win")
}

func TestDefaultRuntimeEnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/data/runs.db")
	t.Setenv(EnvPort, "not-a-number")
	t.Setenv(EnvChatTimeout, "45s")
	t.Setenv(EnvLLMURL, "")

	rt := DefaultRuntime()
	assert.Equal(t, "/data/runs.db", rt.DBPath)
	assert.Equal(t, DefaultPort, rt.Port)
	assert.Equal(t, 45*time.Second, rt.ChatTimeout)
	assert.Equal(t, DefaultLLMURL, rt.LLMURL)
}
