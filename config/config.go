package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TMDBSettings configures the upstream metadata client.
type TMDBSettings struct {
	APIKey        string `json:"apiKey"`
	Language      string `json:"language"`
	CacheTTLHours int    `json:"cacheTtlHours"`
}

// Settings is the persisted application configuration.
type Settings struct {
	ListenAddr          string       `json:"listenAddr"`
	DataDir             string       `json:"dataDir"`
	TMDB                TMDBSettings `json:"tmdb"`
	ChildSafetyDefault  bool         `json:"childSafetyDefault"`
	SessionDurationDays int          `json:"sessionDurationDays"`
}

// DatabasePath returns the SQLite database location under the data dir.
func (s Settings) DatabasePath() string {
	return filepath.Join(s.DataDir, "streamscout.db")
}

// CacheDir returns the response cache location under the data dir.
func (s Settings) CacheDir() string {
	return filepath.Join(s.DataDir, "cache")
}

// LogPath returns the rotating log file location under the data dir.
func (s Settings) LogPath() string {
	return filepath.Join(s.DataDir, "logs", "streamscout.log")
}

func defaultSettings() Settings {
	return Settings{
		ListenAddr:          ":8990",
		DataDir:             "./data",
		TMDB:                TMDBSettings{Language: "en-US", CacheTTLHours: 24},
		ChildSafetyDefault:  false,
		SessionDurationDays: 30,
	}
}

// applyDefaults fills zero-valued fields and environment overrides.
func applyDefaults(s Settings) Settings {
	defaults := defaultSettings()
	if s.ListenAddr == "" {
		s.ListenAddr = defaults.ListenAddr
	}
	if s.DataDir == "" {
		s.DataDir = defaults.DataDir
	}
	if s.TMDB.Language == "" {
		s.TMDB.Language = defaults.TMDB.Language
	}
	if s.TMDB.CacheTTLHours <= 0 {
		s.TMDB.CacheTTLHours = defaults.TMDB.CacheTTLHours
	}
	if s.SessionDurationDays <= 0 {
		s.SessionDurationDays = defaults.SessionDurationDays
	}
	// The API key can come from the environment so the config file never
	// has to hold a secret.
	if key := os.Getenv("TMDB_API_KEY"); key != "" {
		s.TMDB.APIKey = key
	}
	return s
}

// Manager loads and saves the JSON settings file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a config manager for the given settings file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads settings from disk, returning defaults when no file exists yet.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Open(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return applyDefaults(Settings{}), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var s Settings
	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return applyDefaults(s), nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp := m.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create config temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode config: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync config: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close config temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
