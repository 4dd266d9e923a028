package config

import (
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "config.json"))

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ListenAddr != ":8990" {
		t.Errorf("unexpected listen addr %q", s.ListenAddr)
	}
	if s.TMDB.Language != "en-US" || s.TMDB.CacheTTLHours != 24 {
		t.Errorf("unexpected TMDB defaults: %+v", s.TMDB)
	}
	if s.SessionDurationDays != 30 {
		t.Errorf("unexpected session duration %d", s.SessionDurationDays)
	}
}

func TestSaveAndReload(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "config.json"))

	s, _ := m.Load()
	s.TMDB.APIKey = "key-123"
	s.ChildSafetyDefault = true
	if err := m.Save(s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.TMDB.APIKey != "key-123" {
		t.Errorf("expected API key to round-trip, got %q", got.TMDB.APIKey)
	}
	if !got.ChildSafetyDefault {
		t.Error("expected child-safety default to round-trip")
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	m := NewManager(filepath.Join(t.TempDir(), "config.json"))

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.TMDB.APIKey != "env-key" {
		t.Errorf("expected env override, got %q", s.TMDB.APIKey)
	}
}

func TestDerivedPaths(t *testing.T) {
	s := Settings{DataDir: "/srv/streamscout"}
	if s.DatabasePath() != "/srv/streamscout/streamscout.db" {
		t.Errorf("unexpected database path %q", s.DatabasePath())
	}
	if s.CacheDir() != "/srv/streamscout/cache" {
		t.Errorf("unexpected cache dir %q", s.CacheDir())
	}
}
