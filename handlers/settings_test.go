package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"streamscout/config"
	"streamscout/handlers"
)

func setupSettingsHandler(t *testing.T) (*handlers.SettingsHandler, *config.Manager) {
	t.Helper()
	m := config.NewManager(filepath.Join(t.TempDir(), "config.json"))
	return handlers.NewSettingsHandler(m), m
}

func TestSettingsGetRedactsAPIKey(t *testing.T) {
	handler, m := setupSettingsHandler(t)

	s, _ := m.Load()
	s.TMDB.APIKey = "super-secret"
	if err := m.Save(s); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		TMDB struct {
			APIKey string `json:"apiKey"`
		} `json:"tmdb"`
		TMDBKeyConfigured bool `json:"tmdbKeyConfigured"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.TMDB.APIKey != "" {
		t.Error("API key must be redacted in responses")
	}
	if !body.TMDBKeyConfigured {
		t.Error("expected tmdbKeyConfigured true")
	}
}

func TestSettingsUpdateKeepsStoredKey(t *testing.T) {
	handler, m := setupSettingsHandler(t)

	s, _ := m.Load()
	s.TMDB.APIKey = "super-secret"
	m.Save(s)

	// PUT back a settings body without the key, as clients do after Get.
	s.TMDB.APIKey = ""
	s.ChildSafetyDefault = true
	payload, _ := json.Marshal(s)
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	got, _ := m.Load()
	if got.TMDB.APIKey != "super-secret" {
		t.Errorf("expected stored key kept, got %q", got.TMDB.APIKey)
	}
	if !got.ChildSafetyDefault {
		t.Error("expected updated field persisted")
	}
}
