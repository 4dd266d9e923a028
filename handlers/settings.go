package handlers

import (
	"encoding/json"
	"net/http"

	"streamscout/config"
)

// SettingsHandler serves the application settings endpoints. Master only;
// route-level middleware enforces that.
type SettingsHandler struct {
	Manager *config.Manager
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// settingsResponse hides the API key from reads while showing whether one
// is configured.
type settingsResponse struct {
	config.Settings
	TMDBKeyConfigured bool `json:"tmdbKeyConfigured"`
}

// Get returns the current settings with the API key redacted.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := settingsResponse{Settings: s, TMDBKeyConfigured: s.TMDB.APIKey != ""}
	resp.TMDB.APIKey = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Update persists new settings. An empty API key in the body keeps the
// stored one so clients can PUT back what Get returned.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.Manager.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var s config.Settings
	// Allow unknown fields for backward compatibility with old configs
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.TMDB.APIKey == "" {
		s.TMDB.APIKey = current.TMDB.APIKey
	}

	if err := h.Manager.Save(s); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
