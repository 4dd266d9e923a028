package handlers

import (
	"encoding/json"
	"net/http"

	"streamscout/internal/auth"
	"streamscout/models"
	"streamscout/services/history"
)

type historyService interface {
	List(userID string) ([]models.SearchHistoryEntry, error)
	Clear(userID string) error
}

var _ historyService = (*history.Service)(nil)

// HistoryHandler serves the search-history endpoints. Entries are written
// by the search pipeline, not through this handler.
type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// List returns the caller's search history, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	if userID == "" {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	entries, err := h.Service.List(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.SearchHistoryEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// Clear wipes the caller's search history.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	if userID == "" {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	if err := h.Service.Clear(userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
