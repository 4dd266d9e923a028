package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"streamscout/internal/auth"
	"streamscout/models"
	"streamscout/services/lists"
)

type listsService interface {
	List(userID string, kind models.ListKind) ([]models.ListEntry, error)
	Add(userID string, kind models.ListKind, entry models.ListEntry) error
	Remove(userID string, kind models.ListKind, mediaType models.MediaType, id int64) error
	Toggle(userID string, kind models.ListKind, entry models.ListEntry) (bool, error)
}

var _ listsService = (*lists.Service)(nil)

// ListsHandler serves the likes/hidden/watchlist endpoints.
type ListsHandler struct {
	Service listsService
}

func NewListsHandler(service listsService) *ListsHandler {
	return &ListsHandler{Service: service}
}

func listStatus(err error) int {
	switch {
	case errors.Is(err, lists.ErrInvalidListKind), errors.Is(err, lists.ErrInvalidEntry):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// List returns the caller's entries for one list kind.
func (h *ListsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	kind := models.ListKind(mux.Vars(r)["kind"])

	entries, err := h.Service.List(userID, kind)
	if err != nil {
		http.Error(w, err.Error(), listStatus(err))
		return
	}
	if entries == nil {
		entries = []models.ListEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// Add puts an entry on one of the caller's lists.
func (h *ListsHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	kind := models.ListKind(mux.Vars(r)["kind"])

	var entry models.ListEntry
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Add(userID, kind, entry); err != nil {
		http.Error(w, err.Error(), listStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips an entry's membership and reports the new state.
func (h *ListsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	kind := models.ListKind(mux.Vars(r)["kind"])

	var entry models.ListEntry
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	on, err := h.Service.Toggle(userID, kind, entry)
	if err != nil {
		http.Error(w, err.Error(), listStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"onList": on})
}

// Remove takes an entry off one of the caller's lists.
func (h *ListsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r)
	vars := mux.Vars(r)
	kind := models.ListKind(vars["kind"])

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Service.Remove(userID, kind, models.MediaType(vars["mediaType"]), id); err != nil {
		http.Error(w, err.Error(), listStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
