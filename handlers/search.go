package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"streamscout/internal/auth"
	"streamscout/models"
	"streamscout/services/lists"
	"streamscout/services/search"
)

// hiddenLister is the slice of the lists service the search handler needs:
// hidden items are stripped from results before they reach the client.
type hiddenLister interface {
	HiddenKeys(userID string) map[string]bool
}

var _ hiddenLister = (*lists.Service)(nil)

// searchSession is one live search state, keyed by session token. Each
// session owns its orchestrator and a debouncer for typeahead input.
type searchSession struct {
	orch     *search.Orchestrator
	debounce *search.Debouncer
	lastUsed time.Time
}

// SearchHandler serves the search session endpoints.
type SearchHandler struct {
	upstream           search.Upstream
	history            search.HistoryRecorder
	hidden             hiddenLister
	childSafetyDefault bool

	mu       sync.Mutex
	sessions map[string]*searchSession
}

func NewSearchHandler(upstream search.Upstream, history search.HistoryRecorder, hidden hiddenLister, childSafetyDefault bool) *SearchHandler {
	return &SearchHandler{
		upstream:           upstream,
		history:            history,
		hidden:             hidden,
		childSafetyDefault: childSafetyDefault,
		sessions:           make(map[string]*searchSession),
	}
}

// session returns the search session for the request's token, creating it
// on first use.
func (h *SearchHandler) session(r *http.Request) (*searchSession, models.Session, bool) {
	sess, ok := auth.GetSession(r)
	if !ok {
		return nil, models.Session{}, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.sessions[sess.Token]
	if !exists {
		orch := search.NewOrchestrator(h.upstream, search.Options{
			UserID:      sess.UserID,
			History:     h.history,
			ChildSafety: h.childSafetyDefault,
		})
		// Debounced input fires after the originating request is gone,
		// so it runs on a background context.
		deb := search.NewDebouncer(search.DefaultDebounceDelay,
			func(query string) { orch.PerformSearch(context.Background(), query, 1) },
			func() { orch.ClearSearch() },
		)
		state = &searchSession{orch: orch, debounce: deb}
		h.sessions[sess.Token] = state
	}
	state.lastUsed = time.Now()
	return state, sess, true
}

// DropSession tears down the search state for a revoked session token.
func (h *SearchHandler) DropSession(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if state, ok := h.sessions[token]; ok {
		state.debounce.Stop()
		delete(h.sessions, token)
	}
}

// PruneIdle drops search sessions idle longer than maxIdle.
func (h *SearchHandler) PruneIdle(maxIdle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	cutoff := time.Now().Add(-maxIdle)
	for token, state := range h.sessions {
		if state.lastUsed.Before(cutoff) {
			state.debounce.Stop()
			delete(h.sessions, token)
			dropped++
		}
	}
	return dropped
}

// State returns the current session snapshot.
func (h *SearchHandler) State(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	h.writeSnapshot(w, sess.UserID, state)
}

// Search runs a fresh search and responds with the settled first page.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state.orch.PerformSearch(r.Context(), body.Query, 1)
	h.writeSnapshot(w, sess.UserID, state)
}

// Input feeds typeahead text into the session's debouncer. The search fires
// after the debounce delay; the response carries the pre-fire snapshot.
func (h *SearchHandler) Input(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state.debounce.Update(body.Query)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	h.writeSnapshotBody(w, sess.UserID, state)
}

// More loads the next page of the current search.
func (h *SearchHandler) More(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	state.orch.LoadMore(r.Context())
	h.writeSnapshot(w, sess.UserID, state)
}

// All backfills every remaining page up to the upstream limit.
func (h *SearchHandler) All(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	state.orch.LoadAllResults(r.Context())
	h.writeSnapshot(w, sess.UserID, state)
}

// SetFilters applies a new filter set, which may trigger a quick backfill.
func (h *SearchHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	var filters models.SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state.orch.SetFilters(r.Context(), filters)
	h.writeSnapshot(w, sess.UserID, state)
}

// SetChildSafety toggles the child-safety mode for the session.
func (h *SearchHandler) SetChildSafety(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state.orch.SetChildSafety(r.Context(), body.Enabled)
	h.writeSnapshot(w, sess.UserID, state)
}

// ClearResults drops results while keeping the query text.
func (h *SearchHandler) ClearResults(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	state.orch.ClearResults()
	h.writeSnapshot(w, sess.UserID, state)
}

// ClearSearch resets the whole search state including the query.
func (h *SearchHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	state, sess, ok := h.session(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}
	state.debounce.Stop()
	state.orch.ClearSearch()
	h.writeSnapshot(w, sess.UserID, state)
}

func (h *SearchHandler) writeSnapshot(w http.ResponseWriter, userID string, state *searchSession) {
	w.Header().Set("Content-Type", "application/json")
	h.writeSnapshotBody(w, userID, state)
}

func (h *SearchHandler) writeSnapshotBody(w http.ResponseWriter, userID string, state *searchSession) {
	snap := state.orch.Snapshot()
	if h.hidden != nil {
		if hidden := h.hidden.HiddenKeys(userID); len(hidden) > 0 {
			kept := make([]models.ContentItem, 0, len(snap.Results))
			for _, item := range snap.Results {
				key := models.ListEntry{MediaType: item.MediaType, ID: item.ID}.Key()
				if !hidden[key] {
					kept = append(kept, item)
				}
			}
			snap.Results = kept
			snap.FilteredTotalResults = len(kept)
		}
	}
	json.NewEncoder(w).Encode(snap)
}
