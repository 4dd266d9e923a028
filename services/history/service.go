package history

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"streamscout/models"
)

// MaxEntries caps how many distinct queries are kept per user.
const MaxEntries = 10

var ErrEmptyQuery = errors.New("history: empty query")

// Store is the persistent backend for authenticated users' history.
type Store interface {
	Append(userID, query string, searchedAt time.Time) error
	List(userID string) ([]models.SearchHistoryEntry, error)
	Clear(userID string) error
}

// Service keeps per-user search history. Authenticated users go through the
// persistent store; guest sessions are held in memory only and vanish on
// restart.
type Service struct {
	store Store

	mu     sync.Mutex
	guests map[string][]models.SearchHistoryEntry
	now    func() time.Time
}

// NewService creates the history service. store may be nil, in which case
// every user is treated like a guest.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		guests: make(map[string][]models.SearchHistoryEntry),
		now:    time.Now,
	}
}

func isGuest(userID string) bool {
	return strings.HasPrefix(userID, models.GuestUserIDPrefix)
}

// Append records a search. Repeating a query moves it to the front; the
// oldest entries are evicted past MaxEntries.
func (s *Service) Append(userID, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	if s.store != nil && !isGuest(userID) {
		return s.store.Append(userID, query, s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.guests[userID]
	kept := make([]models.SearchHistoryEntry, 0, len(entries)+1)
	kept = append(kept, models.SearchHistoryEntry{Query: query, SearchedAt: s.now()})
	for _, entry := range entries {
		if strings.EqualFold(entry.Query, query) {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) > MaxEntries {
		kept = kept[:MaxEntries]
	}
	s.guests[userID] = kept
	return nil
}

// List returns a user's history, most recent first.
func (s *Service) List(userID string) ([]models.SearchHistoryEntry, error) {
	if s.store != nil && !isGuest(userID) {
		return s.store.List(userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.guests[userID]
	out := make([]models.SearchHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Clear removes all history for a user.
func (s *Service) Clear(userID string) error {
	if s.store != nil && !isGuest(userID) {
		return s.store.Clear(userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.guests, userID)
	return nil
}

// DropGuest discards a guest session's in-memory history. Called when the
// session ends.
func (s *Service) DropGuest(userID string) {
	if !isGuest(userID) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guests, userID)
}

// PruneGuests drops guest histories not in the live set. The sessions
// service calls this after expiring sessions.
func (s *Service) PruneGuests(live map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID := range s.guests {
		if !live[userID] {
			delete(s.guests, userID)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[history] pruned %d guest histories", removed)
	}
}
