package lists

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"streamscout/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrInvalidListKind    = errors.New("invalid list kind")
	ErrInvalidEntry       = errors.New("list entry requires a media type and id")
)

type userLists map[models.ListKind][]models.ListEntry

// storedUser is the on-disk shape for one user's lists.
type storedUser struct {
	UserID string    `json:"user_id"`
	Lists  userLists `json:"lists"`
}

// Service manages per-user content lists: likes, hidden items and the
// watchlist. Authenticated users are persisted to a JSON file; guest
// sessions live in memory only.
type Service struct {
	mu    sync.RWMutex
	path  string
	users map[string]userLists
}

// NewService creates a lists service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lists dir: %w", err)
	}

	svc := &Service{
		path:  filepath.Join(storageDir, "lists.json"),
		users: make(map[string]userLists),
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// List returns a user's entries for one list kind, oldest first.
func (s *Service) List(userID string, kind models.ListKind) ([]models.ListEntry, error) {
	if !models.ValidListKind(kind) {
		return nil, ErrInvalidListKind
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.users[userID][kind]
	out := make([]models.ListEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Contains reports whether the entry key is on the user's list.
func (s *Service) Contains(userID string, kind models.ListKind, mediaType models.MediaType, id int64) bool {
	key := models.ListEntry{MediaType: mediaType, ID: id}.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.users[userID][kind] {
		if entry.Key() == key {
			return true
		}
	}
	return false
}

// Add puts an entry on a user's list. Adding an entry that is already
// present is a no-op.
func (s *Service) Add(userID string, kind models.ListKind, entry models.ListEntry) error {
	if !models.ValidListKind(kind) {
		return ErrInvalidListKind
	}
	if entry.MediaType == "" || entry.ID == 0 {
		return ErrInvalidEntry
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.users[userID]
	if lists == nil {
		lists = make(userLists)
		s.users[userID] = lists
	}
	for _, existing := range lists[kind] {
		if existing.Key() == entry.Key() {
			return nil
		}
	}
	lists[kind] = append(lists[kind], entry)
	return s.saveLocked()
}

// Remove takes an entry off a user's list. Removing an absent entry is a no-op.
func (s *Service) Remove(userID string, kind models.ListKind, mediaType models.MediaType, id int64) error {
	if !models.ValidListKind(kind) {
		return ErrInvalidListKind
	}
	key := models.ListEntry{MediaType: mediaType, ID: id}.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.users[userID][kind]
	kept := entries[:0]
	for _, entry := range entries {
		if entry.Key() != key {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	s.users[userID][kind] = kept
	return s.saveLocked()
}

// Toggle adds the entry if absent and removes it if present. Returns
// whether the entry is on the list afterwards.
func (s *Service) Toggle(userID string, kind models.ListKind, entry models.ListEntry) (bool, error) {
	if s.Contains(userID, kind, entry.MediaType, entry.ID) {
		if err := s.Remove(userID, kind, entry.MediaType, entry.ID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Add(userID, kind, entry); err != nil {
		return false, err
	}
	return true, nil
}

// HiddenKeys returns the set of entry keys the user has hidden, for
// filtering search results.
func (s *Service) HiddenKeys(userID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hidden := s.users[userID][models.ListKindHidden]
	keys := make(map[string]bool, len(hidden))
	for _, entry := range hidden {
		keys[entry.Key()] = true
	}
	return keys
}

// DropUser discards a user's lists. Used when a guest session ends;
// guests are never persisted so no file write happens for them.
func (s *Service) DropUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil
	}
	delete(s.users, userID)
	if strings.HasPrefix(userID, models.GuestUserIDPrefix) {
		return nil
	}
	return s.saveLocked()
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open lists file: %w", err)
	}
	defer file.Close()

	var stored []storedUser
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode lists: %w", err)
	}

	s.users = make(map[string]userLists, len(stored))
	for _, u := range stored {
		if strings.TrimSpace(u.UserID) == "" || u.Lists == nil {
			continue
		}
		s.users[u.UserID] = u.Lists
	}
	return nil
}

func (s *Service) saveLocked() error {
	stored := make([]storedUser, 0, len(s.users))
	for userID, lists := range s.users {
		// Guest lists are session-scoped and never hit disk.
		if strings.HasPrefix(userID, models.GuestUserIDPrefix) {
			continue
		}
		stored = append(stored, storedUser{UserID: userID, Lists: lists})
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].UserID < stored[j].UserID })

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create lists temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stored); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode lists: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync lists: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close lists temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace lists file: %w", err)
	}
	return nil
}
