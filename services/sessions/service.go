package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamscout/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrStorageDirRequired = errors.New("storage directory not provided")
)

const (
	// DefaultAccountDuration is the lifetime of an authenticated session.
	DefaultAccountDuration = 30 * 24 * time.Hour

	// DefaultGuestDuration is the lifetime of an anonymous guest session.
	// Guest state is memory-only, so there is no point keeping these long.
	DefaultGuestDuration = 24 * time.Hour

	// TokenLength is the number of random bytes used for session tokens.
	TokenLength = 32
)

// Service manages session tokens. Authenticated sessions persist across
// restarts; guest sessions are memory-only and die with the process.
type Service struct {
	mu              sync.RWMutex
	path            string
	sessions        map[string]models.Session
	accountDuration time.Duration
	guestDuration   time.Duration
}

// NewService creates a sessions service persisting authenticated sessions
// inside the provided directory.
func NewService(storageDir string, accountDuration time.Duration) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if accountDuration <= 0 {
		accountDuration = DefaultAccountDuration
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}

	svc := &Service{
		path:            filepath.Join(storageDir, "sessions.json"),
		sessions:        make(map[string]models.Session),
		accountDuration: accountDuration,
		guestDuration:   DefaultGuestDuration,
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateForAccount issues a session for an authenticated account.
func (s *Service) CreateForAccount(accountID string, isMaster bool, userAgent, ipAddress string) (models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     token,
		UserID:    accountID,
		IsMaster:  isMaster,
		ExpiresAt: now.Add(s.accountDuration),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = session
	if err := s.saveLocked(); err != nil {
		delete(s.sessions, token)
		return models.Session{}, err
	}
	return session, nil
}

// CreateGuest issues an anonymous session with a fresh guest user ID. No
// account needed; state tied to the ID evaporates when the session does.
func (s *Service) CreateGuest(userAgent, ipAddress string) (models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     token,
		UserID:    models.GuestUserIDPrefix + uuid.NewString(),
		IsGuest:   true,
		ExpiresAt: now.Add(s.guestDuration),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Guests are never written to disk.
	s.sessions[token] = session
	return session, nil
}

// Validate checks a token and returns the associated session.
func (s *Service) Validate(token string) (models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return models.Session{}, ErrInvalidToken
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if session.IsExpired() {
		s.mu.Lock()
		delete(s.sessions, token)
		if !session.IsGuest {
			_ = s.saveLocked()
		}
		s.mu.Unlock()
		return models.Session{}, ErrSessionExpired
	}
	return session, nil
}

// Refresh extends a session's expiration time.
func (s *Service) Refresh(token string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if session.IsExpired() {
		delete(s.sessions, token)
		return models.Session{}, ErrSessionExpired
	}

	duration := s.accountDuration
	if session.IsGuest {
		duration = s.guestDuration
	}
	session.ExpiresAt = time.Now().UTC().Add(duration)
	s.sessions[token] = session
	if !session.IsGuest {
		_ = s.saveLocked()
	}
	return session, nil
}

// Revoke invalidates a session by its token. Returns the revoked session so
// callers can tear down guest state.
func (s *Service) Revoke(token string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	delete(s.sessions, token)
	if !session.IsGuest {
		if err := s.saveLocked(); err != nil {
			return models.Session{}, err
		}
	}
	return session, nil
}

// RevokeAllForUser invalidates every session belonging to a user ID.
func (s *Service) RevokeAllForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	persisted := false
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
			count++
			persisted = persisted || !session.IsGuest
		}
	}
	if persisted {
		_ = s.saveLocked()
	}
	return count
}

// Cleanup removes expired sessions and returns the user IDs that no longer
// have any live session, so per-user state can be torn down.
func (s *Service) Cleanup() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expired := make(map[string]bool)
	persisted := false
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			expired[session.UserID] = true
			persisted = persisted || !session.IsGuest
		}
	}
	for _, session := range s.sessions {
		delete(expired, session.UserID)
	}
	if persisted {
		_ = s.saveLocked()
	}

	orphaned := make([]string, 0, len(expired))
	for userID := range expired {
		orphaned = append(orphaned, userID)
	}
	return orphaned
}

// LiveUserIDs returns the user IDs that currently hold at least one
// unexpired session.
func (s *Service) LiveUserIDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := make(map[string]bool, len(s.sessions))
	for _, session := range s.sessions {
		if !session.IsExpired() {
			live[session.UserID] = true
		}
	}
	return live
}

// Count returns the total number of tracked sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (s *Service) load() error {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open sessions file: %w", err)
	}
	defer file.Close()

	var stored []models.Session
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}

	now := time.Now()
	s.sessions = make(map[string]models.Session, len(stored))
	for _, session := range stored {
		if strings.TrimSpace(session.Token) == "" || session.IsGuest {
			continue
		}
		if now.After(session.ExpiresAt) {
			continue
		}
		s.sessions[session.Token] = session
	}
	return nil
}

// saveLocked writes authenticated sessions to disk. Must be called with mu
// held.
func (s *Service) saveLocked() error {
	sessions := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if session.IsGuest {
			continue
		}
		sessions = append(sessions, session)
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create sessions temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sessions); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync sessions: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close sessions temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}
	return nil
}
