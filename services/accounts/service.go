package accounts

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

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"streamscout/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCannotDeleteMaster = errors.New("cannot delete the master account")
)

// Service manages persistence of user accounts.
type Service struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]models.Account

	// bootstrapPassword holds the generated master password for the first
	// run only, so it can be shown once at startup. Empty after that.
	bootstrapPassword string
}

// NewService creates an accounts service storing data inside the provided
// directory. On first run a master account is created with a random
// generated password; retrieve it once with BootstrapPassword.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "accounts.json"),
		accounts: make(map[string]models.Account),
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	if err := svc.ensureMasterAccount(); err != nil {
		return nil, err
	}
	return svc, nil
}

// BootstrapPassword returns the generated master password if the master
// account was created during this startup. The second value is false when
// the account already existed.
func (s *Service) BootstrapPassword() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapPassword, s.bootstrapPassword != ""
}

// List returns all accounts, master first, then by creation time.
func (s *Service) List() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].IsMaster != accounts[j].IsMaster {
			return accounts[i].IsMaster
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}

// Get returns the account with the given ID if present.
func (s *Service) Get(id string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	return account, ok
}

// Exists reports whether an account with the given ID exists.
func (s *Service) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[strings.TrimSpace(id)]
	return ok
}

// GetByUsername returns the account with the given username if present.
// Username matching is case-insensitive.
func (s *Service) GetByUsername(username string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.findByUsernameLocked(username)
	return account, ok
}

// Create registers a new account with the provided username and password.
func (s *Service) Create(username, password string) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Account{}, ErrUsernameRequired
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return models.Account{}, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.findByUsernameLocked(username); exists {
		return models.Account{}, ErrUsernameExists
	}

	now := time.Now().UTC()
	account := models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[account.ID] = account

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, account.ID)
		return models.Account{}, err
	}
	return account, nil
}

// Authenticate verifies the username and password, returning the account if
// valid.
func (s *Service) Authenticate(username, pass string) (models.Account, error) {
	username = strings.TrimSpace(username)
	pass = strings.TrimSpace(pass)
	if username == "" || pass == "" {
		return models.Account{}, ErrInvalidCredentials
	}

	s.mu.RLock()
	account, found := s.findByUsernameLocked(username)
	s.mu.RUnlock()

	if !found {
		// Burn a bcrypt comparison so missing users cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummy"), []byte(pass))
		return models.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(pass)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Rename changes the username for an account.
func (s *Service) Rename(id, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return ErrUsernameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	if !ok {
		return ErrAccountNotFound
	}
	if other, exists := s.findByUsernameLocked(newUsername); exists && other.ID != account.ID {
		return ErrUsernameExists
	}

	account.Username = newUsername
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = account
	return s.saveLocked()
}

// UpdatePassword changes the password for an account.
func (s *Service) UpdatePassword(id, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	if !ok {
		return ErrAccountNotFound
	}
	account.PasswordHash = string(hash)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = account
	s.bootstrapPassword = ""
	return s.saveLocked()
}

// Delete removes an account by ID. The master account cannot be deleted.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.TrimSpace(id)]
	if !ok {
		return ErrAccountNotFound
	}
	if account.IsMaster {
		return ErrCannotDeleteMaster
	}
	delete(s.accounts, account.ID)
	return s.saveLocked()
}

// GetMasterAccount returns the master account.
func (s *Service) GetMasterAccount() (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.IsMaster {
			return a, true
		}
	}
	return models.Account{}, false
}

// findByUsernameLocked does a case-insensitive username lookup. Callers
// must hold at least a read lock.
func (s *Service) findByUsernameLocked(username string) (models.Account, bool) {
	lower := strings.ToLower(strings.TrimSpace(username))
	if lower == "" {
		return models.Account{}, false
	}
	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == lower {
			return a, true
		}
	}
	return models.Account{}, false
}

// ensureMasterAccount creates the master account on first run with a
// randomly generated password.
func (s *Service) ensureMasterAccount() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.IsMaster {
			return nil
		}
	}

	generated, err := password.Generate(16, 4, 0, false, false)
	if err != nil {
		return fmt.Errorf("generate master password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(generated), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash master password: %w", err)
	}

	now := time.Now().UTC()
	master := models.Account{
		ID:           uuid.NewString(),
		Username:     models.MasterAccountUsername,
		PasswordHash: string(hash),
		IsMaster:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[master.ID] = master
	s.bootstrapPassword = generated
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
		return fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	var stored []models.AccountStorage
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.Account, len(stored))
	for _, as := range stored {
		if strings.TrimSpace(as.ID) == "" {
			continue
		}
		s.accounts[as.ID] = as.ToAccount()
	}
	return nil
}

func (s *Service) saveLocked() error {
	storage := make([]models.AccountStorage, 0, len(s.accounts))
	for _, account := range s.accounts {
		storage = append(storage, account.ToStorage())
	}
	sort.Slice(storage, func(i, j int) bool {
		if storage[i].IsMaster != storage[j].IsMaster {
			return storage[i].IsMaster
		}
		return storage[i].CreatedAt.Before(storage[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(storage); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}
