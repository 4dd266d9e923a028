package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"streamscout/api"
	"streamscout/internal/auth"
	"streamscout/models"
	"streamscout/services/accounts"
	"streamscout/services/sessions"
)

type accountService interface {
	Create(username, password string) (models.Account, error)
	Authenticate(username, password string) (models.Account, error)
	UpdatePassword(id, newPassword string) error
	Delete(id string) error
	List() []models.Account
}

var _ accountService = (*accounts.Service)(nil)

type sessionService interface {
	CreateForAccount(accountID string, isMaster bool, userAgent, ipAddress string) (models.Session, error)
	CreateGuest(userAgent, ipAddress string) (models.Session, error)
	Revoke(token string) (models.Session, error)
	RevokeAllForUser(userID string) int
}

var _ sessionService = (*sessions.Service)(nil)

// sessionDropper lets the auth handler tear down per-session search state
// on logout.
type sessionDropper interface {
	DropSession(token string)
}

// AuthHandler serves login, guest session and account management endpoints.
type AuthHandler struct {
	Accounts accountService
	Sessions sessionService
	Search   sessionDropper
}

func NewAuthHandler(accountsSvc accountService, sessionsSvc sessionService, search sessionDropper) *AuthHandler {
	return &AuthHandler{Accounts: accountsSvc, Sessions: sessionsSvc, Search: search}
}

type sessionResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	IsGuest   bool   `json:"isGuest"`
	IsMaster  bool   `json:"isMaster"`
	ExpiresAt string `json:"expiresAt"`
}

func toSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		UserID:    s.UserID,
		IsGuest:   s.IsGuest,
		IsMaster:  s.IsMaster,
		ExpiresAt: s.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Login authenticates an account and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Authenticate(body.Username, body.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	session, err := h.Sessions.CreateForAccount(account.ID, account.IsMaster, r.UserAgent(), api.ClientIP(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSessionResponse(session))
}

// Guest issues an anonymous session without credentials.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.CreateGuest(r.UserAgent(), api.ClientIP(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSessionResponse(session))
}

// Logout revokes the request's session and drops its search state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	if _, err := h.Sessions.Revoke(session.Token); err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.Search != nil {
		h.Search.DropSession(session.Token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current session's identity.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSessionResponse(session))
}

// ListAccounts returns all accounts. Master only.
func (h *AuthHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Accounts.List())
}

// CreateAccount registers a new account. Master only.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := h.Accounts.Create(body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrUsernameRequired), errors.Is(err, accounts.ErrPasswordRequired):
			status = http.StatusBadRequest
		case errors.Is(err, accounts.ErrUsernameExists):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// DeleteAccount removes an account and revokes its sessions. Master only.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Accounts.Delete(id); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, accounts.ErrCannotDeleteMaster):
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}

	h.Sessions.RevokeAllForUser(id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePassword changes the caller's own password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.GetSession(r)
	if !ok || session.IsGuest {
		http.Error(w, "account required", http.StatusForbidden)
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Accounts.UpdatePassword(session.UserID, body.Password); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, accounts.ErrPasswordRequired):
			status = http.StatusBadRequest
		case errors.Is(err, accounts.ErrAccountNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
