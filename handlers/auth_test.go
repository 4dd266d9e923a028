package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"streamscout/handlers"
	"streamscout/internal/auth"
	"streamscout/models"
	"streamscout/services/accounts"
	"streamscout/services/sessions"
)

func setupAuthHandler(t *testing.T) (*handlers.AuthHandler, *accounts.Service, *sessions.Service) {
	t.Helper()
	tmpDir := t.TempDir()

	accountsSvc, err := accounts.NewService(tmpDir)
	if err != nil {
		t.Fatalf("failed to create accounts service: %v", err)
	}
	sessionsSvc, err := sessions.NewService(tmpDir, time.Hour)
	if err != nil {
		t.Fatalf("failed to create sessions service: %v", err)
	}
	return handlers.NewAuthHandler(accountsSvc, sessionsSvc, nil), accountsSvc, sessionsSvc
}

// withSession injects a session into the request context the way the auth
// middleware does.
func withSession(r *http.Request, session models.Session) *http.Request {
	ctx := context.WithValue(r.Context(), auth.ContextKeyUserID, session.UserID)
	ctx = context.WithValue(ctx, auth.ContextKeySession, session)
	return r.WithContext(ctx)
}

func TestGuest_IssuesAnonymousSession(t *testing.T) {
	handler, _, _ := setupAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil)
	rec := httptest.NewRecorder()
	handler.Guest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Token   string `json:"token"`
		UserID  string `json:"userId"`
		IsGuest bool   `json:"isGuest"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Token == "" || !body.IsGuest {
		t.Fatalf("unexpected guest session: %+v", body)
	}
}

func TestLogin_Success(t *testing.T) {
	handler, accountsSvc, _ := setupAuthHandler(t)
	if _, err := accountsSvc.Create("alice", "s3cret-pass"); err != nil {
		t.Fatalf("create account: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"username": "alice", "password": "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token   string `json:"token"`
		IsGuest bool   `json:"isGuest"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Token == "" || body.IsGuest {
		t.Fatalf("unexpected session: %+v", body)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	handler, _, _ := setupAuthHandler(t)

	payload, _ := json.Marshal(map[string]string{"username": "alice", "password": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	handler, _, sessionsSvc := setupAuthHandler(t)
	session, _ := sessionsSvc.CreateGuest("", "")

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), session)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, err := sessionsSvc.Validate(session.Token); err != sessions.ErrSessionNotFound {
		t.Fatalf("expected session revoked, got %v", err)
	}
}

func TestCreateAccount(t *testing.T) {
	handler, _, _ := setupAuthHandler(t)

	payload, _ := json.Marshal(map[string]string{"username": "bob", "password": "pass1234"})
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.CreateAccount(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate username conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewReader(payload))
	rec = httptest.NewRecorder()
	handler.CreateAccount(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestDeleteAccount_ProtectsMaster(t *testing.T) {
	handler, accountsSvc, _ := setupAuthHandler(t)
	master, _ := accountsSvc.GetMasterAccount()

	router := mux.NewRouter()
	router.HandleFunc("/api/accounts/{id}", handler.DeleteAccount).Methods(http.MethodDelete)

	req := httptest.NewRequest(http.MethodDelete, "/api/accounts/"+master.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUpdatePassword_RejectsGuests(t *testing.T) {
	handler, _, sessionsSvc := setupAuthHandler(t)
	guest, _ := sessionsSvc.CreateGuest("", "")

	payload, _ := json.Marshal(map[string]string{"password": "new-pass"})
	req := withSession(httptest.NewRequest(http.MethodPut, "/api/auth/password", bytes.NewReader(payload)), guest)
	rec := httptest.NewRecorder()
	handler.UpdatePassword(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
