package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamscout/handlers"
	"streamscout/models"
	"streamscout/services/history"
)

func TestHistoryListAndClear(t *testing.T) {
	svc := history.NewService(nil)
	handler := handlers.NewHistoryHandler(svc)
	session := testSession("a")

	svc.Append(session.UserID, "batman")
	svc.Append(session.UserID, "superman")

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/history", nil), session)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []models.SearchHistoryEntry
	json.NewDecoder(rec.Body).Decode(&entries)
	if len(entries) != 2 || entries[0].Query != "superman" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	req = withSession(httptest.NewRequest(http.MethodDelete, "/api/history", nil), session)
	rec = httptest.NewRecorder()
	handler.Clear(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = withSession(httptest.NewRequest(http.MethodGet, "/api/history", nil), session)
	rec = httptest.NewRecorder()
	handler.List(rec, req)
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array after clear, got %q", body)
	}
}

func TestHistoryRequiresSession(t *testing.T) {
	handler := handlers.NewHistoryHandler(history.NewService(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
