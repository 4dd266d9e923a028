package sessions

import (
	"strings"
	"testing"
	"time"

	"streamscout/models"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	svc, err := NewService(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestCreateForAccountAndValidate(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	session, err := svc.CreateForAccount("acct-1", true, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("CreateForAccount failed: %v", err)
	}
	if session.Token == "" || session.IsGuest {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.IsMaster {
		t.Error("expected master flag carried through")
	}

	got, err := svc.Validate(session.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.UserID != "acct-1" {
		t.Errorf("expected user acct-1, got %q", got.UserID)
	}

	if _, err := svc.Validate("bogus"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Validate(""); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCreateGuest(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	session, err := svc.CreateGuest("test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}
	if !session.IsGuest {
		t.Error("expected a guest session")
	}
	if !strings.HasPrefix(session.UserID, models.GuestUserIDPrefix) {
		t.Errorf("guest user ID %q missing namespace prefix", session.UserID)
	}

	other, _ := svc.CreateGuest("test-agent", "127.0.0.1")
	if other.UserID == session.UserID {
		t.Error("each guest session must get a distinct user ID")
	}
}

func TestGuestSessionsNotPersisted(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	account, _ := svc.CreateForAccount("acct-1", false, "", "")
	guest, _ := svc.CreateGuest("", "")

	reloaded := newTestService(t, dir)
	if _, err := reloaded.Validate(account.Token); err != nil {
		t.Errorf("expected account session to survive reload: %v", err)
	}
	if _, err := reloaded.Validate(guest.Token); err != ErrSessionNotFound {
		t.Errorf("expected guest session gone after reload, got %v", err)
	}
}

func TestExpiredSessionRejectedAndRemoved(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	session, _ := svc.CreateForAccount("acct-1", false, "", "")

	// Force expiry.
	svc.mu.Lock()
	stored := svc.sessions[session.Token]
	stored.ExpiresAt = time.Now().Add(-time.Minute)
	svc.sessions[session.Token] = stored
	svc.mu.Unlock()

	if _, err := svc.Validate(session.Token); err != ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := svc.Validate(session.Token); err != ErrSessionNotFound {
		t.Fatalf("expected session removed after expiry, got %v", err)
	}
}

func TestRefreshExtendsExpiry(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	session, _ := svc.CreateForAccount("acct-1", false, "", "")
	before := session.ExpiresAt

	time.Sleep(10 * time.Millisecond)
	refreshed, err := svc.Refresh(session.Token)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !refreshed.ExpiresAt.After(before) {
		t.Error("expected expiry to move forward")
	}
}

func TestRevoke(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	guest, _ := svc.CreateGuest("", "")
	revoked, err := svc.Revoke(guest.Token)
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if revoked.UserID != guest.UserID {
		t.Error("expected the revoked session returned")
	}
	if _, err := svc.Validate(guest.Token); err != ErrSessionNotFound {
		t.Errorf("expected session gone, got %v", err)
	}
	if _, err := svc.Revoke(guest.Token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound on double revoke, got %v", err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	svc.CreateForAccount("acct-1", false, "agent-a", "")
	svc.CreateForAccount("acct-1", false, "agent-b", "")
	svc.CreateForAccount("acct-2", false, "", "")

	if n := svc.RevokeAllForUser("acct-1"); n != 2 {
		t.Fatalf("expected 2 sessions revoked, got %d", n)
	}
	if svc.Count() != 1 {
		t.Errorf("expected 1 session left, got %d", svc.Count())
	}
}

func TestCleanupReportsOrphanedUsers(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	expired, _ := svc.CreateGuest("", "")
	live, _ := svc.CreateGuest("", "")

	svc.mu.Lock()
	stored := svc.sessions[expired.Token]
	stored.ExpiresAt = time.Now().Add(-time.Minute)
	svc.sessions[expired.Token] = stored
	svc.mu.Unlock()

	orphaned := svc.Cleanup()
	if len(orphaned) != 1 || orphaned[0] != expired.UserID {
		t.Fatalf("expected %q orphaned, got %v", expired.UserID, orphaned)
	}

	liveIDs := svc.LiveUserIDs()
	if !liveIDs[live.UserID] || liveIDs[expired.UserID] {
		t.Fatalf("unexpected live set: %v", liveIDs)
	}
}
