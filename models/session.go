package models

import (
	"strings"
	"time"
)

// GuestUserIDPrefix namespaces guest user IDs so guest state (history, lists)
// can never collide with an authenticated account ID.
const GuestUserIDPrefix = "guest:"

// Session is an issued session token, either for an authenticated account or
// for an anonymous guest.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"` // account ID, or guest:<id>
	IsGuest   bool      `json:"isGuest"`
	IsMaster  bool      `json:"isMaster"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// IsExpired reports whether the session has expired.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsGuestUserID reports whether a user ID belongs to the guest namespace.
func IsGuestUserID(userID string) bool {
	return userID == "" || strings.HasPrefix(userID, GuestUserIDPrefix)
}
