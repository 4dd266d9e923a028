package models

import "time"

// SearchHistoryEntry is one remembered search query for a user.
// Entries are kept most-recent-first and capped per user.
type SearchHistoryEntry struct {
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searchedAt"`
}
