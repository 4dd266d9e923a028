package models

import (
	"fmt"
	"time"
)

// ListKind identifies one of the personal lists a user can maintain.
type ListKind string

const (
	ListKindLikes     ListKind = "likes"
	ListKindHidden    ListKind = "hidden"
	ListKindWatchlist ListKind = "watchlist"
)

// ValidListKind reports whether kind names a known personal list.
func ValidListKind(kind ListKind) bool {
	switch kind {
	case ListKindLikes, ListKindHidden, ListKindWatchlist:
		return true
	}
	return false
}

// ListEntry is a lightweight reference to a content item stored in a
// personal list. Enough is denormalized to render a tile without a metadata
// round trip.
type ListEntry struct {
	MediaType  MediaType `json:"mediaType"`
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	AddedAt    time.Time `json:"addedAt"`
}

// Key returns the identity used for dedup within a list.
func (e ListEntry) Key() string {
	return fmt.Sprintf("%s:%d", e.MediaType, e.ID)
}
