package database

import (
	"database/sql"
	"fmt"
	"time"

	"streamscout/models"
)

// HistoryLimit caps how many distinct queries are kept per user.
const HistoryLimit = 10

// SearchHistoryRepository persists per-user search history. Each user keeps
// at most HistoryLimit distinct queries in most-recently-searched order;
// repeating a query bumps it to the front instead of duplicating it.
type SearchHistoryRepository struct {
	conn *sql.DB
}

// NewSearchHistoryRepository creates a repository backed by the given connection.
func NewSearchHistoryRepository(conn *sql.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{conn: conn}
}

// Append records a search for a user, bumping the query if it already
// exists and evicting the oldest entries beyond the limit.
func (r *SearchHistoryRepository) Append(userID, query string, searchedAt time.Time) error {
	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO search_history (user_id, query, searched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, query) DO UPDATE SET searched_at = excluded.searched_at`,
		userID, query, searchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM search_history
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM search_history
			WHERE user_id = ?
			ORDER BY searched_at DESC, id DESC
			LIMIT ?
		)`,
		userID, userID, HistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return tx.Commit()
}

// List returns a user's history, most recent first.
func (r *SearchHistoryRepository) List(userID string) ([]models.SearchHistoryEntry, error) {
	rows, err := r.conn.Query(`
		SELECT query, searched_at FROM search_history
		WHERE user_id = ?
		ORDER BY searched_at DESC, id DESC
		LIMIT ?`,
		userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var entry models.SearchHistoryEntry
		if err := rows.Scan(&entry.Query, &entry.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes all history for a user.
func (r *SearchHistoryRepository) Clear(userID string) error {
	if _, err := r.conn.Exec(`DELETE FROM search_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
