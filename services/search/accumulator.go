package search

import "streamscout/models"

// ResultAccumulator owns the growing raw result list for the active query.
// Pages are merged append-only and in order; incoming slices are copied so a
// caller's input is never aliased or mutated after the call.
//
// The accumulator is not goroutine-safe on its own; the orchestrator mutates
// it only while holding the session lock.
type ResultAccumulator struct {
	pageSize   int
	items      []models.ContentItem
	fetched    int
	lastPage   int
	sawEndStop bool
}

// NewResultAccumulator returns an empty accumulator for the given nominal
// upstream page size.
func NewResultAccumulator(pageSize int) *ResultAccumulator {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &ResultAccumulator{pageSize: pageSize}
}

// Reset discards all merged pages, ready for a fresh query.
func (a *ResultAccumulator) Reset() {
	a.items = nil
	a.fetched = 0
	a.lastPage = 0
	a.sawEndStop = false
}

// MergePage merges one fetched page. fetched is the number of results the
// upstream served for the page before any client-side gating; the
// end-of-results heuristic keys on it, so a full page trimmed by gating is
// not mistaken for the last page. Page 1 replaces any existing results;
// later pages append. Returns true when fetching should stop because the
// upstream has no more data:
//
//   - an empty page always stops immediately
//   - a short page (fewer than pageSize fetched) is treated as the last
//     page regardless of the reported total, since page contents are more
//     trustworthy than the upstream's count
func (a *ResultAccumulator) MergePage(items []models.ContentItem, fetched, page int) (stop bool) {
	if fetched < len(items) {
		fetched = len(items)
	}
	if page <= 1 {
		a.items = nil
		a.fetched = 0
		a.lastPage = 0
		a.sawEndStop = false
	} else if page <= a.lastPage {
		// Out-of-order or duplicate page delivery; ignore rather than
		// corrupt insertion order.
		return a.sawEndStop
	}
	a.items = append(a.items, items...)
	a.fetched += fetched
	a.lastPage = page
	if fetched < a.pageSize {
		a.sawEndStop = true
	}
	return a.sawEndStop
}

// Items returns a copy of the merged results.
func (a *ResultAccumulator) Items() []models.ContentItem {
	out := make([]models.ContentItem, len(a.items))
	copy(out, a.items)
	return out
}

// Len returns the number of merged results.
func (a *ResultAccumulator) Len() int {
	return len(a.items)
}

// LastPage returns the highest page index merged so far (0 when empty).
func (a *ResultAccumulator) LastPage() int {
	return a.lastPage
}

// IsComplete reports whether every upstream-reported result has been seen.
// Gated entries count as seen: they were fetched, there is just nothing more
// to get for them.
func (a *ResultAccumulator) IsComplete(totalAvailable int) bool {
	return a.fetched >= totalAvailable
}
