package search

import (
	"context"
	"log"
	"strings"
	"sync"

	"streamscout/models"
)

// DefaultQuickPageCap bounds the lightweight inline backfill used when
// filters become active outside the dedicated full-results view: 5 pages of
// 20 is 100 items, enough to filter over without hammering the upstream.
const DefaultQuickPageCap = 5

// HistoryRecorder receives successful fresh searches for the search-history
// store. Persistence lives outside this package.
type HistoryRecorder interface {
	Append(userID, query string) error
}

// Options configures an Orchestrator.
type Options struct {
	// UserID owns the session's history entries. Guest IDs are namespaced
	// by the caller.
	UserID string
	// History may be nil when the session should not record queries.
	History HistoryRecorder
	// PageSize defaults to the upstream PageSize.
	PageSize int
	// MaxPage defaults to MaxUpstreamPage.
	MaxPage int
	// QuickPageCap defaults to DefaultQuickPageCap.
	QuickPageCap int
	// ChildSafety is the initial child-safety state for the session.
	ChildSafety bool
}

// Orchestrator is the per-session state machine tying the fetcher,
// accumulator and filter engine together. All state mutation funnels through
// its methods under one lock; completion handlers of superseded requests are
// no-ops by generation check, so late-arriving data can never corrupt the
// session.
//
// Methods are safe for concurrent use. Fetching entry points block the
// calling goroutine until the work settles; concurrency across the two
// request slots comes from concurrent callers, matching the rest of the
// service layer.
type Orchestrator struct {
	fetcher      *PageFetcher
	history      HistoryRecorder
	userID       string
	pageSize     int
	maxPage      int
	quickPageCap int

	mu             sync.Mutex
	generation     uint64
	query          string
	filters        models.SearchFilters
	filterKey      string
	acc            *ResultAccumulator
	filtered       []models.ContentItem
	totalAvailable int
	currentPage    int
	isLoading      bool
	isLoadingAll   bool
	truncated      bool
	hasSearched    bool
	errMsg         string
	childSafe      bool
	lastRecorded   string
}

// NewOrchestrator creates an idle search session over the given upstream.
func NewOrchestrator(upstream Upstream, opts Options) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = PageSize
	}
	if opts.MaxPage <= 0 {
		opts.MaxPage = MaxUpstreamPage
	}
	if opts.QuickPageCap <= 0 {
		opts.QuickPageCap = DefaultQuickPageCap
	}
	filters := models.DefaultSearchFilters()
	return &Orchestrator{
		fetcher:      NewPageFetcher(upstream),
		history:      opts.History,
		userID:       opts.UserID,
		pageSize:     opts.PageSize,
		maxPage:      opts.MaxPage,
		quickPageCap: opts.QuickPageCap,
		filters:      filters,
		filterKey:    filters.Key(),
		acc:          NewResultAccumulator(opts.PageSize),
		childSafe:    opts.ChildSafety,
	}
}

// PerformSearch runs one upstream page request through the primary slot.
// Page 1 starts a fresh search and replaces existing results; higher pages
// append (load-more). An empty trimmed query clears results without a
// network call and without an error.
func (o *Orchestrator) PerformSearch(ctx context.Context, query string, page int) {
	q := strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	fresh := page == 1

	o.mu.Lock()
	if q == "" {
		o.resetResultsLocked()
		o.query = ""
		o.mu.Unlock()
		o.fetcher.CancelAll()
		return
	}
	if fresh {
		// A fresh search owns the session from here on: bump the
		// generation so completions of anything older become no-ops.
		o.generation++
		o.query = q
		o.errMsg = ""
		o.isLoading = true
		// The fresh search owns all flags; a superseded backfill must
		// not leave its loading flag behind.
		o.isLoadingAll = false
	} else {
		if o.isLoading || o.query == "" {
			o.mu.Unlock()
			return
		}
		o.isLoading = true
	}
	gen := o.generation
	childSafe := o.childSafe
	o.mu.Unlock()

	if fresh {
		// A superseding search also obsoletes any running backfill.
		o.fetcher.CancelBackfill()
	}

	res, err := o.fetcher.FetchPrimary(ctx, q, page, childSafe)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		// Superseded while in flight; this completion must not touch
		// session state.
		return
	}
	o.isLoading = false
	if err != nil {
		if IsCancelled(err) {
			return
		}
		log.Printf("[search] page %d for %q failed: %v", page, q, err)
		if fresh {
			// The fresh search already committed to replacing the
			// previous result set. The reset clears the error field
			// too, so the sticky error is set afterwards.
			o.resetResultsLocked()
			o.hasSearched = true
		}
		o.errMsg = err.Error()
		return
	}

	o.hasSearched = true
	o.errMsg = ""
	o.totalAvailable = res.Total
	if fresh {
		o.truncated = false
	}
	o.acc.MergePage(res.Items, res.Fetched, page)
	o.currentPage = page
	o.refilterLocked()

	if fresh && o.history != nil && q != o.lastRecorded {
		if recErr := o.history.Append(o.userID, q); recErr != nil {
			log.Printf("[search] history append failed: %v", recErr)
		}
		o.lastRecorded = q
	}
}

// LoadMore fetches the next page of the current search. Guarded no-op while
// loading, before any search, or with an empty query. Only meaningful when
// no filters are active (see HasMore).
func (o *Orchestrator) LoadMore(ctx context.Context) {
	o.mu.Lock()
	if o.isLoading || !o.hasSearched || o.query == "" {
		o.mu.Unlock()
		return
	}
	query := o.query
	next := o.currentPage + 1
	o.mu.Unlock()

	if next > o.maxPage {
		return
	}
	o.PerformSearch(ctx, query, next)
}

// LoadAllResults backfills every remaining page (bounded by the upstream
// page ceiling) so client-side filters see the complete result set.
func (o *Orchestrator) LoadAllResults(ctx context.Context) {
	o.backfill(ctx, 0)
}

// LoadQuickSearchResults backfills at most maxPages pages. Used for
// lightweight inline filtering contexts where the dedicated full-results
// view is not in play. maxPages <= 0 uses the configured default cap.
func (o *Orchestrator) LoadQuickSearchResults(ctx context.Context, maxPages int) {
	if maxPages <= 0 {
		maxPages = o.quickPageCap
	}
	o.backfill(ctx, maxPages)
}

// backfill drives the page loop: compute the clamped target page count, fetch
// successive pages through the backfill slot into the accumulator, and stop
// on completeness, a short/empty page, an error, or the cap. The filtered
// view is recomputed once at the end rather than per page.
func (o *Orchestrator) backfill(ctx context.Context, capPages int) {
	o.mu.Lock()
	if !o.hasSearched || o.query == "" || o.isLoadingAll {
		o.mu.Unlock()
		return
	}
	if o.acc.IsComplete(o.totalAvailable) {
		o.mu.Unlock()
		return
	}
	target := ClampToUpstreamLimit(PagesNeeded(o.totalAvailable, o.pageSize), o.maxPage)
	if capPages > 0 && target > capPages {
		target = capPages
	}
	if o.currentPage >= target {
		// Nothing left to fetch under the cap, yet incomplete.
		o.truncated = true
		o.mu.Unlock()
		return
	}
	o.isLoadingAll = true
	gen := o.generation
	query := o.query
	childSafe := o.childSafe
	page := o.currentPage + 1
	o.mu.Unlock()

	for page <= target {
		res, err := o.fetcher.FetchBackfill(ctx, query, page, childSafe)

		o.mu.Lock()
		if gen != o.generation {
			// A fresh search took over; it owns all flags now.
			o.mu.Unlock()
			return
		}
		if err != nil {
			if !IsCancelled(err) {
				log.Printf("[search] backfill page %d for %q failed: %v", page, query, err)
			}
			// Partial results stay; backfill failures never touch the
			// primary error field.
			break
		}
		o.totalAvailable = res.Total
		stop := o.acc.MergePage(res.Items, res.Fetched, page)
		o.currentPage = page
		if stop || o.acc.IsComplete(o.totalAvailable) {
			break
		}
		o.mu.Unlock()
		page++
	}

	// Loop exits hold the lock (break paths) or need to reacquire it
	// (normal exit when page > target).
	if page > target {
		o.mu.Lock()
		if gen != o.generation {
			o.mu.Unlock()
			return
		}
	}
	o.isLoadingAll = false
	o.truncated = !o.acc.IsComplete(o.totalAvailable)
	o.refilterLocked()
	o.mu.Unlock()
}

// SetFilters installs a new filter set. The reaction is edge-triggered on
// the filter key: an unchanged set is a no-op, preventing retry loops when
// backfill itself updates state. An active filter set over an incomplete
// result list triggers a quick backfill so filtering is accurate.
func (o *Orchestrator) SetFilters(ctx context.Context, filters models.SearchFilters) {
	filters = filters.Normalize()
	key := filters.Key()

	o.mu.Lock()
	if key == o.filterKey {
		o.mu.Unlock()
		return
	}
	o.filters = filters
	o.filterKey = key
	o.refilterLocked()
	needBackfill := o.hasSearched &&
		HasActiveFilters(filters) &&
		!o.acc.IsComplete(o.totalAvailable) &&
		!o.isLoadingAll
	o.mu.Unlock()

	if needBackfill {
		o.LoadQuickSearchResults(ctx, o.quickPageCap)
	}
}

// SetChildSafety toggles the child-safety upstream filter. Since it changes
// the upstream result set itself (not just the client-side view), toggling
// re-runs the current query from page 1; the generation bump in
// PerformSearch supersedes any running backfill.
func (o *Orchestrator) SetChildSafety(ctx context.Context, enabled bool) {
	o.mu.Lock()
	if o.childSafe == enabled {
		o.mu.Unlock()
		return
	}
	o.childSafe = enabled
	query := o.query
	o.mu.Unlock()

	if strings.TrimSpace(query) != "" {
		o.PerformSearch(ctx, query, 1)
	}
}

// ClearResults resets the session to empty while preserving the current
// query text. In-flight work is cancelled.
func (o *Orchestrator) ClearResults() {
	o.mu.Lock()
	o.resetResultsLocked()
	o.mu.Unlock()
	o.fetcher.CancelAll()
}

// ClearSearch resets the session to idle, clearing the query text as well.
// Cross-session data (history) is untouched.
func (o *Orchestrator) ClearSearch() {
	o.mu.Lock()
	o.resetResultsLocked()
	o.query = ""
	o.lastRecorded = ""
	o.mu.Unlock()
	o.fetcher.CancelAll()
}

// resetResultsLocked clears results and flags and invalidates in-flight
// completions. Callers hold o.mu.
func (o *Orchestrator) resetResultsLocked() {
	o.generation++
	o.acc.Reset()
	o.filtered = nil
	o.totalAvailable = 0
	o.currentPage = 0
	o.isLoading = false
	o.isLoadingAll = false
	o.truncated = false
	o.hasSearched = false
	o.errMsg = ""
}

// refilterLocked recomputes the derived filtered view. Callers hold o.mu.
func (o *Orchestrator) refilterLocked() {
	o.filtered = ApplyFilters(o.acc.Items(), o.filters)
}

// Snapshot is the UI-facing view of a search session.
type Snapshot struct {
	Query                string                `json:"query"`
	Filters              models.SearchFilters  `json:"filters"`
	ChildSafety          bool                  `json:"childSafety"`
	Results              []models.ContentItem  `json:"results"`
	TotalResults         int                   `json:"totalResults"`
	FilteredTotalResults int                   `json:"filteredTotalResults"`
	RawResultCount       int                   `json:"rawResultCount"`
	CurrentPage          int                   `json:"currentPage"`
	IsLoading            bool                  `json:"isLoading"`
	IsLoadingAll         bool                  `json:"isLoadingAll"`
	HasAllResults        bool                  `json:"hasAllResults"`
	IsTruncated          bool                  `json:"isTruncated"`
	HasMore              bool                  `json:"hasMore"`
	IsEmpty              bool                  `json:"isEmpty"`
	HasSearched          bool                  `json:"hasSearched"`
	Error                string                `json:"error,omitempty"`
}

// Snapshot returns the current session state. The results slice is a copy;
// callers may not reach the session's internal state through it.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	results := make([]models.ContentItem, len(o.filtered))
	copy(results, o.filtered)

	rawLen := o.acc.Len()
	hasAll := o.hasSearched && o.acc.IsComplete(o.totalAvailable)
	return Snapshot{
		Query:                o.query,
		Filters:              o.filters,
		ChildSafety:          o.childSafe,
		Results:              results,
		TotalResults:         o.totalAvailable,
		FilteredTotalResults: len(o.filtered),
		RawResultCount:       rawLen,
		CurrentPage:          o.currentPage,
		IsLoading:            o.isLoading,
		IsLoadingAll:         o.isLoadingAll,
		HasAllResults:        hasAll,
		IsTruncated:          o.truncated,
		HasMore:              o.hasSearched && !HasActiveFilters(o.filters) && !o.acc.IsComplete(o.totalAvailable),
		IsEmpty:              o.hasSearched && len(o.filtered) == 0 && !o.isLoading && !o.isLoadingAll,
		HasSearched:          o.hasSearched,
		Error:                o.errMsg,
	}
}

// Query returns the session's current query text.
func (o *Orchestrator) Query() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.query
}
