package search

import (
	"context"
	"sync"

	"streamscout/models"
)

// Page is one fetched upstream page.
type Page struct {
	// Items holds the page's results after client-side gating (person
	// entries, the certification gate) removed entries.
	Items []models.ContentItem
	// Fetched counts the results the upstream actually served for the
	// page, before gating. End-of-results detection keys on this rather
	// than len(Items), so a gated full page does not read as the last one.
	Fetched int
	// Total is the upstream-reported total match count for the query.
	Total int
}

// Upstream is the single capability consumed from the media-metadata
// provider: one paginated search request. childSafe restricts the result set
// to family-appropriate content on the provider side.
type Upstream interface {
	SearchPage(ctx context.Context, query string, page int, childSafe bool) (Page, error)
}

// fetchSlot tracks the one in-flight request allowed per logical slot.
// Starting a new request cancels the previous occupant rather than queueing:
// search-as-you-type produces many superseded requests and the most recent
// intent wins.
type fetchSlot struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// begin cancels the slot's previous occupant and installs a fresh child
// context for the new request. The returned done func must be called when
// the request settles.
func (s *fetchSlot) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
	return ctx, done
}

// abort cancels whatever occupies the slot.
func (s *fetchSlot) abort() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// PageFetcher issues upstream page requests through two independent slots:
// the primary search/load-more slot and the bulk-backfill slot. The two may
// run concurrently with each other but never with themselves.
type PageFetcher struct {
	upstream Upstream
	primary  fetchSlot
	backfill fetchSlot
}

// NewPageFetcher wraps an upstream search capability.
func NewPageFetcher(upstream Upstream) *PageFetcher {
	return &PageFetcher{upstream: upstream}
}

// FetchPrimary issues a request in the new-search/load-more slot, cancelling
// any request already occupying it.
func (f *PageFetcher) FetchPrimary(ctx context.Context, query string, page int, childSafe bool) (Page, error) {
	return f.fetch(&f.primary, ctx, query, page, childSafe)
}

// FetchBackfill issues a request in the bulk-backfill slot, cancelling any
// request already occupying it.
func (f *PageFetcher) FetchBackfill(ctx context.Context, query string, page int, childSafe bool) (Page, error) {
	return f.fetch(&f.backfill, ctx, query, page, childSafe)
}

// CancelBackfill aborts any in-flight backfill request. Used when a fresh
// search supersedes a running backfill.
func (f *PageFetcher) CancelBackfill() {
	f.backfill.abort()
}

// CancelAll aborts all in-flight requests in both slots.
func (f *PageFetcher) CancelAll() {
	f.primary.abort()
	f.backfill.abort()
}

func (f *PageFetcher) fetch(slot *fetchSlot, ctx context.Context, query string, page int, childSafe bool) (Page, error) {
	reqCtx, done := slot.begin(ctx)
	defer done()
	return f.upstream.SearchPage(reqCtx, query, page, childSafe)
}
