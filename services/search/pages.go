package search

// Upstream pagination constants. The provider returns fixed pages of 20 and
// refuses page indexes above 500 (10,000 addressable results per query).
const (
	PageSize        = 20
	MaxUpstreamPage = 500
)

// PagesNeeded returns how many pages cover totalAvailable results at the
// given page size, never less than 1.
//
// Ceiling division is load-bearing here: a truncating totalAvailable/pageSize
// drops the final partial page (25 results at size 20 is 2 pages, not 1).
func PagesNeeded(totalAvailable, pageSize int) int {
	if pageSize <= 0 || totalAvailable <= 0 {
		return 1
	}
	return (totalAvailable + pageSize - 1) / pageSize
}

// ClampToUpstreamLimit bounds a page count against the upstream's hard page
// ceiling. Requests beyond the ceiling must never be issued.
func ClampToUpstreamLimit(pages, upstreamMaxPage int) int {
	if upstreamMaxPage > 0 && pages > upstreamMaxPage {
		return upstreamMaxPage
	}
	return pages
}
