package search

import (
	"sort"

	"streamscout/models"
)

// ApplyFilters runs the client-side filter pipeline over items and returns a
// new slice. The input is never mutated, and default ("all") filter values
// are exact no-ops so that applying default filters preserves both membership
// and order.
//
// Pipeline order is fixed: content type, rating floor, year decade, then an
// optional stable sort.
func ApplyFilters(items []models.ContentItem, filters models.SearchFilters) []models.ContentItem {
	filters = filters.Normalize()

	out := make([]models.ContentItem, 0, len(items))
	floor := filters.RatingFloor()
	yearFrom, yearTo, yearActive := filters.YearRange()
	for _, item := range items {
		if filters.ContentType != models.FilterAll && string(item.MediaType) != filters.ContentType {
			continue
		}
		// Missing ratings count as 0, so any floor excludes unrated items.
		if floor > 0 && item.VoteAverage < floor {
			continue
		}
		// Missing or unparseable dates pass the year filter: absence of
		// data is not grounds for exclusion here, unlike the rating rule.
		if yearActive {
			if year := item.ReleaseYear(); year != 0 && (year < yearFrom || year > yearTo) {
				continue
			}
		}
		out = append(out, item)
	}

	switch filters.SortBy {
	case models.SortRevenueDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RevenueValue() > out[j].RevenueValue()
		})
	case models.SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].VoteAverage > out[j].VoteAverage
		})
	}
	// popularity.desc is the upstream default ordering; no client-side re-sort.

	return out
}

// HasActiveFilters reports whether any filter field differs from its default.
// Gates whether bulk backfill is needed at all: with no active filters,
// paginated load-more is sufficient and cheaper.
func HasActiveFilters(filters models.SearchFilters) bool {
	return !filters.IsDefault()
}
