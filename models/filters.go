package models

import "fmt"

// Filter option values. "all" (and the popularity sort) are pure no-ops so
// that default filters leave result sets untouched.
const (
	FilterAll = "all"

	ContentTypeMovie  = "movie"
	ContentTypeSeries = "series"

	RatingFloor7 = "7.0+"
	RatingFloor8 = "8.0+"
	RatingFloor9 = "9.0+"

	Year1990s = "1990s"
	Year2000s = "2000s"
	Year2010s = "2010s"
	Year2020s = "2020s"

	SortPopularityDesc = "popularity.desc"
	SortRevenueDesc    = "revenue.desc"
	SortRatingDesc     = "rating.desc"
)

// SearchFilters is the client-side filter configuration applied on top of
// upstream search results.
type SearchFilters struct {
	ContentType string `json:"contentType"` // all | movie | series
	Rating      string `json:"rating"`      // all | 7.0+ | 8.0+ | 9.0+
	Year        string `json:"year"`        // all | 1990s | 2000s | 2010s | 2020s
	SortBy      string `json:"sortBy"`      // popularity.desc | revenue.desc | rating.desc
}

// DefaultSearchFilters returns the no-op filter configuration.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		ContentType: FilterAll,
		Rating:      FilterAll,
		Year:        FilterAll,
		SortBy:      SortPopularityDesc,
	}
}

// Normalize replaces empty fields with their defaults so partially-populated
// request bodies behave like defaults rather than unknown values.
func (f SearchFilters) Normalize() SearchFilters {
	def := DefaultSearchFilters()
	if f.ContentType == "" {
		f.ContentType = def.ContentType
	}
	if f.Rating == "" {
		f.Rating = def.Rating
	}
	if f.Year == "" {
		f.Year = def.Year
	}
	if f.SortBy == "" {
		f.SortBy = def.SortBy
	}
	return f
}

// IsDefault reports whether every field carries its no-op value.
func (f SearchFilters) IsDefault() bool {
	return f.Normalize() == DefaultSearchFilters()
}

// Key returns a stable serialization of the filter set. Used to edge-trigger
// filter reactions: a reaction fires only when the key changes, never on
// unrelated state updates.
func (f SearchFilters) Key() string {
	n := f.Normalize()
	return fmt.Sprintf("%s|%s|%s|%s", n.ContentType, n.Rating, n.Year, n.SortBy)
}

// RatingFloor returns the minimum average rating implied by the rating
// filter, or 0 when the filter is "all" or unrecognized.
func (f SearchFilters) RatingFloor() float64 {
	switch f.Rating {
	case RatingFloor7:
		return 7.0
	case RatingFloor8:
		return 8.0
	case RatingFloor9:
		return 9.0
	default:
		return 0
	}
}

// YearRange returns the inclusive decade bounds implied by the year filter.
// ok is false when the filter is "all" or unrecognized.
func (f SearchFilters) YearRange() (from, to int, ok bool) {
	switch f.Year {
	case Year1990s:
		return 1990, 1999, true
	case Year2000s:
		return 2000, 2009, true
	case Year2010s:
		return 2010, 2019, true
	case Year2020s:
		return 2020, 2029, true
	default:
		return 0, 0, false
	}
}
