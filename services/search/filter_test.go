package search

import (
	"reflect"
	"testing"

	"streamscout/models"
)

func movie(id int64, rating float64, date string, revenue int64) models.ContentItem {
	return models.ContentItem{
		ID:          id,
		MediaType:   models.MediaTypeMovie,
		Title:       "movie",
		VoteAverage: rating,
		ReleaseDate: date,
		Revenue:     revenue,
	}
}

func series(id int64, rating float64, date string) models.ContentItem {
	return models.ContentItem{
		ID:           id,
		MediaType:    models.MediaTypeSeries,
		Name:         "series",
		VoteAverage:  rating,
		FirstAirDate: date,
	}
}

func ids(items []models.ContentItem) []int64 {
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestDefaultFiltersAreNoOp(t *testing.T) {
	items := []models.ContentItem{
		movie(1, 7.5, "1995-06-01", 100),
		series(2, 8.2, "2012-01-01"),
		movie(3, 0, "", 0),
	}

	got := ApplyFilters(items, models.DefaultSearchFilters())
	if !reflect.DeepEqual(ids(got), ids(items)) {
		t.Fatalf("default filters changed result set: got %v, want %v", ids(got), ids(items))
	}

	// Zero-value filters normalize to defaults and must behave the same.
	got = ApplyFilters(items, models.SearchFilters{})
	if !reflect.DeepEqual(ids(got), ids(items)) {
		t.Fatalf("zero-value filters changed result set: got %v", ids(got))
	}
}

func TestFilterIdempotence(t *testing.T) {
	items := []models.ContentItem{
		movie(1, 9.1, "2021-03-01", 500),
		series(2, 7.4, "2022-01-01"),
		movie(3, 6.0, "2020-05-05", 900),
		series(4, 8.8, ""),
	}
	filterSets := []models.SearchFilters{
		models.DefaultSearchFilters(),
		{ContentType: models.ContentTypeMovie, Rating: models.RatingFloor7, Year: models.Year2020s, SortBy: models.SortRevenueDesc},
		{Rating: models.RatingFloor8, SortBy: models.SortRatingDesc},
	}

	for _, filters := range filterSets {
		once := ApplyFilters(items, filters)
		twice := ApplyFilters(once, filters)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filters %q not idempotent: %v vs %v", filters.Key(), ids(once), ids(twice))
		}
	}
}

func TestContentTypeFilter(t *testing.T) {
	items := []models.ContentItem{movie(1, 5, "", 0), series(2, 5, ""), movie(3, 5, "", 0)}

	got := ApplyFilters(items, models.SearchFilters{ContentType: models.ContentTypeMovie})
	if !reflect.DeepEqual(ids(got), []int64{1, 3}) {
		t.Errorf("movie filter: got %v, want [1 3]", ids(got))
	}

	got = ApplyFilters(items, models.SearchFilters{ContentType: models.ContentTypeSeries})
	if !reflect.DeepEqual(ids(got), []int64{2}) {
		t.Errorf("series filter: got %v, want [2]", ids(got))
	}
}

func TestRatingFloorExcludesMissingRating(t *testing.T) {
	items := []models.ContentItem{
		movie(1, 7.2, "", 0),
		movie(2, 0, "", 0), // no rating: treated as 0, excluded by any floor
		series(3, 9.3, ""),
		series(4, 6.9, ""),
	}

	got := ApplyFilters(items, models.SearchFilters{Rating: models.RatingFloor7})
	if !reflect.DeepEqual(ids(got), []int64{1, 3}) {
		t.Errorf("7.0+ filter: got %v, want [1 3]", ids(got))
	}

	got = ApplyFilters(items, models.SearchFilters{Rating: models.RatingFloor9})
	if !reflect.DeepEqual(ids(got), []int64{3}) {
		t.Errorf("9.0+ filter: got %v, want [3]", ids(got))
	}
}

func TestYearFilterPassesMissingDate(t *testing.T) {
	items := []models.ContentItem{
		movie(1, 5, "1994-02-01", 0),
		movie(2, 5, "", 0),          // missing date passes any year filter
		series(3, 5, "not-a-date"),  // unparseable date passes too
		series(4, 5, "2015-09-01"),
	}

	got := ApplyFilters(items, models.SearchFilters{Year: models.Year1990s})
	if !reflect.DeepEqual(ids(got), []int64{1, 2, 3}) {
		t.Errorf("1990s filter: got %v, want [1 2 3]", ids(got))
	}

	got = ApplyFilters(items, models.SearchFilters{Year: models.Year2010s})
	if !reflect.DeepEqual(ids(got), []int64{2, 3, 4}) {
		t.Errorf("2010s filter: got %v, want [2 3 4]", ids(got))
	}
}

func TestRevenueSortTreatsSeriesAsZero(t *testing.T) {
	items := []models.ContentItem{
		series(1, 8, "2020-01-01"),
		movie(2, 7, "2020-01-01", 300),
		series(3, 9, "2021-01-01"),
		movie(4, 6, "2019-01-01", 900),
		movie(5, 5, "2018-01-01", 0),
	}

	got := ApplyFilters(items, models.SearchFilters{SortBy: models.SortRevenueDesc})

	// Movies with nonzero revenue first (descending), then all zero-revenue
	// items in their prior relative order (stability).
	want := []int64{4, 2, 1, 3, 5}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("revenue sort: got %v, want %v", ids(got), want)
	}
}

func TestRatingSortStable(t *testing.T) {
	items := []models.ContentItem{
		movie(1, 7.0, "", 0),
		movie(2, 9.0, "", 0),
		series(3, 7.0, ""), // ties with 1, must stay after it
		movie(4, 8.0, "", 0),
	}

	got := ApplyFilters(items, models.SearchFilters{SortBy: models.SortRatingDesc})
	want := []int64{2, 4, 1, 3}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("rating sort: got %v, want %v", ids(got), want)
	}
}

func TestApplyFiltersDoesNotMutateInput(t *testing.T) {
	items := []models.ContentItem{
		movie(3, 2, "2001-01-01", 10),
		movie(1, 9, "1999-01-01", 700),
		series(2, 5, "2011-01-01"),
	}
	original := make([]models.ContentItem, len(items))
	copy(original, items)

	_ = ApplyFilters(items, models.SearchFilters{Rating: models.RatingFloor7, SortBy: models.SortRevenueDesc})

	if !reflect.DeepEqual(items, original) {
		t.Fatal("ApplyFilters mutated its input slice")
	}
}

func TestHasActiveFilters(t *testing.T) {
	if HasActiveFilters(models.DefaultSearchFilters()) {
		t.Error("default filters reported active")
	}
	if HasActiveFilters(models.SearchFilters{}) {
		t.Error("zero-value filters reported active")
	}
	active := []models.SearchFilters{
		{ContentType: models.ContentTypeMovie},
		{Rating: models.RatingFloor8},
		{Year: models.Year2000s},
		{SortBy: models.SortRatingDesc},
	}
	for _, f := range active {
		if !HasActiveFilters(f) {
			t.Errorf("filters %q not reported active", f.Key())
		}
	}
}
