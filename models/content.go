package models

import "strconv"

// MediaType discriminates the two content variants returned by the upstream
// metadata provider.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ContentItem is a single search result: either a movie or a series,
// discriminated by MediaType. Movie-only and series-only fields are zero for
// the other variant.
type ContentItem struct {
	ID               int64     `json:"id"`
	MediaType        MediaType `json:"mediaType"`
	Title            string    `json:"title,omitempty"` // movies: localized title
	Name             string    `json:"name,omitempty"`  // series: localized name
	Overview         string    `json:"overview,omitempty"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"voteAverage"`
	VoteCount        int       `json:"voteCount"`
	PosterPath       string    `json:"posterPath,omitempty"`
	BackdropPath     string    `json:"backdropPath,omitempty"`
	GenreIDs         []int64   `json:"genreIds,omitempty"`
	OriginalLanguage string    `json:"originalLanguage,omitempty"`
	Certification    string    `json:"certification,omitempty"`

	// Movie fields
	ReleaseDate string `json:"releaseDate,omitempty"` // YYYY-MM-DD
	Revenue     int64  `json:"revenue,omitempty"`
	Runtime     int    `json:"runtime,omitempty"`
	Adult       bool   `json:"adult,omitempty"`

	// Series fields
	FirstAirDate    string `json:"firstAirDate,omitempty"` // YYYY-MM-DD
	EpisodeRunTimes []int  `json:"episodeRunTimes,omitempty"`
	SeasonCount     int    `json:"seasonCount,omitempty"`
	EpisodeCount    int    `json:"episodeCount,omitempty"`
}

// DisplayTitle returns the variant-appropriate title field.
func (c ContentItem) DisplayTitle() string {
	if c.MediaType == MediaTypeSeries {
		return c.Name
	}
	return c.Title
}

// ReleaseYear derives the year from the variant-appropriate date field.
// Returns 0 when the date is missing or unparseable.
func (c ContentItem) ReleaseYear() int {
	date := c.ReleaseDate
	if c.MediaType == MediaTypeSeries {
		date = c.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// RevenueValue returns the revenue used for revenue-based sorting.
// Series have no revenue and always sort as zero.
func (c ContentItem) RevenueValue() int64 {
	if c.MediaType != MediaTypeMovie {
		return 0
	}
	return c.Revenue
}
