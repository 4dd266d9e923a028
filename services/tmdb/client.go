package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"streamscout/models"
	"streamscout/services/search"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"

	// The search endpoint serves fixed pages of 20 and rejects page
	// indexes above 500.
	PageSize = 20
	MaxPage  = 500
)

// Client is a minimal TMDB v3 client covering the search surface this
// backend needs: multi search plus certification lookups.
type Client struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
	limiter  *rate.Limiter
	cache    *responseCache
}

// NewClient creates a TMDB client. cacheDir may be empty to disable response
// caching (tests). Requests are paced to TMDB's classic 40-per-10s limit.
func NewClient(apiKey, language, cacheDir string, ttlHours int, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if language == "" {
		language = "en-US"
	}
	if ttlHours <= 0 {
		ttlHours = 24
	}
	var cache *responseCache
	if cacheDir != "" {
		cache = newResponseCache(cacheDir, time.Duration(ttlHours)*time.Hour)
	}
	return &Client{
		apiKey:   apiKey,
		language: language,
		baseURL:  defaultBaseURL,
		httpc:    httpc,
		limiter:  rate.NewLimiter(rate.Every(10*time.Second/40), 40),
		cache:    cache,
	}
}

// ClearCache drops all cached responses, forcing fresh data on the next
// request. Called when the API key or language changes.
func (c *Client) ClearCache() error {
	return c.cache.clear()
}

type searchEnvelope struct {
	Page         int             `json:"page"`
	Results      []searchRawItem `json:"results"`
	TotalPages   int             `json:"total_pages"`
	TotalResults int             `json:"total_results"`
}

type searchRawItem struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	GenreIDs         []int64 `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Adult            bool    `json:"adult"`
}

type cachedSearchPage struct {
	Items   []models.ContentItem `json:"items"`
	Fetched int                  `json:"fetched"`
	Total   int                  `json:"total"`
}

// SearchPage issues one multi-search request. childSafe excludes adult
// content upstream; person results and adult stragglers are dropped during
// conversion. The returned page reports the raw upstream entry count
// alongside the converted items so pagination never mistakes a trimmed full
// page for the end of the results.
func (c *Client) SearchPage(ctx context.Context, query string, page int, childSafe bool) (search.Page, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		return search.Page{}, fmt.Errorf("page %d exceeds the upstream page limit %d", page, MaxPage)
	}

	key := cacheKey("search", c.language, strconv.Itoa(page), strconv.FormatBool(childSafe), query)
	var cached cachedSearchPage
	if c.cache.get(key, &cached) {
		return search.Page{Items: cached.Items, Fetched: cached.Fetched, Total: cached.Total}, nil
	}

	params := url.Values{
		"query":         []string{query},
		"page":          []string{strconv.Itoa(page)},
		"language":      []string{c.language},
		"include_adult": []string{"false"},
	}

	var envelope searchEnvelope
	if err := c.doGET(ctx, "/search/multi", params, &envelope); err != nil {
		return search.Page{}, err
	}

	items := make([]models.ContentItem, 0, len(envelope.Results))
	for _, raw := range envelope.Results {
		item, ok := convertSearchItem(raw)
		if !ok {
			continue
		}
		if childSafe && item.Adult {
			continue
		}
		items = append(items, item)
	}

	result := search.Page{Items: items, Fetched: len(envelope.Results), Total: envelope.TotalResults}
	_ = c.cache.set(key, cachedSearchPage{Items: items, Fetched: result.Fetched, Total: result.Total})
	return result, nil
}

// convertSearchItem maps a raw multi-search entry to a ContentItem.
// Person entries and unknown media types are discarded.
func convertSearchItem(raw searchRawItem) (models.ContentItem, bool) {
	var mediaType models.MediaType
	switch raw.MediaType {
	case "movie":
		mediaType = models.MediaTypeMovie
	case "tv":
		mediaType = models.MediaTypeSeries
	default:
		return models.ContentItem{}, false
	}

	item := models.ContentItem{
		ID:               raw.ID,
		MediaType:        mediaType,
		Overview:         raw.Overview,
		Popularity:       raw.Popularity,
		VoteAverage:      raw.VoteAverage,
		VoteCount:        raw.VoteCount,
		PosterPath:       raw.PosterPath,
		BackdropPath:     raw.BackdropPath,
		GenreIDs:         raw.GenreIDs,
		OriginalLanguage: raw.OriginalLanguage,
	}
	if mediaType == models.MediaTypeMovie {
		item.Title = raw.Title
		item.ReleaseDate = raw.ReleaseDate
		item.Adult = raw.Adult
	} else {
		item.Name = raw.Name
		item.FirstAirDate = raw.FirstAirDate
	}
	if item.DisplayTitle() == "" {
		return models.ContentItem{}, false
	}
	return item, true
}

// doGET performs a paced, retried GET and decodes the JSON body into v.
// 429 and 5xx responses are retried with backoff; other non-2xx statuses
// surface immediately as UpstreamError. Cancellation passes through
// untouched so callers can tell superseded requests from real failures.
func (c *Client) doGET(ctx context.Context, path string, params url.Values, v any) error {
	params.Set("api_key", c.apiKey)
	u := c.baseURL + path + "?" + params.Encode()

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Unrecoverable(ctx.Err())
				}
				return &search.TransportError{Err: err}
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
				upErr := &search.UpstreamError{Status: resp.StatusCode}
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return upErr
				}
				return retry.Unrecoverable(upErr)
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(&search.TransportError{Err: err})
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Printf("[tmdb] GET %s attempt %d failed: %v", path, attempt+1, err)
		}),
	)
}
