package tmdb

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"streamscout/models"
)

// enrichWorkers bounds the parallel certification lookups per batch.
const enrichWorkers = 4

type movieReleaseDatesEnvelope struct {
	Results []struct {
		ISO3166 string `json:"iso_3166_1"`
		Dates   []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

type tvContentRatingsEnvelope struct {
	Results []struct {
		ISO3166 string `json:"iso_3166_1"`
		Rating  string `json:"rating"`
	} `json:"results"`
}

// EnrichCertifications fills in the US certification for items that lack
// one, fetching release-dates/content-ratings in bounded parallel. Failures
// leave the item's certification empty; the child-safety gate treats unrated
// content as blocked, so a lookup failure fails closed.
func (c *Client) EnrichCertifications(ctx context.Context, items []models.ContentItem) {
	p := pool.New().WithMaxGoroutines(enrichWorkers)
	for i := range items {
		if items[i].Certification != "" {
			continue
		}
		i := i
		p.Go(func() {
			cert, err := c.certification(ctx, items[i].MediaType, items[i].ID)
			if err != nil {
				log.Printf("[tmdb] certification lookup for %s %d failed: %v", items[i].MediaType, items[i].ID, err)
				return
			}
			items[i].Certification = cert
		})
	}
	p.Wait()
}

func (c *Client) certification(ctx context.Context, mediaType models.MediaType, id int64) (string, error) {
	key := cacheKey("certification", string(mediaType), strconv.FormatInt(id, 10))
	var cached string
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	var cert string
	switch mediaType {
	case models.MediaTypeMovie:
		var envelope movieReleaseDatesEnvelope
		if err := c.doGET(ctx, fmt.Sprintf("/movie/%d/release_dates", id), url.Values{}, &envelope); err != nil {
			return "", err
		}
		for _, entry := range envelope.Results {
			if entry.ISO3166 != "US" {
				continue
			}
			for _, d := range entry.Dates {
				if d.Certification != "" {
					cert = d.Certification
					break
				}
			}
		}
	case models.MediaTypeSeries:
		var envelope tvContentRatingsEnvelope
		if err := c.doGET(ctx, fmt.Sprintf("/tv/%d/content_ratings", id), url.Values{}, &envelope); err != nil {
			return "", err
		}
		for _, entry := range envelope.Results {
			if entry.ISO3166 == "US" && entry.Rating != "" {
				cert = entry.Rating
				break
			}
		}
	default:
		return "", fmt.Errorf("unknown media type %q", mediaType)
	}

	_ = c.cache.set(key, cert)
	return cert, nil
}
