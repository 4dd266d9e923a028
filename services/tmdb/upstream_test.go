package tmdb

import (
	"context"
	"net/http"
	"testing"

	"streamscout/services/childsafety"
)

func TestSafeUpstreamGatesByCertification(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/multi":
			return jsonResponse(http.StatusOK, searchBody), nil
		case "/3/movie/1/release_dates":
			return jsonResponse(http.StatusOK, `{"results":[{"iso_3166_1":"US","release_dates":[{"certification":"R"}]}]}`), nil
		case "/3/tv/2/content_ratings":
			return jsonResponse(http.StatusOK, `{"results":[{"iso_3166_1":"US","rating":"TV-G"}]}`), nil
		}
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})
	upstream := NewSafeUpstream(client, childsafety.DefaultPolicy())

	p, err := upstream.SearchPage(context.Background(), "heat", 1, true)
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}
	if p.Total != 25 {
		t.Errorf("gating must not change the upstream total, got %d", p.Total)
	}
	// The raw envelope held 4 entries; gating must not shrink the fetched
	// count, or a gated full page would read as the last one.
	if p.Fetched != 4 {
		t.Errorf("gating changed the fetched count, got %d", p.Fetched)
	}
	// The R-rated movie is gated out; the TV-G series survives.
	if len(p.Items) != 1 || p.Items[0].ID != 2 {
		t.Fatalf("unexpected items after gating: %+v", p.Items)
	}
}

func TestSafeUpstreamSkipsGateWhenOff(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/search/multi" {
			t.Errorf("no certification lookups expected, got %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, searchBody), nil
	})
	upstream := NewSafeUpstream(client, childsafety.DefaultPolicy())

	p, err := upstream.SearchPage(context.Background(), "heat", 1, false)
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}
	if len(p.Items) != 3 {
		t.Fatalf("expected ungated items, got %d", len(p.Items))
	}
}
