package childsafety

import (
	"testing"

	"streamscout/models"
)

func TestCertLevelOrdering(t *testing.T) {
	if CertLevel("G", models.MediaTypeMovie) >= CertLevel("R", models.MediaTypeMovie) {
		t.Error("G should be more restrictive than R")
	}
	if CertLevel("TV-Y", models.MediaTypeSeries) >= CertLevel("TV-MA", models.MediaTypeSeries) {
		t.Error("TV-Y should be more restrictive than TV-MA")
	}
	if CertLevel("", models.MediaTypeMovie) != 0 {
		t.Error("empty certification should be level 0")
	}
	if CertLevel("pg-13", models.MediaTypeMovie) == 0 {
		t.Error("certification matching should be case-insensitive")
	}
}

func TestPolicyAllows(t *testing.T) {
	policy := Policy{MaxMovieCert: "PG", MaxTVCert: "TV-PG"}

	tests := []struct {
		name    string
		item    models.ContentItem
		allowed bool
	}{
		{"G movie allowed", models.ContentItem{MediaType: models.MediaTypeMovie, Certification: "G"}, true},
		{"PG movie allowed at limit", models.ContentItem{MediaType: models.MediaTypeMovie, Certification: "PG"}, true},
		{"R movie blocked", models.ContentItem{MediaType: models.MediaTypeMovie, Certification: "R"}, false},
		{"unrated movie blocked", models.ContentItem{MediaType: models.MediaTypeMovie}, false},
		{"unknown cert blocked", models.ContentItem{MediaType: models.MediaTypeMovie, Certification: "X18"}, false},
		{"TV-G allowed", models.ContentItem{MediaType: models.MediaTypeSeries, Certification: "TV-G"}, true},
		{"TV-MA blocked", models.ContentItem{MediaType: models.MediaTypeSeries, Certification: "TV-MA"}, false},
		{"unrated series blocked", models.ContentItem{MediaType: models.MediaTypeSeries}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Allows(tt.item); got != tt.allowed {
				t.Errorf("Allows(%+v) = %v, want %v", tt.item, got, tt.allowed)
			}
		})
	}
}

func TestEmptyMaxAllowsEverything(t *testing.T) {
	policy := Policy{}
	if !policy.Allows(models.ContentItem{MediaType: models.MediaTypeMovie, Certification: "NC-17"}) {
		t.Error("empty policy should allow everything")
	}
	if !policy.Allows(models.ContentItem{MediaType: models.MediaTypeSeries}) {
		t.Error("empty policy should allow unrated content")
	}
}

func TestFilterItemsPreservesOrder(t *testing.T) {
	policy := DefaultPolicy()
	items := []models.ContentItem{
		{ID: 1, MediaType: models.MediaTypeMovie, Certification: "G"},
		{ID: 2, MediaType: models.MediaTypeMovie, Certification: "R"},
		{ID: 3, MediaType: models.MediaTypeSeries, Certification: "TV-Y"},
		{ID: 4, MediaType: models.MediaTypeSeries, Certification: "TV-MA"},
	}

	got := policy.FilterItems(items)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected filtered items: %+v", got)
	}
	if len(items) != 4 {
		t.Fatal("input slice was mutated")
	}
}

func TestValidCert(t *testing.T) {
	for _, cert := range []string{"", "G", "PG-13", "tv-ma", "TV-Y7-FV"} {
		if !ValidCert(cert) {
			t.Errorf("expected %q valid", cert)
		}
	}
	for _, cert := range []string{"XYZ", "RATED-R"} {
		if ValidCert(cert) {
			t.Errorf("expected %q invalid", cert)
		}
	}
}
