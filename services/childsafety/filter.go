package childsafety

import (
	"strings"

	"streamscout/models"
)

// Certification ladders - lower number = more restrictive
var movieCertOrder = map[string]int{
	"G":     1,
	"PG":    2,
	"PG-13": 3,
	"R":     4,
	"NC-17": 5,
}

var tvCertOrder = map[string]int{
	"TV-Y":     1,
	"TV-Y7":    2,
	"TV-Y7-FV": 2, // Fantasy violence variant of TV-Y7
	"TV-G":     3,
	"TV-PG":    4,
	"TV-14":    5,
	"TV-MA":    6,
}

// Default maximum certifications while child-safety mode is on.
const (
	DefaultMaxMovieCert = "PG"
	DefaultMaxTVCert    = "TV-PG"
)

// CertLevel returns the restrictiveness level for a certification within its
// media type's ladder. Returns 0 for unknown or empty certifications.
func CertLevel(certification string, mediaType models.MediaType) int {
	cert := strings.ToUpper(strings.TrimSpace(certification))
	if cert == "" {
		return 0
	}
	if mediaType == models.MediaTypeMovie {
		return movieCertOrder[cert]
	}
	return tvCertOrder[cert]
}

// Policy is the child-safety gate applied to content while safe mode is on.
type Policy struct {
	MaxMovieCert string
	MaxTVCert    string
}

// DefaultPolicy returns the family-appropriate default gate.
func DefaultPolicy() Policy {
	return Policy{MaxMovieCert: DefaultMaxMovieCert, MaxTVCert: DefaultMaxTVCert}
}

// Allows reports whether an item passes the gate. Unrated content and
// unknown certifications are blocked: the gate fails closed.
func (p Policy) Allows(item models.ContentItem) bool {
	max := p.MaxMovieCert
	if item.MediaType == models.MediaTypeSeries {
		max = p.MaxTVCert
	}
	if strings.TrimSpace(max) == "" {
		return true
	}

	level := CertLevel(item.Certification, item.MediaType)
	maxLevel := CertLevel(max, item.MediaType)
	if level == 0 || maxLevel == 0 {
		return false
	}
	return level <= maxLevel
}

// FilterItems returns the items passing the gate, preserving order. The
// input slice is not mutated.
func (p Policy) FilterItems(items []models.ContentItem) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if p.Allows(item) {
			out = append(out, item)
		}
	}
	return out
}

// ValidCert reports whether a certification string is a known movie or TV
// certification. Empty means "no restriction" and is valid.
func ValidCert(cert string) bool {
	cert = strings.ToUpper(strings.TrimSpace(cert))
	if cert == "" {
		return true
	}
	_, movieOK := movieCertOrder[cert]
	_, tvOK := tvCertOrder[cert]
	return movieOK || tvOK
}
