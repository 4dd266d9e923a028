package tmdb

import (
	"context"

	"streamscout/services/childsafety"
	"streamscout/services/search"
)

// SafeUpstream adapts the client to the search upstream interface and
// applies the certification gate when child-safe mode is on.
type SafeUpstream struct {
	client *Client
	policy childsafety.Policy
}

var _ search.Upstream = (*SafeUpstream)(nil)

// NewSafeUpstream wraps a client with the given child-safety policy.
func NewSafeUpstream(client *Client, policy childsafety.Policy) *SafeUpstream {
	return &SafeUpstream{client: client, policy: policy}
}

// SearchPage fetches one page. In child-safe mode items are enriched with
// certifications first, then gated; the page's fetched count and the
// upstream total stay untouched so pagination math never sees a gated full
// page as the end of the results.
func (u *SafeUpstream) SearchPage(ctx context.Context, query string, page int, childSafe bool) (search.Page, error) {
	p, err := u.client.SearchPage(ctx, query, page, childSafe)
	if err != nil || !childSafe {
		return p, err
	}
	u.client.EnrichCertifications(ctx, p.Items)
	p.Items = u.policy.FilterItems(p.Items)
	return p, nil
}
