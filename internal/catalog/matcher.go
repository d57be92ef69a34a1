package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Course listing names pack two or three display lines into one string,
// joined by hand-typed break tags in either spelling.
var lineBreakRe = regexp.MustCompile(`<br\s*/?>`)

// Match is the outcome of a catalog search. Exist is true iff a product was
// found; a nil ID with Exist true never occurs.
type Match struct {
	ID    *int `json:"id"`
	Exist bool `json:"exist"`
}

// Matcher resolves product ids from the loose identifying fields the booking
// system carries: bilingual location-qualified course names, or plain
// fundraising item names.
type Matcher struct {
	client Lister
	cfg    ScanConfig
	log    logrus.FieldLogger
}

func NewMatcher(client Lister, cfg ScanConfig, log logrus.FieldLogger) *Matcher {
	return &Matcher{client: client, cfg: cfg.normalized(), log: log}
}

// ByStructuredName finds the course listing whose name splits into
// (chinese, english, location) on break tags. Listings without a Chinese
// line split into two parts and are compared as (english, location).
// The first match across all pages wins; other split counts are skipped.
func (m *Matcher) ByStructuredName(ctx context.Context, chinese, english, location string) (Match, error) {
	return m.scan(ctx, func(name string) bool {
		parts := lineBreakRe.Split(name, -1)
		switch len(parts) {
		case 3:
			return strings.TrimSpace(parts[0]) == chinese &&
				strings.TrimSpace(parts[1]) == english &&
				strings.TrimSpace(parts[2]) == location
		case 2:
			return strings.TrimSpace(parts[0]) == english &&
				strings.TrimSpace(parts[1]) == location
		}
		return false
	})
}

// ByName finds a product by exact name, falling back to a case-insensitive
// substring match. Matches are taken in pagination order: a substring hit on
// an early page wins over an exact hit on a later one.
func (m *Matcher) ByName(ctx context.Context, name string) (Match, error) {
	lower := strings.ToLower(name)
	return m.scan(ctx, func(candidate string) bool {
		if candidate == name {
			return true
		}
		return strings.Contains(strings.ToLower(candidate), lower)
	})
}

// ByExactName finds a product by exact name only. Fundraising detail
// retrieval uses this; substring fallback would pick up unrelated items.
func (m *Matcher) ByExactName(ctx context.Context, name string) (Match, error) {
	return m.scan(ctx, func(candidate string) bool {
		return candidate == name
	})
}

func (m *Matcher) scan(ctx context.Context, matches func(name string) bool) (Match, error) {
	for page := 1; ; page++ {
		if page > m.cfg.MaxPages {
			return Match{}, fmt.Errorf("page cap %d reached: %w", m.cfg.MaxPages, ErrScanTruncated)
		}

		products, err := m.client.ListProducts(ctx, page, m.cfg.PageSize)
		if err != nil {
			m.log.WithField("page", page).WithError(err).Error("product match scan failed")
			return Match{}, err
		}
		if len(products) == 0 {
			// Search exhausted with nothing found.
			return Match{Exist: false}, nil
		}

		for _, p := range products {
			if matches(p.Name) {
				id := p.ID
				return Match{ID: &id, Exist: true}, nil
			}
		}
	}
}
