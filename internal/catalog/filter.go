package catalog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"stocksync/internal/platform/woocommerce"
)

// CategoryPredicate selects how a target category name is matched against a
// product's taxonomy path.
type CategoryPredicate string

const (
	// PredicateSecondLevel matches products whose path is exactly two levels
	// deep with the target at position 1. The root at position 0 is a fixed
	// storefront category and is not checked. Used for the NSA, ILP and
	// Marriage Preparation programmes.
	PredicateSecondLevel CategoryPredicate = "second_level"
	// PredicateTopThree matches products carrying the target anywhere in the
	// first three levels. Used for Talks and Seminar.
	PredicateTopThree CategoryPredicate = "top_three"
	// PredicateShallowAny matches products with a one- or two-level path
	// carrying the target at any position. Used for Support Us fundraising.
	PredicateShallowAny CategoryPredicate = "shallow_any"
)

// ParseCategoryPredicate validates a caller-supplied predicate name.
func ParseCategoryPredicate(s string) (CategoryPredicate, error) {
	switch CategoryPredicate(s) {
	case PredicateSecondLevel, PredicateTopThree, PredicateShallowAny:
		return CategoryPredicate(s), nil
	}
	return "", fmt.Errorf("unknown category predicate %q", s)
}

// Filter scans the whole catalog and returns published products whose
// category path satisfies a predicate.
type Filter struct {
	client Lister
	cfg    ScanConfig
	log    logrus.FieldLogger
}

func NewFilter(client Lister, cfg ScanConfig, log logrus.FieldLogger) *Filter {
	return &Filter{client: client, cfg: cfg.normalized(), log: log}
}

// ByCategory returns every qualifying product across all pages, preserving
// remote order. When a page fetch fails or the page cap is reached, the
// products accumulated so far are returned together with ErrScanTruncated;
// callers decide whether partial data is acceptable.
func (f *Filter) ByCategory(ctx context.Context, predicate CategoryPredicate, target string) ([]woocommerce.Product, error) {
	var matched []woocommerce.Product

	for page := 1; ; page++ {
		if page > f.cfg.MaxPages {
			f.log.WithFields(logrus.Fields{
				"predicate": predicate,
				"category":  target,
				"max_pages": f.cfg.MaxPages,
			}).Warn("category scan hit page cap")
			return matched, fmt.Errorf("page cap %d reached: %w", f.cfg.MaxPages, ErrScanTruncated)
		}

		products, err := f.client.ListProducts(ctx, page, f.cfg.PageSize)
		if err != nil {
			f.log.WithFields(logrus.Fields{
				"predicate": predicate,
				"category":  target,
				"page":      page,
			}).WithError(err).Warn("category scan truncated by transport failure")
			return matched, fmt.Errorf("page %d: %v: %w", page, err, ErrScanTruncated)
		}
		if len(products) == 0 {
			return matched, nil
		}

		for _, p := range products {
			if categoryMatches(&p, predicate, target) {
				matched = append(matched, p)
			}
		}
	}
}

func categoryMatches(p *woocommerce.Product, predicate CategoryPredicate, target string) bool {
	if p.Status != StatusPublished {
		return false
	}

	switch predicate {
	case PredicateSecondLevel:
		return len(p.Categories) == 2 && p.Categories[1].Name == target
	case PredicateTopThree:
		if len(p.Categories) == 0 {
			return false
		}
		for i, c := range p.Categories {
			if i > 2 {
				break
			}
			if c.Name == target {
				return true
			}
		}
		return false
	case PredicateShallowAny:
		if len(p.Categories) != 1 && len(p.Categories) != 2 {
			return false
		}
		for _, c := range p.Categories {
			if c.Name == target {
				return true
			}
		}
		return false
	}
	return false
}
