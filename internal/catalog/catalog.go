package catalog

import (
	"context"
	"errors"

	"stocksync/internal/platform/woocommerce"
)

// StatusPublished is the only product status eligible for filtering and
// matching; drafts and private listings never reach the storefront.
const StatusPublished = "publish"

// ErrScanTruncated reports that a paginated catalog scan stopped before the
// catalog was exhausted, either because a page fetch failed or because the
// page cap was hit. Accumulated results are still returned alongside it.
var ErrScanTruncated = errors.New("catalog scan truncated")

// Lister is the slice of the store client the scanning components need.
type Lister interface {
	ListProducts(ctx context.Context, page, perPage int) ([]woocommerce.Product, error)
}

// ScanConfig bounds a paginated catalog scan.
type ScanConfig struct {
	// PageSize is the per_page value sent to the store; 100 is the wc/v3 maximum.
	PageSize int
	// MaxPages caps the scan so a pathological endpoint cannot loop forever.
	MaxPages int
}

// DefaultScanConfig matches the store's page-size ceiling and allows
// catalogs of up to 5000 products before truncating.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{PageSize: 100, MaxPages: 50}
}

func (c ScanConfig) normalized() ScanConfig {
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 50
	}
	return c
}
