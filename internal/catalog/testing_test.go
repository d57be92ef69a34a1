package catalog

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"stocksync/internal/platform/woocommerce"
)

// pagedLister serves a fixed set of catalog pages; pages past the end are
// empty, and errAt injects a failure on a specific page number.
type pagedLister struct {
	pages [][]woocommerce.Product
	errAt map[int]error
	calls int
}

func (f *pagedLister) ListProducts(ctx context.Context, page, perPage int) ([]woocommerce.Product, error) {
	f.calls++
	if err, ok := f.errAt[page]; ok {
		return nil, err
	}
	if page > len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func published(id int, name string, categories ...string) woocommerce.Product {
	p := woocommerce.Product{ID: id, Name: name, Status: StatusPublished}
	for _, c := range categories {
		p.Categories = append(p.Categories, woocommerce.Category{Name: c})
	}
	return p
}
