package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"stocksync/internal/catalog"
	"stocksync/internal/lock"
	"stocksync/internal/metrics"
	"stocksync/internal/platform/woocommerce"
	"stocksync/internal/stock"
)

// fakeStore is an in-memory stand-in for the store client, serving the
// whole catalog as a single page.
type fakeStore struct {
	products map[int]*woocommerce.Product
	order    []int
	getErr   error
	updErr   error
	updates  []woocommerce.ProductUpdate
}

func newFakeStore(products ...*woocommerce.Product) *fakeStore {
	s := &fakeStore{products: make(map[int]*woocommerce.Product)}
	for _, p := range products {
		s.products[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s
}

func (s *fakeStore) ListProducts(ctx context.Context, page, perPage int) ([]woocommerce.Product, error) {
	if page > 1 {
		return nil, nil
	}
	out := make([]woocommerce.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.products[id])
	}
	return out, nil
}

func (s *fakeStore) GetProduct(ctx context.Context, id int) (*woocommerce.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, woocommerce.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) UpdateProduct(ctx context.Context, id int, update woocommerce.ProductUpdate) (*woocommerce.Product, error) {
	if s.updErr != nil {
		return nil, s.updErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, woocommerce.ErrNotFound
	}
	s.updates = append(s.updates, update)
	if update.StockQuantity != nil {
		qty := *update.StockQuantity
		p.StockQuantity = &qty
	}
	if update.ManageStock != nil {
		p.ManageStock = *update.ManageStock
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.RegularPrice != nil {
		p.RegularPrice = *update.RegularPrice
	}
	copied := *p
	return &copied, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testMetrics() *metrics.Metrics {
	return metrics.NewWithRegisterer(prometheus.NewRegistry())
}

func newStockHandler(store *fakeStore) *StockHandler {
	reconciler := stock.NewReconciler(store, stock.DefaultConfig(), quietLogger())
	return NewStockHandler(reconciler, lock.NewKeyed(), testMetrics())
}

func newProductHandler(store *fakeStore) *ProductHandler {
	log := quietLogger()
	cfg := catalog.DefaultScanConfig()
	filter := catalog.NewFilter(store, cfg, log)
	matcher := catalog.NewMatcher(store, cfg, log)
	reconciler := stock.NewReconciler(store, stock.DefaultConfig(), log)
	return NewProductHandler(filter, matcher, store, reconciler, testMetrics())
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var envelope map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func stockProduct(id, qty int, shortDescription string) *woocommerce.Product {
	return &woocommerce.Product{
		ID:               id,
		Status:           "publish",
		StockQuantity:    &qty,
		ManageStock:      true,
		ShortDescription: shortDescription,
	}
}
