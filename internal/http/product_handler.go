package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stocksync/internal/catalog"
	"stocksync/internal/httpx"
	"stocksync/internal/metrics"
	"stocksync/internal/platform/woocommerce"
	"stocksync/internal/stock"
)

// ProductGetter is the read side of the store client the product handler
// needs for detail retrieval.
type ProductGetter interface {
	GetProduct(ctx context.Context, id int) (*woocommerce.Product, error)
}

type ProductHandler struct {
	filter     *catalog.Filter
	matcher    *catalog.Matcher
	getter     ProductGetter
	reconciler *stock.Reconciler
	metrics    *metrics.Metrics
}

func NewProductHandler(filter *catalog.Filter, matcher *catalog.Matcher, getter ProductGetter, reconciler *stock.Reconciler, m *metrics.Metrics) *ProductHandler {
	return &ProductHandler{
		filter:     filter,
		matcher:    matcher,
		getter:     getter,
		reconciler: reconciler,
		metrics:    m,
	}
}

type productSummary struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	StockQuantity *int   `json:"stock_quantity"`
	Price         string `json:"price"`
	RegularPrice  string `json:"regular_price"`
	SalePrice     string `json:"sale_price"`
	ShortDesc     string `json:"short_description"`
}

func summarize(p *woocommerce.Product) productSummary {
	return productSummary{
		ID:            p.ID,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		Price:         p.Price,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		ShortDesc:     p.ShortDescription,
	}
}

// List serves GET /products?predicate=&category=. A scan truncated by a
// transport failure or the page cap still returns the accumulated products,
// flagged in meta, so the storefront keeps rendering what was found.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	predicate, err := catalog.ParseCategoryPredicate(r.URL.Query().Get("predicate"))
	if err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "category is required", nil)
		return
	}

	products, err := h.filter.ByCategory(r.Context(), predicate, category)
	truncated := errors.Is(err, catalog.ErrScanTruncated)
	if err != nil && !truncated {
		h.metrics.RecordRequest("filter_by_category", false)
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "catalog scan failed", nil)
		return
	}
	if truncated {
		h.metrics.RecordTruncatedScan()
	}
	h.metrics.RecordRequest("filter_by_category", true)

	summaries := make([]productSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, summarize(&products[i]))
	}

	var meta interface{}
	if truncated {
		meta = map[string]interface{}{"truncated": true}
	}
	httpx.JSONSuccessWithRequest(r, w, summaries, meta)
}

type matchRequest struct {
	Chinese  string `json:"chinese"`
	English  string `json:"english" validate:"required"`
	Location string `json:"location" validate:"required"`
}

// Match serves POST /products/match, resolving a course listing from its
// structured bilingual name.
func (h *ProductHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	match, err := h.matcher.ByStructuredName(r.Context(), req.Chinese, req.English, req.Location)
	if err != nil {
		h.metrics.RecordRequest("match_structured", false)
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "catalog scan failed", nil)
		return
	}
	h.metrics.RecordRequest("match_structured", true)
	httpx.JSONSuccessWithRequest(r, w, match, nil)
}

type matchByNameRequest struct {
	Name string `json:"name" validate:"required"`
}

// MatchByName serves POST /products/match-by-name.
func (h *ProductHandler) MatchByName(w http.ResponseWriter, r *http.Request) {
	var req matchByNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	match, err := h.matcher.ByName(r.Context(), req.Name)
	if err != nil {
		h.metrics.RecordRequest("match_by_name", false)
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "catalog scan failed", nil)
		return
	}
	h.metrics.RecordRequest("match_by_name", true)
	httpx.JSONSuccessWithRequest(r, w, match, nil)
}

type detailsRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,required"`
}

// Details serves POST /products/details: fundraising listing details looked
// up by exact product names. Names that resolve to nothing are skipped, the
// rest are returned; the storefront tolerates gaps.
func (h *ProductHandler) Details(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	results := make([]productSummary, 0, len(req.Names))
	for _, name := range req.Names {
		match, err := h.matcher.ByExactName(r.Context(), name)
		if err != nil {
			h.metrics.RecordRequest("product_details", false)
			httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "catalog scan failed", nil)
			return
		}
		if !match.Exist {
			continue
		}
		product, err := h.getter.GetProduct(r.Context(), *match.ID)
		if err != nil {
			h.metrics.RecordRequest("product_details", false)
			httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "product fetch failed", nil)
			return
		}
		results = append(results, summarize(product))
	}
	h.metrics.RecordRequest("product_details", true)
	httpx.JSONSuccessWithRequest(r, w, results, nil)
}

type updateDetailsRequest struct {
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

// UpdateDetails serves PUT /products/{id}/details, rewriting a fundraising
// listing's price and stock.
func (h *ProductHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(r.URL.Path, "/products/", "/details")
	if !ok {
		http.NotFound(w, r)
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}

	product, err := h.reconciler.UpdateFundraisingDetails(r.Context(), id, req.Price, req.StockQuantity)
	if err != nil {
		h.metrics.RecordRequest("update_details", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordRequest("update_details", true)
	httpx.JSONSuccessWithRequest(r, w, summarize(product), nil)
}

func toErrorDetails(errs []ValidationError) []httpx.ErrorDetail {
	if len(errs) == 0 {
		return nil
	}
	details := make([]httpx.ErrorDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, httpx.ErrorDetail{Field: e.Field, Message: e.Message})
	}
	return details
}

// productIDFromPath extracts the numeric id between prefix and suffix, e.g.
// /products/42/details -> 42. Routing on the stdlib mux keeps this manual.
func productIDFromPath(path, prefix, suffix string) (int, bool) {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeUpstreamError(r *http.Request, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, woocommerce.ErrNotFound):
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "not_found", "product not found", nil)
	case woocommerce.IsTransport(err):
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "upstream_error", "store request failed", nil)
	default:
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	}
}
