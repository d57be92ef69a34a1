package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"stocksync/internal/httpx"
	"stocksync/internal/lock"
	"stocksync/internal/metrics"
	"stocksync/internal/stock"
)

type StockHandler struct {
	reconciler *stock.Reconciler
	locks      *lock.Keyed
	metrics    *metrics.Metrics
}

func NewStockHandler(reconciler *stock.Reconciler, locks *lock.Keyed, m *metrics.Metrics) *StockHandler {
	return &StockHandler{reconciler: reconciler, locks: locks, metrics: m}
}

// ServeHTTP routes /stock/{id} and /stock/{id}/{action}. The stdlib mux has
// no path parameters, so the id and action are peeled off by hand.
func (h *StockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/stock/")
	if rest == r.URL.Path || rest == "" {
		http.NotFound(w, r)
		return
	}

	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "product id must be a positive integer", nil)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getStock(w, r, id)
	case action == "course" && r.Method == http.MethodPost:
		h.reconcileCourse(w, r, id)
	case action == "fundraising" && r.Method == http.MethodPost:
		h.reconcileFundraising(w, r, id)
	case action == "port-over" && r.Method == http.MethodPost:
		h.portOver(w, r, id)
	case action == "adjust" && r.Method == http.MethodPost:
		h.adjust(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *StockHandler) getStock(w http.ResponseWriter, r *http.Request, id int) {
	product, err := h.reconciler.Stock(r.Context(), id)
	if err != nil {
		h.metrics.RecordRequest("get_stock", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordRequest("get_stock", true)
	httpx.JSONSuccessWithRequest(r, w, map[string]interface{}{
		"product_id":     id,
		"stock_quantity": product.Stock(),
	}, nil)
}

type courseReconcileRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *StockHandler) reconcileCourse(w http.ResponseWriter, r *http.Request, id int) {
	var req courseReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	unlock := h.locks.Lock(strconv.Itoa(id))
	defer unlock()

	if err := h.reconciler.ReconcileCourse(r.Context(), id, req.Status); err != nil {
		h.metrics.RecordReconciliation("course", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordReconciliation("course", true)
	httpx.JSONSuccessWithRequest(r, w, nil, nil)
}

type fundraisingReconcileRequest struct {
	Status   string `json:"status" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func (h *StockHandler) reconcileFundraising(w http.ResponseWriter, r *http.Request, id int) {
	var req fundraisingReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	unlock := h.locks.Lock(strconv.Itoa(id))
	defer unlock()

	if err := h.reconciler.ReconcileFundraising(r.Context(), id, req.Status, req.Quantity); err != nil {
		h.metrics.RecordReconciliation("fundraising", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordReconciliation("fundraising", true)
	httpx.JSONSuccessWithRequest(r, w, nil, nil)
}

func (h *StockHandler) portOver(w http.ResponseWriter, r *http.Request, id int) {
	unlock := h.locks.Lock(strconv.Itoa(id))
	defer unlock()

	if err := h.reconciler.PortOver(r.Context(), id); err != nil {
		h.metrics.RecordReconciliation("port_over", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordReconciliation("port_over", true)
	httpx.JSONSuccessWithRequest(r, w, nil, nil)
}

type adjustRequest struct {
	Method string `json:"method" validate:"required,oneof=reduce increase"`
	Amount int    `json:"amount" validate:"gte=0"`
}

func (h *StockHandler) adjust(w http.ResponseWriter, r *http.Request, id int) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	if details := toErrorDetails(ValidateStruct(req)); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "validation_failed", "Invalid request", details)
		return
	}

	method, err := stock.ParseAdjustMethod(req.Method)
	if err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	unlock := h.locks.Lock(strconv.Itoa(id))
	defer unlock()

	product, err := h.reconciler.Adjust(r.Context(), id, method, req.Amount)
	if err != nil {
		h.metrics.RecordReconciliation("adjust", false)
		writeUpstreamError(r, w, err)
		return
	}
	h.metrics.RecordReconciliation("adjust", true)
	httpx.JSONSuccessWithRequest(r, w, map[string]interface{}{
		"product_id":     id,
		"stock_quantity": product.Stock(),
	}, nil)
}
