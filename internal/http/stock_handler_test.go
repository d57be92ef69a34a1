package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockHandler_GetStock(t *testing.T) {
	store := newFakeStore(stockProduct(7, 12, ""))
	h := newStockHandler(store)

	rec, envelope := doJSON(t, h, http.MethodGet, "/stock/7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(7), data["product_id"])
	assert.Equal(t, float64(12), data["stock_quantity"])
}

func TestStockHandler_GetStock_NotFound(t *testing.T) {
	h := newStockHandler(newFakeStore())

	rec, envelope := doJSON(t, h, http.MethodGet, "/stock/99", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, envelope["success"])
	errBody := envelope["error"].(map[string]any)
	assert.Equal(t, "not_found", errBody["code"])
}

func TestStockHandler_ReconcileCourse(t *testing.T) {
	t.Run("paid takes a seat", func(t *testing.T) {
		store := newFakeStore(stockProduct(7, 5, "<p>10 Vacancies</p>"))
		h := newStockHandler(store)

		rec, envelope := doJSON(t, h, http.MethodPost, "/stock/7/course", `{"status":"Paid"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, envelope["success"])
		assert.Equal(t, 4, store.products[7].Stock())
	})

	t.Run("missing status fails validation", func(t *testing.T) {
		store := newFakeStore(stockProduct(7, 5, ""))
		h := newStockHandler(store)

		rec, envelope := doJSON(t, h, http.MethodPost, "/stock/7/course", `{}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		errBody := envelope["error"].(map[string]any)
		assert.Equal(t, "validation_failed", errBody["code"])
		assert.Equal(t, 5, store.products[7].Stock())
	})

	t.Run("malformed body", func(t *testing.T) {
		h := newStockHandler(newFakeStore(stockProduct(7, 5, "")))

		rec, _ := doJSON(t, h, http.MethodPost, "/stock/7/course", `{"status":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStockHandler_ReconcileFundraising(t *testing.T) {
	t.Run("over-reduction settles at zero", func(t *testing.T) {
		store := newFakeStore(stockProduct(9, 2, ""))
		h := newStockHandler(store)

		rec, _ := doJSON(t, h, http.MethodPost, "/stock/9/fundraising", `{"status":"Paid","quantity":5}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.products[9].Stock())
	})

	t.Run("negative quantity fails validation", func(t *testing.T) {
		store := newFakeStore(stockProduct(9, 2, ""))
		h := newStockHandler(store)

		rec, _ := doJSON(t, h, http.MethodPost, "/stock/9/fundraising", `{"status":"Paid","quantity":-1}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 2, store.products[9].Stock())
	})
}

func TestStockHandler_PortOver(t *testing.T) {
	store := newFakeStore(stockProduct(3, 5, "<p>4 Vacancies</p>")) // capacity 6
	h := newStockHandler(store)

	rec, _ := doJSON(t, h, http.MethodPost, "/stock/3/port-over", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, store.products[3].Stock())
}

func TestStockHandler_Adjust(t *testing.T) {
	t.Run("reduce", func(t *testing.T) {
		store := newFakeStore(stockProduct(5, 10, ""))
		h := newStockHandler(store)

		rec, envelope := doJSON(t, h, http.MethodPost, "/stock/5/adjust", `{"method":"reduce","amount":4}`)

		require.Equal(t, http.StatusOK, rec.Code)
		data := envelope["data"].(map[string]any)
		assert.Equal(t, float64(6), data["stock_quantity"])
	})

	t.Run("unknown method fails validation", func(t *testing.T) {
		store := newFakeStore(stockProduct(5, 10, ""))
		h := newStockHandler(store)

		rec, _ := doJSON(t, h, http.MethodPost, "/stock/5/adjust", `{"method":"drop","amount":1}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 10, store.products[5].Stock())
	})
}

func TestStockHandler_Routing(t *testing.T) {
	h := newStockHandler(newFakeStore(stockProduct(7, 5, "")))

	t.Run("non-numeric id", func(t *testing.T) {
		rec, _ := doJSON(t, h, http.MethodGet, "/stock/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		rec, _ := doJSON(t, h, http.MethodPost, "/stock/7/freeze", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method on action", func(t *testing.T) {
		rec, _ := doJSON(t, h, http.MethodGet, "/stock/7/course", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
