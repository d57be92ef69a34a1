package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the store reports no product for an id.
var ErrNotFound = errors.New("woocommerce: product not found")

// TransportError wraps any network or HTTP-level failure against the store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("woocommerce: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Category is one node of a product's taxonomy path. Position in the
// Categories slice is the depth in the taxonomy.
type Category struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// Product mirrors the wc/v3 product resource, limited to the fields the
// sync layer reads or writes.
type Product struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	Categories       []Category `json:"categories"`
	StockQuantity    *int       `json:"stock_quantity"`
	ManageStock      bool       `json:"manage_stock"`
	ShortDescription string     `json:"short_description"`
	Price            string     `json:"price"`
	RegularPrice     string     `json:"regular_price"`
	SalePrice        string     `json:"sale_price"`
}

// Stock returns the stock quantity, treating an absent value as 0.
func (p *Product) Stock() int {
	if p.StockQuantity == nil {
		return 0
	}
	return *p.StockQuantity
}

// ProductUpdate is a partial update body; only non-nil fields are sent.
type ProductUpdate struct {
	StockQuantity *int    `json:"stock_quantity,omitempty"`
	ManageStock   *bool   `json:"manage_stock,omitempty"`
	Price         *string `json:"price,omitempty"`
	RegularPrice  *string `json:"regular_price,omitempty"`
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	limiter        *rate.Limiter
}

// NewClient builds a client for a wc/v3 store. storeURL is the site root,
// e.g. https://example.com; credentials are the REST API consumer pair.
func NewClient(storeURL, consumerKey, consumerSecret string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:        strings.TrimRight(storeURL, "/") + "/wp-json/wc/v3",
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		limiter:        rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
	}
}

// ListProducts fetches one page of the product catalog. An empty slice
// means the catalog is exhausted.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]Product, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct applies a partial update; unset fields keep their remote value.
func (c *Client) UpdateProduct(ctx context.Context, id int, update ProductUpdate) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target interface{}) error {
	op := method + " " + path

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("woocommerce: encode %s body: %w", op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + path
	// Credentials ride as query parameters; wc/v3 over HTTPS accepts this
	// in place of basic-auth headers.
	if strings.Contains(fullURL, "?") {
		fullURL += "&"
	} else {
		fullURL += "?"
	}
	fullURL += "consumer_key=" + url.QueryEscape(c.consumerKey) +
		"&consumer_secret=" + url.QueryEscape(c.consumerSecret)

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(respBody))),
		}
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
