package stock

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"stocksync/internal/catalog"
	"stocksync/internal/platform/woocommerce"
)

// AdjustMethod selects the direction of a direct stock adjustment.
type AdjustMethod string

const (
	AdjustReduce   AdjustMethod = "reduce"
	AdjustIncrease AdjustMethod = "increase"
)

// ParseAdjustMethod validates a caller-supplied method name.
func ParseAdjustMethod(s string) (AdjustMethod, error) {
	switch AdjustMethod(s) {
	case AdjustReduce, AdjustIncrease:
		return AdjustMethod(s), nil
	}
	return "", fmt.Errorf("unknown adjust method %q", s)
}

// CatalogClient is the slice of the store client the reconciler needs.
type CatalogClient interface {
	GetProduct(ctx context.Context, id int) (*woocommerce.Product, error)
	UpdateProduct(ctx context.Context, id int, update woocommerce.ProductUpdate) (*woocommerce.Product, error)
}

// Config holds the status labels that drive stock movement and the capacity
// parsing parameters. The labels are the booking system's vocabulary, not
// the store's order statuses.
type Config struct {
	Capacity catalog.CapacityConfig

	// Course bookings move stock one seat at a time.
	CourseIncreaseStatuses []string
	CourseDecreaseStatuses []string

	// Fundraising orders move stock by the ordered quantity.
	FundraisingIncreaseStatuses []string
	FundraisingDecreaseStatuses []string
}

// DefaultConfig returns the production status mapping.
func DefaultConfig() Config {
	return Config{
		Capacity:                    catalog.DefaultCapacityConfig(),
		CourseIncreaseStatuses:      []string{"Withdrawn"},
		CourseDecreaseStatuses:      []string{"Paid", "SkillsFuture Done", "Confirmed"},
		FundraisingIncreaseStatuses: []string{"Withdrawn", "Refunded"},
		FundraisingDecreaseStatuses: []string{"Paid", "Confirmed"},
	}
}

// Reconciler applies booking-status-driven stock deltas against the store.
// Every call is a single read-modify-write; the store is the system of
// record and idempotence is re-derived by reading current stock each time.
type Reconciler struct {
	client CatalogClient
	cfg    Config
	log    logrus.FieldLogger
}

func NewReconciler(client CatalogClient, cfg Config, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{client: client, cfg: cfg, log: log}
}

// ReconcileCourse adjusts a course listing's stock for one booking event.
// Withdrawals free a seat only while stock sits below the parsed capacity;
// payment and confirmation events take a seat, never below zero. Unknown
// statuses are a no-op, not an error.
func (r *Reconciler) ReconcileCourse(ctx context.Context, productID int, status string) error {
	product, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("reconcile course stock: %w", err)
	}

	current := product.Stock()
	next := current

	switch {
	case slices.Contains(r.cfg.CourseIncreaseStatuses, status):
		capacity := r.cfg.Capacity.Parse(product.ShortDescription)
		if current < capacity {
			next = current + 1
		}
	case slices.Contains(r.cfg.CourseDecreaseStatuses, status):
		if current > 0 {
			next = current - 1
		}
	default:
		r.log.WithFields(logrus.Fields{
			"product_id": productID,
			"status":     status,
		}).Info("status does not move course stock")
		return nil
	}

	return r.writeStock(ctx, productID, current, next, status)
}

// ReconcileFundraising adjusts a fundraising listing's stock by the ordered
// quantity. Withdrawals and refunds restock; payment and confirmation events
// deduct, settling at exactly zero when stock is insufficient.
func (r *Reconciler) ReconcileFundraising(ctx context.Context, productID int, status string, quantity int) error {
	if quantity < 0 {
		return errors.New("reconcile fundraising stock: quantity must be non-negative")
	}

	product, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("reconcile fundraising stock: %w", err)
	}

	current := product.Stock()
	next := current

	switch {
	case slices.Contains(r.cfg.FundraisingIncreaseStatuses, status):
		next = current + quantity
	case slices.Contains(r.cfg.FundraisingDecreaseStatuses, status):
		if current >= quantity {
			next = current - quantity
		} else {
			next = 0
		}
	default:
		r.log.WithFields(logrus.Fields{
			"product_id": productID,
			"status":     status,
		}).Info("status does not move fundraising stock")
		return nil
	}

	return r.writeStock(ctx, productID, current, next, status)
}

// PortOver frees one seat on a course listing when a confirmed booking is
// migrated to it from another listing. No status check: the admin action
// itself is the trigger. The capacity ceiling still applies.
func (r *Reconciler) PortOver(ctx context.Context, productID int) error {
	product, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("port over stock: %w", err)
	}

	current := product.Stock()
	next := current
	capacity := r.cfg.Capacity.Parse(product.ShortDescription)
	if current < capacity {
		next = current + 1
	}

	return r.writeStock(ctx, productID, current, next, "port-over")
}

// Adjust applies a direct delta without status branching. Reductions floor
// at zero.
func (r *Reconciler) Adjust(ctx context.Context, productID int, method AdjustMethod, amount int) (*woocommerce.Product, error) {
	if amount < 0 {
		return nil, errors.New("adjust stock: amount must be non-negative")
	}

	product, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	current := product.Stock()
	var next int
	switch method {
	case AdjustReduce:
		next = current - amount
		if next < 0 {
			next = 0
		}
	case AdjustIncrease:
		next = current + amount
	default:
		return nil, fmt.Errorf("adjust stock: unknown method %q", method)
	}

	updated, err := r.update(ctx, productID, next)
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"product_id": productID,
		"method":     method,
		"from":       current,
		"to":         next,
	}).Info("stock adjusted")
	return updated, nil
}

// Stock returns the current product snapshot; callers read Stock() off it.
func (r *Reconciler) Stock(ctx context.Context, productID int) (*woocommerce.Product, error) {
	product, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return product, nil
}

// UpdateFundraisingDetails rewrites a fundraising listing's price and stock.
// A negative stock quantity is coerced to zero rather than rejected; the
// storefront must never advertise negative availability.
func (r *Reconciler) UpdateFundraisingDetails(ctx context.Context, productID int, price string, stockQuantity int) (*woocommerce.Product, error) {
	if stockQuantity < 0 {
		stockQuantity = 0
	}
	if price == "" {
		price = "0"
	}

	manage := true
	updated, err := r.client.UpdateProduct(ctx, productID, woocommerce.ProductUpdate{
		StockQuantity: &stockQuantity,
		ManageStock:   &manage,
		Price:         &price,
		RegularPrice:  &price,
	})
	if err != nil {
		return nil, fmt.Errorf("update fundraising details: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"product_id": productID,
		"price":      price,
		"stock":      stockQuantity,
	}).Info("fundraising details updated")
	return updated, nil
}

func (r *Reconciler) writeStock(ctx context.Context, productID, current, next int, reason string) error {
	if _, err := r.update(ctx, productID, next); err != nil {
		return fmt.Errorf("write stock: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"product_id": productID,
		"status":     reason,
		"from":       current,
		"to":         next,
	}).Info("stock reconciled")
	return nil
}

// update pushes the new quantity with stock management enabled; the store
// silently ignores stock_quantity otherwise.
func (r *Reconciler) update(ctx context.Context, productID, quantity int) (*woocommerce.Product, error) {
	if quantity < 0 {
		quantity = 0
	}
	manage := true
	return r.client.UpdateProduct(ctx, productID, woocommerce.ProductUpdate{
		StockQuantity: &quantity,
		ManageStock:   &manage,
	})
}
