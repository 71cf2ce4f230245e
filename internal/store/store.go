// Package store provides the storage port for bank products and its adapters.
package store

import (
	"context"
	"iter"
	"time"
)

// BankProduct is the stored form of a bank product.
type BankProduct struct {
	ID               string
	Name             string
	ProductType      string
	Comision         float64
	LimitMovimientos int32
	CreatedAt        time.Time
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying document store, allowing for different implementations (in-memory, MongoDB, PostgreSQL).
// Every call observes ctx: cancelling it aborts the pending operation.
type ProductStore interface {
	// FindAll streams every stored product. An empty store yields an empty sequence.
	// Iteration stops at the first error, which is yielded with a zero product.
	FindAll(ctx context.Context) iter.Seq2[BankProduct, error]

	// FindByID looks a product up by its ID. found is false when no product has that ID,
	// including IDs that are malformed for the backend; absence is not an error.
	FindByID(ctx context.Context, id string) (product BankProduct, found bool, err error)

	// Insert stores a new product under a freshly assigned ID and returns the stored form.
	Insert(ctx context.Context, product BankProduct) (BankProduct, error)

	// Update replaces the stored product with the same ID.
	// Returns ErrProductNotFound if no product exists with that ID.
	Update(ctx context.Context, product BankProduct) (BankProduct, error)

	// Delete removes the product with the same ID.
	// Returns ErrProductNotFound if no product exists with that ID.
	Delete(ctx context.Context, product BankProduct) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
