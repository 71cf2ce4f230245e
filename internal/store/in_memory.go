package store

import (
	"context"
	"iter"
	"slices"
	"sync"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"github.com/google/uuid"
)

// InMemory implements ProductStore using an in-memory map.
// Products are listed in insertion order.
type InMemory struct {
	mu       sync.RWMutex
	products map[string]BankProduct
	order    []string
}

// NewInMemoryStore creates a new, empty in-memory ProductStore.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[string]BankProduct),
	}
}

// FindAll streams a snapshot of the products taken when iteration starts.
func (s *InMemory) FindAll(ctx context.Context) iter.Seq2[BankProduct, error] {
	return func(yield func(BankProduct, error) bool) {
		s.mu.RLock()
		snapshot := make([]BankProduct, 0, len(s.order))
		for _, id := range s.order {
			snapshot = append(snapshot, s.products[id])
		}
		s.mu.RUnlock()

		for _, p := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(BankProduct{}, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// FindByID retrieves a product by its ID.
func (s *InMemory) FindByID(ctx context.Context, id string) (BankProduct, bool, error) {
	if err := ctx.Err(); err != nil {
		return BankProduct{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok, nil
}

// Insert assigns a new UUID to the product and stores it.
func (s *InMemory) Insert(ctx context.Context, product BankProduct) (BankProduct, error) {
	if err := ctx.Err(); err != nil {
		return BankProduct{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = uuid.NewString()
	s.products[product.ID] = product
	s.order = append(s.order, product.ID)
	return product, nil
}

// Update replaces an existing product.
func (s *InMemory) Update(ctx context.Context, product BankProduct) (BankProduct, error) {
	if err := ctx.Err(); err != nil {
		return BankProduct{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return BankProduct{}, perrors.ErrProductNotFound
	}
	s.products[product.ID] = product
	return product, nil
}

// Delete removes a product by its ID.
func (s *InMemory) Delete(ctx context.Context, product BankProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return perrors.ErrProductNotFound
	}
	delete(s.products, product.ID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == product.ID })
	return nil
}

// Ping always succeeds.
func (s *InMemory) Ping(_ context.Context) error {
	return nil
}
