// Package service provides the implementation of bank product business logic.
package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"github.com/abgdnv/bankproduct/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing bank products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll streams every product. An empty store yields an empty sequence.
	FindAll(ctx context.Context) iter.Seq2[ProductDto, error]

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create validates and stores a new product, defaulting createdAt to now when absent.
	// Returns a *ValidationError, without touching the store, if the product is invalid.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update replaces the mutable fields of an existing product. ID and createdAt are kept.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, product ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) error

	// Validate reports the field violations of a create request without storing anything.
	Validate(product ProductCreateDto) []FieldError
}

// Service implements ProductService and provides methods to manage bank products.
type Service struct {
	repository      store.ProductStore
	validator       *structValidator
	now             func() time.Time
	productsCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return newService(repo, otel.Meter("bankproduct-service"))
}

func newService(repo store.ProductStore, meter metric.Meter) *Service {
	productsCounter, err := meter.Int64Counter("products_created", metric.WithDescription("Total number of created bank products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_created counter: %v", err))
	}
	return &Service{
		repository:      repo,
		validator:       newStructValidator(),
		now:             time.Now,
		productsCounter: productsCounter,
	}
}

// ProductDto represents the data transfer object for a bank product.
type ProductDto struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ProductType      string    `json:"productType"`
	Comision         float64   `json:"comision"`
	LimitMovimientos int32     `json:"limitMovimientos"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ProductCreateDto represents the data transfer object for creating a new bank product.
// CreatedAt is optional; when absent the service stamps the creation time.
type ProductCreateDto struct {
	Name             string       `json:"name"             validate:"required,notblank"`
	ProductType      string       `json:"productType"      validate:"required,notblank"`
	Comision         float64      `json:"comision"`
	LimitMovimientos int32        `json:"limitMovimientos"`
	CreatedAt        OptionalTime `json:"createdAt"`
}

// ProductUpdateDto carries the replacement values of the mutable fields.
type ProductUpdateDto struct {
	Name             string  `json:"name"`
	ProductType      string  `json:"productType"`
	Comision         float64 `json:"comision"`
	LimitMovimientos int32   `json:"limitMovimientos"`
}

// FindAll streams the stored products as ProductDTOs.
// Iteration stops at the first store error, which is yielded wrapped.
func (s *Service) FindAll(ctx context.Context) iter.Seq2[ProductDto, error] {
	return func(yield func(ProductDto, error) bool) {
		for product, err := range s.repository.FindAll(ctx) {
			if err != nil {
				yield(ProductDto{}, fmt.Errorf("failed to fetch products: %w", err))
				return
			}
			if !yield(toDto(product), nil) {
				return
			}
		}
	}
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, found, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	if !found {
		return nil, perrors.ErrProductNotFound
	}
	dto := toDto(product)
	return &dto, nil
}

// Validate runs the create rules and returns the violations in field order.
func (s *Service) Validate(product ProductCreateDto) []FieldError {
	return s.validator.Struct(product)
}

// Create validates the product, fills in createdAt when the client left it out and stores it.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	if fieldErrors := s.Validate(product); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	createdAt := product.CreatedAt.Time
	if !product.CreatedAt.Valid {
		createdAt = s.now()
	}

	created, err := s.repository.Insert(ctx, store.BankProduct{
		Name:             product.Name,
		ProductType:      product.ProductType,
		Comision:         product.Comision,
		LimitMovimientos: product.LimitMovimientos,
		CreatedAt:        createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.productsCounter.Add(ctx, 1)

	dto := toDto(created)
	return &dto, nil
}

// Update looks the product up and overwrites its mutable fields.
// Nothing is written when the product does not exist.
func (s *Service) Update(ctx context.Context, id string, product ProductUpdateDto) (*ProductDto, error) {
	existing, found, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	if !found {
		return nil, perrors.ErrProductNotFound
	}

	existing.Name = product.Name
	existing.ProductType = product.ProductType
	existing.Comision = product.Comision
	existing.LimitMovimientos = product.LimitMovimientos

	updated, err := s.repository.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	dto := toDto(updated)
	return &dto, nil
}

// DeleteByID looks the product up and removes it.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	existing, found, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	if !found {
		return perrors.ErrProductNotFound
	}
	if err := s.repository.Delete(ctx, existing); err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	return nil
}

// toDto converts a store.BankProduct to a ProductDto.
func toDto(product store.BankProduct) ProductDto {
	return ProductDto{
		ID:               product.ID,
		Name:             product.Name,
		ProductType:      product.ProductType,
		Comision:         product.Comision,
		LimitMovimientos: product.LimitMovimientos,
		CreatedAt:        product.CreatedAt,
	}
}
