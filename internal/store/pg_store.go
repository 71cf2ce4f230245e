package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectColumns = `id::text, name, product_type, comision, limit_movimientos, created_at`

	findAllSQL  = `SELECT ` + selectColumns + ` FROM bank_products ORDER BY created_at, id`
	findByIDSQL = `SELECT ` + selectColumns + ` FROM bank_products WHERE id = $1`
	insertSQL   = `INSERT INTO bank_products (name, product_type, comision, limit_movimientos, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + selectColumns
	updateSQL = `UPDATE bank_products
SET name = $2, product_type = $3, comision = $4, limit_movimientos = $5, created_at = $6
WHERE id = $1
RETURNING ` + selectColumns
	deleteSQL = `DELETE FROM bank_products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
// IDs are UUIDs generated by the database.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

func scanProduct(row pgx.Row) (BankProduct, error) {
	var p BankProduct
	err := row.Scan(&p.ID, &p.Name, &p.ProductType, &p.Comision, &p.LimitMovimientos, &p.CreatedAt)
	return p, err
}

// FindAll streams rows as they arrive; rows are released when iteration ends.
func (p *PgStore) FindAll(ctx context.Context) iter.Seq2[BankProduct, error] {
	return func(yield func(BankProduct, error) bool) {
		rows, err := p.db.Query(ctx, findAllSQL)
		if err != nil {
			yield(BankProduct{}, fmt.Errorf("failed to find all products: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			product, err := scanProduct(rows)
			if err != nil {
				yield(BankProduct{}, fmt.Errorf("failed to scan product: %w", err))
				return
			}
			if !yield(product, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(BankProduct{}, fmt.Errorf("failed to iterate products: %w", err))
		}
	}
}

// FindByID retrieves a product by its unique identifier.
func (p *PgStore) FindByID(ctx context.Context, id string) (BankProduct, bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return BankProduct{}, false, nil
	}
	product, err := scanProduct(p.db.QueryRow(ctx, findByIDSQL, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankProduct{}, false, nil
		}
		return BankProduct{}, false, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, true, nil
}

// Insert adds a new product; the database assigns the ID.
func (p *PgStore) Insert(ctx context.Context, product BankProduct) (BankProduct, error) {
	created, err := scanProduct(p.db.QueryRow(ctx, insertSQL,
		product.Name,
		product.ProductType,
		product.Comision,
		product.LimitMovimientos,
		// timestamptz rounds to the nearest microsecond; truncate so a stored time never moves forward
		product.CreatedAt.Truncate(time.Microsecond),
	))
	if err != nil {
		return BankProduct{}, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update modifies an existing product's details.
func (p *PgStore) Update(ctx context.Context, product BankProduct) (BankProduct, error) {
	uid, err := uuid.Parse(product.ID)
	if err != nil {
		return BankProduct{}, perrors.ErrProductNotFound
	}
	updated, err := scanProduct(p.db.QueryRow(ctx, updateSQL,
		uid,
		product.Name,
		product.ProductType,
		product.Comision,
		product.LimitMovimientos,
		product.CreatedAt.Truncate(time.Microsecond),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankProduct{}, perrors.ErrProductNotFound
		}
		return BankProduct{}, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product by its unique identifier.
func (p *PgStore) Delete(ctx context.Context, product BankProduct) error {
	uid, err := uuid.Parse(product.ID)
	if err != nil {
		return perrors.ErrProductNotFound
	}
	tag, err := p.db.Exec(ctx, deleteSQL, uid)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// Ping checks the connection to the database.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
