package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// SaveProduct inserts or updates a product. A new ProductID is generated
// when empty and written back to the struct.
func (b *Backend) SaveProduct(p *types.Product) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if p == nil {
		return types.ErrInvalidData
	}

	if p.ProductID == "" {
		p.ProductID = newID()
	}
	_, err = db.Exec(`INSERT INTO products
        (product_id, company_id, code, name, category, canonical_unit, shelf_life_days, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(product_id) DO UPDATE SET
        company_id = excluded.company_id, code = excluded.code, name = excluded.name,
        category = excluded.category, canonical_unit = excluded.canonical_unit,
        shelf_life_days = excluded.shelf_life_days, updated_at = excluded.updated_at`,
		p.ProductID, p.CompanyID, p.Code, p.Name, p.Category, p.CanonicalUnit,
		p.ShelfLifeDays, p.CreatedAt.Format(timeFormat), p.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("persisting product %s: %w", p.Code, err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (b *Backend) GetProduct(id string) (*types.Product, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRow(`SELECT product_id, company_id, code, name, category,
        canonical_unit, shelf_life_days, created_at, updated_at
        FROM products WHERE product_id = ?`, id)
	p, err := hydrateProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns all products ordered by code.
func (b *Backend) ListProducts() ([]*types.Product, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT product_id, company_id, code, name, category,
        canonical_unit, shelf_life_days, created_at, updated_at
        FROM products ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var out []*types.Product
	for rows.Next() {
		p, err := hydrateProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateProduct scans a product row into a struct.
func hydrateProduct(row rowScanner) (*types.Product, error) {
	var p types.Product
	var createdAt, updatedAt string
	err := row.Scan(&p.ProductID, &p.CompanyID, &p.Code, &p.Name, &p.Category,
		&p.CanonicalUnit, &p.ShelfLifeDays, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
