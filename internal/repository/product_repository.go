package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/smart-farming/internal/model"
)

// ProductRepo encapsulates queries on the products table.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = "id, seller_id, name, category, unit, price, stock, created_at, updated_at"

func scanProduct(s rowScanner) (*model.Product, error) {
	var p model.Product
	if err := s.Scan(&p.ID, &p.SellerID, &p.Name, &p.Category, &p.Unit, &p.Price, &p.Stock,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product and fills in the stored row.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (seller_id, name, category, unit, price, stock) VALUES (?,?,?,?,?,?)",
		p.SellerID, p.Name, p.Category, p.Unit, p.Price, p.Stock)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// GetByID returns ErrNotFound if the product does not exist.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns all products ordered by id, optionally restricted to one
// category.
func (r *ProductRepo) List(ctx context.Context, category string) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products"
	var args []any
	if category != "" {
		q += " WHERE category = ?"
		args = append(args, category)
	}
	q += " ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes name, category, unit, price and stock for a product
// belonging to p.SellerID. ErrNotFound when nothing matched.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, category = ?, unit = ?, price = ?, stock = ?, updated_at = CURRENT_TIMESTAMP(3)
		 WHERE id = ? AND seller_id = ?`,
		p.Name, p.Category, p.Unit, p.Price, p.Stock, p.ID, p.SellerID)
	if err != nil {
		return err
	}
	// 0 rows also happens when nothing changed; only a missing row is a miss
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ? AND seller_id = ?", p.ID, p.SellerID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
	}
	stored, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// DeleteByIDAndSeller removes a product. ErrNotFound when nothing matched.
func (r *ProductRepo) DeleteByIDAndSeller(ctx context.Context, id, sellerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ? AND seller_id = ?", id, sellerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
