package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"riceMarketplace/models"
)

// ProductRepository stores rice listings. Rows are insert-only.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, quantity, image, farmer_id`

// Create inserts a listing and reads it back. An empty Image is stored as NULL.
func (r *ProductRepository) Create(ctx context.Context, p *models.RiceProduct) (*models.RiceProduct, error) {
	if p == nil {
		return nil, errors.New("product is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO rice_product (name, description, price, quantity, image, farmer_id) VALUES (?,?,?,?,?,?)`,
		p.Name, p.Description, p.Price, p.Quantity, nullString(p.Image), p.FarmerID)
	if err != nil {
		return nil, mapConstraintErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p2, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p2 == nil {
		return nil, fmt.Errorf("created product not found: id=%d", id)
	}
	return p2, nil
}

// GetByID fetches a listing, returning (nil, nil) when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.RiceProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM rice_product WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every listing ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]models.RiceProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM rice_product ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductRows(rows)
}

// ListByFarmer returns the listings owned by farmerID ordered by id.
func (r *ProductRepository) ListByFarmer(ctx context.Context, farmerID int64) ([]models.RiceProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM rice_product WHERE farmer_id = ? ORDER BY id`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProductRows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*models.RiceProduct, error) {
	var p models.RiceProduct
	var desc, image sql.NullString
	if err := s.Scan(&p.ID, &p.Name, &desc, &p.Price, &p.Quantity, &image, &p.FarmerID); err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.Image = image.String
	return &p, nil
}

func scanProductRows(rows *sql.Rows) ([]models.RiceProduct, error) {
	out := []models.RiceProduct{}
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
