package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"riceMarketplace/models"
)

type FarmerRepository struct {
	db *sql.DB
}

func NewFarmerRepository(db *sql.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

const farmerColumns = `id, username, password, role, qr_code`

// Create inserts a new account. A taken username yields models.ErrDuplicate.
func (r *FarmerRepository) Create(ctx context.Context, f *models.Farmer) (*models.Farmer, error) {
	if f == nil {
		return nil, errors.New("farmer is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO farmer (username, password, role, qr_code) VALUES (?, ?, ?, ?)`,
		f.Username, f.PasswordHash, string(f.Role), nullString(f.QRCode))
	if err != nil {
		return nil, mapConstraintErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *f
	out.ID = id
	return &out, nil
}

func (r *FarmerRepository) GetByID(ctx context.Context, id int64) (*models.Farmer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanFarmer(r.db.QueryRowContext(ctx, `SELECT `+farmerColumns+` FROM farmer WHERE id = ?`, id))
}

func (r *FarmerRepository) GetByUsername(ctx context.Context, username string) (*models.Farmer, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanFarmer(r.db.QueryRowContext(ctx, `SELECT `+farmerColumns+` FROM farmer WHERE username = ?`, username))
}

// UpdateQRCode stores the payment QR filename for the account.
func (r *FarmerRepository) UpdateQRCode(ctx context.Context, id int64, qrCode string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE farmer SET qr_code = ? WHERE id = ?`, nullString(qrCode), id)
	return err
}

// scanFarmer returns (nil, nil) when the row does not exist.
func scanFarmer(row *sql.Row) (*models.Farmer, error) {
	var f models.Farmer
	var role string
	var qr sql.NullString
	if err := row.Scan(&f.ID, &f.Username, &f.PasswordHash, &role, &qr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	f.Role = models.Role(role)
	f.QRCode = qr.String
	return &f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
