package repository

import (
	"context"

	"riceMarketplace/models"
)

// FarmerRepositoryI defines operations on Farmer accounts.
type FarmerRepositoryI interface {
	Create(ctx context.Context, f *models.Farmer) (*models.Farmer, error)
	GetByID(ctx context.Context, id int64) (*models.Farmer, error)
	GetByUsername(ctx context.Context, username string) (*models.Farmer, error)
	UpdateQRCode(ctx context.Context, id int64, qrCode string) error
}

// ProductRepositoryI defines operations on RiceProduct listings.
type ProductRepositoryI interface {
	Create(ctx context.Context, p *models.RiceProduct) (*models.RiceProduct, error)
	GetByID(ctx context.Context, id int64) (*models.RiceProduct, error)
	List(ctx context.Context) ([]models.RiceProduct, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]models.RiceProduct, error)
}

var (
	_ FarmerRepositoryI  = (*FarmerRepository)(nil)
	_ ProductRepositoryI = (*ProductRepository)(nil)
)
