// Package catalog lists, creates and fetches rice products and resolves the
// buy-now checkout view.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"riceMarketplace/internal/validation"
	"riceMarketplace/models"
	"riceMarketplace/repository"
)

// ImageStore persists an uploaded image and returns the stored filename.
// Remove undoes a Save whose product was never created.
type ImageStore interface {
	Save(name string, r io.Reader) (string, error)
	Remove(name string) error
}

// Image is an optional upload accompanying a new product.
type Image struct {
	Filename string
	Body     io.Reader
}

// ProductInput is the sell-rice form. Price and quantity arrive as text.
type ProductInput struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
	Price       string `form:"price" validate:"required,numeric"`
	Quantity    string `form:"quantity" validate:"required,number"`
}

// parse validates the form and converts price and quantity.
func (in ProductInput) parse() (price float64, qty int64, err error) {
	if err := validation.Struct(in); err != nil {
		return 0, 0, err
	}
	price, err = strconv.ParseFloat(in.Price, 64)
	if err != nil || price < 0 {
		return 0, 0, models.NewValidationError("price", "Must be a non-negative number.")
	}
	qty, err = strconv.ParseInt(in.Quantity, 10, 64)
	if err != nil || qty < 0 {
		return 0, 0, models.NewValidationError("quantity", "Must be a non-negative whole number.")
	}
	return price, qty, nil
}

// Checkout is what a buyer sees on the payment placeholder page.
type Checkout struct {
	Product models.RiceProduct
	Farmer  models.Farmer
	// QRCode is the farmer's payment QR filename; may be empty.
	QRCode string
}

// Service implements the product catalog.
type Service struct {
	Products repository.ProductRepositoryI
	Farmers  repository.FarmerRepositoryI
	Images   ImageStore
}

// NewService creates a Service.
func NewService(products repository.ProductRepositoryI, farmers repository.FarmerRepositoryI, images ImageStore) *Service {
	return &Service{Products: products, Farmers: farmers, Images: images}
}

// ListAll returns every product.
func (s *Service) ListAll(ctx context.Context) ([]models.RiceProduct, error) {
	ps, err := s.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ps, nil
}

// Create lists a new product owned by owner, who must be a farmer. The form
// is validated before the image is written.
func (s *Service) Create(ctx context.Context, owner *models.Farmer, in ProductInput, img *Image) (*models.RiceProduct, error) {
	if !owner.IsFarmer() {
		return nil, models.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	in.Quantity = strings.TrimSpace(in.Quantity)
	price, qty, err := in.parse()
	if err != nil {
		return nil, err
	}

	var image string
	if img != nil && img.Body != nil {
		if s.Images == nil {
			return nil, fmt.Errorf("image upload not configured")
		}
		image, err = s.Images.Save(img.Filename, img.Body)
		if err != nil {
			return nil, err
		}
	}

	p, err := s.Products.Create(ctx, &models.RiceProduct{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Quantity:    qty,
		Image:       image,
		FarmerID:    owner.ID,
	})
	if err != nil {
		if image != "" {
			if rerr := s.Images.Remove(image); rerr != nil {
				log.Printf("[catalog] drop orphaned image %s: %v", image, rerr)
			}
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// GetByID returns the product or models.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.RiceProduct, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if p == nil {
		return nil, models.ErrNotFound
	}
	return p, nil
}

// ListByOwner returns the caller's own products. Only farmers have any.
func (s *Service) ListByOwner(ctx context.Context, caller *models.Farmer) ([]models.RiceProduct, error) {
	if !caller.IsFarmer() {
		return nil, models.ErrForbidden
	}
	ps, err := s.Products.ListByFarmer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list products for farmer %d: %w", caller.ID, err)
	}
	return ps, nil
}

// Checkout resolves a buy-now request: the product and the farmer selling it.
func (s *Service) Checkout(ctx context.Context, caller *models.Farmer, productID int64) (*Checkout, error) {
	if !caller.IsBuyer() {
		return nil, models.ErrForbidden
	}
	p, err := s.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	f, err := s.Farmers.GetByID(ctx, p.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("get farmer %d: %w", p.FarmerID, err)
	}
	if f == nil {
		return nil, models.ErrNotFound
	}
	return &Checkout{Product: *p, Farmer: *f, QRCode: f.QRCode}, nil
}
