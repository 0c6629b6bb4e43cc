package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riceMarketplace/internal/testutil"
	"riceMarketplace/internal/upload"
	"riceMarketplace/models"
	"riceMarketplace/repository"
)

type fixture struct {
	svc       *Service
	farmers   *repository.FarmerRepository
	farmer    *models.Farmer
	buyer     *models.Farmer
	uploadDir string
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	farmers := repository.NewFarmerRepository(d)
	dir := t.TempDir()
	svc := NewService(repository.NewProductRepository(d), farmers, upload.NewStore(dir))

	ctx := context.Background()
	f, err := farmers.Create(ctx, &models.Farmer{Username: "farmer", PasswordHash: "h", Role: models.RoleFarmer, QRCode: "farmer_1_qr.png"})
	if err != nil {
		t.Fatalf("seed farmer: %v", err)
	}
	b, err := farmers.Create(ctx, &models.Farmer{Username: "buyer", PasswordHash: "h", Role: models.RoleBuyer})
	if err != nil {
		t.Fatalf("seed buyer: %v", err)
	}
	return &fixture{svc: svc, farmers: farmers, farmer: f, buyer: b, uploadDir: dir}
}

func TestCreate_WithoutImage(t *testing.T) {
	fx := newFixture(t, "catcreate")
	ctx := context.Background()

	p, err := fx.svc.Create(ctx, fx.farmer, ProductInput{Name: "Basmati", Price: "120.5", Quantity: "50"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Image != "" || p.FarmerID != fx.farmer.ID || p.Price != 120.5 || p.Quantity != 50 {
		t.Fatalf("unexpected product: %+v", p)
	}
	all, err := fx.svc.ListAll(ctx)
	if err != nil || len(all) != 1 || all[0].Name != "Basmati" {
		t.Fatalf("ListAll: %v %+v", err, all)
	}
}

func TestCreate_WithImage(t *testing.T) {
	fx := newFixture(t, "catimage")
	p, err := fx.svc.Create(context.Background(), fx.farmer,
		ProductInput{Name: "Jasmine", Description: "fragrant", Price: "80", Quantity: "3"},
		&Image{Filename: "../my rice.png", Body: strings.NewReader("png-bytes")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Image != "my_rice.png" {
		t.Fatalf("unexpected image %q", p.Image)
	}
	if b, err := os.ReadFile(filepath.Join(fx.uploadDir, p.Image)); err != nil || string(b) != "png-bytes" {
		t.Fatalf("image not written: %v %q", err, b)
	}
}

func TestCreate_RequiresFarmer(t *testing.T) {
	fx := newFixture(t, "catforbidden")
	ctx := context.Background()
	if _, err := fx.svc.Create(ctx, fx.buyer, ProductInput{Name: "x", Price: "1", Quantity: "1"}, nil); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := fx.svc.Create(ctx, nil, ProductInput{Name: "x", Price: "1", Quantity: "1"}, nil); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}
	all, _ := fx.svc.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("no product should be created, got %d", len(all))
	}
}

func TestCreate_Validation(t *testing.T) {
	fx := newFixture(t, "catvalid")
	tests := []struct {
		name  string
		in    ProductInput
		field string
	}{
		{"missing name", ProductInput{Price: "1", Quantity: "1"}, "name"},
		{"non numeric price", ProductInput{Name: "x", Price: "cheap", Quantity: "1"}, "price"},
		{"negative price", ProductInput{Name: "x", Price: "-1", Quantity: "1"}, "price"},
		{"fractional quantity", ProductInput{Name: "x", Price: "1", Quantity: "1.5"}, "quantity"},
		{"missing quantity", ProductInput{Name: "x", Price: "1"}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), fx.farmer, tt.in, nil)
			var ve *models.ValidationError
			if !errors.As(err, &ve) || ve.Fields[tt.field] == "" {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestGetByIDAndListByOwner(t *testing.T) {
	fx := newFixture(t, "catget")
	ctx := context.Background()
	p, err := fx.svc.Create(ctx, fx.farmer, ProductInput{Name: "Sticky", Price: "40", Quantity: "7"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := fx.svc.GetByID(ctx, p.ID)
	if err != nil || got.Name != "Sticky" {
		t.Fatalf("GetByID: %v %+v", err, got)
	}
	if _, err := fx.svc.GetByID(ctx, 999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mine, err := fx.svc.ListByOwner(ctx, fx.farmer)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByOwner: %v %+v", err, mine)
	}
	if _, err := fx.svc.ListByOwner(ctx, fx.buyer); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for buyer, got %v", err)
	}
}

func TestCheckout(t *testing.T) {
	fx := newFixture(t, "catcheckout")
	ctx := context.Background()
	p, err := fx.svc.Create(ctx, fx.farmer, ProductInput{Name: "Red", Price: "55.25", Quantity: "2"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := fx.svc.Checkout(ctx, fx.farmer, p.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for farmer, got %v", err)
	}
	co, err := fx.svc.Checkout(ctx, fx.buyer, p.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if co.Product.ID != p.ID || co.Farmer.ID != fx.farmer.ID || co.QRCode != "farmer_1_qr.png" {
		t.Fatalf("unexpected checkout: %+v", co)
	}
	if _, err := fx.svc.Checkout(ctx, fx.buyer, 12345); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_FailedInsertRemovesImage(t *testing.T) {
	fx := newFixture(t, "catorphan")
	// No such farmer row, so the insert fails on the foreign key.
	ghost := &models.Farmer{ID: 999, Username: "ghost", Role: models.RoleFarmer}
	_, err := fx.svc.Create(context.Background(), ghost,
		ProductInput{Name: "Jasmine", Price: "80", Quantity: "3"},
		&Image{Filename: "orphan.png", Body: strings.NewReader("png-bytes")})
	if err == nil {
		t.Fatalf("expected create to fail for a missing farmer")
	}
	if _, err := os.Stat(filepath.Join(fx.uploadDir, "orphan.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected image to be removed, stat err=%v", err)
	}
}
