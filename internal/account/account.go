// Package account registers marketplace accounts and authenticates them.
package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/validation"
	"riceMarketplace/models"
	"riceMarketplace/repository"
)

// QRGenerator renders a payment QR for a farmer and returns the stored filename.
type QRGenerator interface {
	Generate(farmerID int64) (string, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `form:"username" validate:"required,max=150"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"role" validate:"required,oneof=farmer buyer"`
}

// LoginInput is the login form.
type LoginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Service implements registration, login and session restoration.
type Service struct {
	Farmers repository.FarmerRepositoryI
	// QR is optional; when nil farmers register without a payment QR.
	QR QRGenerator
}

// NewService creates a Service.
func NewService(farmers repository.FarmerRepositoryI, qr QRGenerator) *Service {
	return &Service{Farmers: farmers, QR: qr}
}

// Register creates an account with a hashed password. A taken username
// yields models.ErrDuplicate; the store's unique constraint decides.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Farmer, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, models.NewValidationError("password", "Field cannot be longer than 72 bytes.")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	f, err := s.Farmers.Create(ctx, &models.Farmer{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         models.Role(in.Role),
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.ErrDuplicate
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	if f.IsFarmer() && s.QR != nil {
		s.attachQR(ctx, f)
	}
	return f, nil
}

// attachQR generates and stores the payment QR. Failures leave the account without one.
func (s *Service) attachQR(ctx context.Context, f *models.Farmer) {
	name, err := s.QR.Generate(f.ID)
	if err != nil {
		log.Printf("[account] qr for farmer %d: %v", f.ID, err)
		return
	}
	if err := s.Farmers.UpdateQRCode(ctx, f.ID, name); err != nil {
		log.Printf("[account] store qr for farmer %d: %v", f.ID, err)
		return
	}
	f.QRCode = name
}

// Login verifies credentials. Unknown usernames and wrong passwords both
// yield models.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.Farmer, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	f, err := s.Farmers.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if f == nil || !auth.CheckPassword(f.PasswordHash, in.Password) {
		return nil, models.ErrInvalidCredentials
	}
	return f, nil
}

// Restore reloads the account bound to a session.
func (s *Service) Restore(ctx context.Context, accountID int64) (*models.Farmer, error) {
	f, err := s.Farmers.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if f == nil {
		return nil, models.ErrNotFound
	}
	return f, nil
}
