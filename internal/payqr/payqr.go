// Package payqr renders the payment QR code shown to buyers on checkout.
package payqr

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// Size is the PNG edge length in pixels.
const Size = 256

// Generator writes QR PNGs into Dir.
type Generator struct {
	Dir string
}

// NewGenerator returns a Generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir}
}

// Payload is the content encoded for a farmer's payment identity.
func Payload(farmerID int64) string {
	return fmt.Sprintf("payment_info_for_farmer_%d", farmerID)
}

// Filename is the stored QR reference for a farmer.
func Filename(farmerID int64) string {
	return fmt.Sprintf("farmer_%d_qr.png", farmerID)
}

// Generate writes the farmer's QR code and returns its filename.
func (g *Generator) Generate(farmerID int64) (string, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	name := Filename(farmerID)
	if err := qrcode.WriteFile(Payload(farmerID), qrcode.Medium, Size, filepath.Join(g.Dir, name)); err != nil {
		return "", fmt.Errorf("encode qr for farmer %d: %w", farmerID, err)
	}
	return name, nil
}
