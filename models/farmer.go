package models

// Role gates which marketplace actions an account may perform.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

// Farmer is the authenticated account. Despite the name it also holds buyers;
// the distinguishing field is Role. It maps to the `farmer` table.
type Farmer struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password" json:"-"`
	Role         Role   `db:"role" json:"role"`
	// QRCode is the payment QR image filename under the uploads dir; empty when none was generated.
	QRCode string `db:"qr_code" json:"qr_code,omitempty"`
}

// IsFarmer reports whether the account may sell rice.
func (f *Farmer) IsFarmer() bool { return f != nil && f.Role == RoleFarmer }

// IsBuyer reports whether the account may buy rice.
func (f *Farmer) IsBuyer() bool { return f != nil && f.Role == RoleBuyer }
