package models

// RiceProduct is a listing owned by exactly one Farmer via FarmerID.
// It maps to the `rice_product` table.
type RiceProduct struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	// Image is the sanitized upload filename; empty when the row stores NULL.
	Image    string `db:"image" json:"image,omitempty"`
	FarmerID int64  `db:"farmer_id" json:"farmer_id"`
}
