package entity

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// CartLine is a cart entry embedded in the user document.
type CartLine struct {
	ProductID string
	Quantity  int
}

type User struct {
	ID               string
	Email            string
	PasswordHash     string
	Role             Role
	Cart             []CartLine
	ResetToken       string
	ResetTokenExpiry time.Time
	CreatedAt        time.Time
}

// CartItem is a cart line joined with its product.
type CartItem struct {
	Product  Product
	Quantity int
}
