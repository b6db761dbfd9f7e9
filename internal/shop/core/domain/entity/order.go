package entity

import "time"

// OrderLine snapshots a product at the time the order was placed.
type OrderLine struct {
	Product  Product
	Quantity int
}

type Order struct {
	ID        string
	UserID    string
	Lines     []OrderLine
	Total     float64
	CreatedAt time.Time
}

// LineItem is one entry of a hosted checkout session.
type LineItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

type CheckoutRequest struct {
	Currency   string
	Items      []LineItem
	SuccessURL string
	CancelURL  string
	Reference  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Dashboard struct {
	UsersCount    int64
	ProductsCount int64
	CartCount     int64
	Revenue       float64
}
