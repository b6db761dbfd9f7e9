package entity

import "time"

const DefaultCategory = "general"

type Rating struct {
	Rate  float64
	Count int
}

type Product struct {
	ID          string
	Title       string
	Price       float64
	Description string
	Image       string
	ImageURL    string
	Category    string
	Rating      Rating
	Gallery     []string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Title       string
	Price       float64
	Description string
	Image       string
	ImageURL    string
	Category    string
	Rating      *Rating
	Gallery     []string
}

// Page describes one slice of a paginated listing.
type Page struct {
	CurrentPage     int
	TotalPages      int
	TotalItems      int64
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPage computes pagination metadata for a 1-based page.
func NewPage(page, perPage int, total int64) Page {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return Page{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		HasNextPage:     int64(perPage*page) < total,
		HasPreviousPage: page > 1,
	}
}
