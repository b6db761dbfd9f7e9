// Package catalog holds the client-side product model and the derived
// product view (search, category filter, sort).
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
)

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a read-only client copy of a catalog product.
type Product struct {
	ID          ident.ID `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description,omitempty"`
	Rating      *Rating  `json:"rating,omitempty"`
	Gallery     []string `json:"gallery,omitempty"`
}

// Score is the rating used for ordering; a missing rating scores zero.
func (p Product) Score() float64 {
	if p.Rating == nil {
		return 0
	}
	return p.Rating.Rate
}

// wireProduct accepts both document-store payloads (_id, imageUrl) and legacy
// ones (numeric id, image).
type wireProduct struct {
	MongoID     ident.ID `json:"_id"`
	ID          ident.ID `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Rating      *Rating  `json:"rating"`
	Gallery     []string `json:"gallery"`
}

// UnmarshalJSON normalizes _id to id and imageUrl to image.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("catalog: decode product: %w", err)
	}
	id := w.MongoID
	if id.IsZero() {
		id = w.ID
	}
	image := w.Image
	if image == "" {
		image = w.ImageURL
	}
	*p = Product{
		ID:          id,
		Title:       w.Title,
		Price:       w.Price,
		Category:    w.Category,
		Image:       image,
		Description: w.Description,
		Rating:      w.Rating,
		Gallery:     w.Gallery,
	}
	return nil
}

// Draft is the input for creating or updating a product.
type Draft struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Rating      *Rating  `json:"rating,omitempty"`
	Gallery     []string `json:"gallery,omitempty"`
}

// Index returns the position of the product with the given id, or -1.
func Index(items []Product, id ident.ID) int {
	for i := range items {
		if items[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}
