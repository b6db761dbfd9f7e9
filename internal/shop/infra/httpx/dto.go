package httpx

import (
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/ident"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type RatingDTO struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

type ProductRequest struct {
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	ImageURL    string     `json:"imageUrl"`
	Category    string     `json:"category"`
	Rating      *RatingDTO `json:"rating"`
	Gallery     []string   `json:"gallery"`
}

type ProductResponse struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category"`
	Rating      RatingDTO `json:"rating"`
	Gallery     []string  `json:"gallery"`
	UserID      string    `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PaginationResponse struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

type ProductPageResponse struct {
	Products   []ProductResponse  `json:"products"`
	Pagination PaginationResponse `json:"pagination"`
}

// CartRequest accepts numeric or string product ids.
type CartRequest struct {
	ProductID ident.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
}

type CartLineResponse struct {
	Product  ProductResponse `json:"productId"`
	Quantity int             `json:"quantity"`
}

type CartResponse struct {
	Cart []CartLineResponse `json:"cart"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type OrderLineResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
}

type OrderResponse struct {
	ID        string              `json:"_id"`
	UserID    string              `json:"userId"`
	Products  []OrderLineResponse `json:"products"`
	Total     float64             `json:"total"`
	CreatedAt time.Time           `json:"createdAt"`
}

type DashboardResponse struct {
	UsersCount    int64   `json:"usersCount"`
	ProductsCount int64   `json:"productsCount"`
	CartCount     int64   `json:"cartCount"`
	Revenue       float64 `json:"revenue"`
}

func (p ProductRequest) input() entity.ProductInput {
	in := entity.ProductInput{
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Gallery:     p.Gallery,
	}
	if p.Rating != nil {
		in.Rating = &entity.Rating{Rate: p.Rating.Rate, Count: p.Rating.Count}
	}
	return in
}

func mapUser(u entity.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

func mapProduct(p entity.Product) ProductResponse {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Image:       p.Image,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Rating:      RatingDTO{Rate: p.Rating.Rate, Count: p.Rating.Count},
		Gallery:     gallery,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func mapProducts(items []entity.Product) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i, p := range items {
		out[i] = mapProduct(p)
	}
	return out
}

func mapCart(items []entity.CartItem) CartResponse {
	out := CartResponse{Cart: make([]CartLineResponse, len(items))}
	for i, it := range items {
		out.Cart[i] = CartLineResponse{Product: mapProduct(it.Product), Quantity: it.Quantity}
	}
	return out
}

func mapOrder(o entity.Order) OrderResponse {
	out := OrderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Products:  make([]OrderLineResponse, len(o.Lines)),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
	for i, l := range o.Lines {
		out.Products[i] = OrderLineResponse{Product: mapProduct(l.Product), Quantity: l.Quantity}
	}
	return out
}
