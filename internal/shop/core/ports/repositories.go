package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

// Repository implementations wrap these so callers can match with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]entity.Product, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id string) (entity.Product, error)
	GetMany(ctx context.Context, ids []string) ([]entity.Product, error)
	Create(ctx context.Context, p entity.Product) (entity.Product, error)
	Update(ctx context.Context, p entity.Product) (entity.Product, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u entity.User) (entity.User, error)
	GetByID(ctx context.Context, id string) (entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	// GetByResetToken only matches tokens whose expiry is after now.
	GetByResetToken(ctx context.Context, token string) (entity.User, error)
	Update(ctx context.Context, u entity.User) error
	SaveCart(ctx context.Context, userID string, lines []entity.CartLine) error
	Count(ctx context.Context) (int64, error)
	CountWithCart(ctx context.Context) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o entity.Order) (entity.Order, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	Revenue(ctx context.Context) (float64, error)
}
