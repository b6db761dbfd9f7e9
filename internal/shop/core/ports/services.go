package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req entity.CheckoutRequest) (entity.CheckoutSession, error)
}

// Claims is what a verified bearer token says about its holder.
type Claims struct {
	UserID    string
	Role      entity.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(userID string, role entity.Role) (string, error)
	Verify(token string) (Claims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Cache is the read-through cache used by catalog listings.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	GenerateKey(operation, key string) string
}
