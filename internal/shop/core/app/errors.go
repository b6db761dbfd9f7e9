// Package app holds the shop's use cases. Handlers call these services and
// map the sentinel errors below to transport status codes.
package app

import (
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = ports.ErrNotFound
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrEmptyCart    = errors.New("cart is empty")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
