package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
)

func TestSignup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.auth.Signup(ctx, "  Ann@Shop.io ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ann@shop.io", u.Email)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.Equal(t, "hashed:secret", u.PasswordHash)

	_, err = f.auth.Signup(ctx, "ann@shop.io", "other")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.Signup(ctx, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	admin, err := f.auth.Signup(ctx, "boss@shop.io", "x")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ann@shop.io")

	token, got, err := f.auth.Login(ctx, "ANN@shop.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := f.auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = f.auth.Login(ctx, "ann@shop.io", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "nobody@shop.io", "secret")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.auth.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ann@shop.io")

	link, err := f.auth.RequestPasswordReset(ctx, "ann@shop.io")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://front.test/reset/"), link)
	token := strings.TrimPrefix(link, "http://front.test/reset/")
	assert.Len(t, token, 64)

	require.NoError(t, f.auth.ResetPassword(ctx, token, "fresh"))
	_, _, err = f.auth.Login(ctx, "ann@shop.io", "fresh")
	require.NoError(t, err)

	// single use
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "again"), ErrInvalidInput)

	_, err = f.auth.RequestPasswordReset(ctx, "nobody@shop.io")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordResetExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "ann@shop.io")
	f.auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	link, err := f.auth.RequestPasswordReset(ctx, "ann@shop.io")
	require.NoError(t, err)
	token := link[strings.LastIndex(link, "/")+1:]

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "fresh"), ErrInvalidInput)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ann@shop.io")

	got, err := f.auth.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@shop.io", got.Email)

	_, err = f.auth.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
