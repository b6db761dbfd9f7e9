package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

const resetTokenTTL = time.Hour

type AuthService struct {
	users       ports.UserRepository
	hasher      ports.PasswordHasher
	tokens      ports.TokenIssuer
	admins      []string
	frontendURL string
	now         func() time.Time
}

// NewAuthService builds the service. Users signing up with an email listed
// in admins get the admin role.
func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, admins []string, frontendURL string) *AuthService {
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		admins:      admins,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return entity.User{}, invalid("email and password required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return entity.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := entity.RoleUser
	if slices.Contains(s.admins, email) {
		role = entity.RoleAdmin
	}

	u, err := s.users.Create(ctx, entity.User{Email: email, PasswordHash: hash, Role: role})
	if errors.Is(err, ports.ErrDuplicate) {
		return entity.User{}, fmt.Errorf("%w: user already exists", ErrConflict)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues a bearer token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", entity.User{}, invalid("email and password required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return "", entity.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return "", entity.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return "", entity.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", entity.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Authenticate verifies a bearer token.
func (s *AuthService) Authenticate(token string) (ports.Claims, error) {
	if token == "" {
		return ports.Claims{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return ports.Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// RequestPasswordReset stores a one-hour reset token on the user and returns
// the frontend link that carries it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", invalid("email required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reset token: %w", err)
	}
	u.ResetToken = hex.EncodeToString(buf)
	u.ResetTokenExpiry = s.now().Add(resetTokenTTL)
	if err := s.users.Update(ctx, u); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}
	return s.frontendURL + "/reset/" + u.ResetToken, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return invalid("token and password required")
	}

	u, err := s.users.GetByResetToken(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return invalid("invalid or expired token")
	}
	if err != nil {
		return fmt.Errorf("find reset token: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.ResetToken = ""
	u.ResetTokenExpiry = time.Time{}
	return s.users.Update(ctx, u)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (entity.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return entity.User{}, fmt.Errorf("user: %w", err)
	}
	return u, nil
}
