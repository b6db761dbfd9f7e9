package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

type staticAuth map[string]ports.Claims

func (s staticAuth) Authenticate(token string) (ports.Claims, error) {
	c, ok := s[token]
	if !ok {
		return ports.Claims{}, errors.New("bad token")
	}
	return c, nil
}

var auth = staticAuth{
	"user-token":  {UserID: "u1", Role: entity.RoleUser},
	"admin-token": {UserID: "a1", Role: entity.RoleAdmin},
}

func whoami(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserID(r.Context()) + "/" + string(Role(r.Context()))))
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(auth)(http.HandlerFunc(whoami))

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }, 200, "u1/user"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "admin-token"}) }, 200, "a1/admin"},
		{"missing", func(*http.Request) {}, 401, ""},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic user-token") }, 401, ""},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, 401, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Authenticate(auth)(RequireRole(entity.RoleAdmin)(http.HandlerFunc(whoami)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden","message":"insufficient role"}`, rec.Body.String())

	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientKeyIsRemoteHost(t *testing.T) {
	var key string
	h := Authenticate(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = clientKey(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.7:4242"
	req.Header.Set("Authorization", "Bearer user-token")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.7", key)

	bare := httptest.NewRequest(http.MethodPost, "/", nil)
	bare.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientKey(bare))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	start := time.Now()
	rl.now = func() time.Time { return start }
	rl.getLimiter("a")

	rl.now = func() time.Time { return start.Add(time.Hour) }
	rl.getLimiter("b")
	rl.Cleanup(time.Minute)

	require.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "b")
}

func TestAttachTracingMetadata(t *testing.T) {
	var got string
	h := middleware.RequestID(AttachTracingMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = interceptors.GetIDFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-7", got)
	assert.Equal(t, "req-7", rec.Header().Get(middleware.RequestIDHeader))
}
