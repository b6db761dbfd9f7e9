package httpx

import (
	"net/http"
	"time"

	"github.com/jcmexdev/storefront/internal/shop/infra/adapters/security"
	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		User    UserResponse `json:"user"`
	}{"Signup successful", mapUser(u)})
}

// Login answers with the token and also sets it as an httpOnly cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decode(w, r, &req) {
		return
	}
	token, u, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(security.DefaultTokenTTL / time.Second),
	})
	writeJSON(w, http.StatusOK, struct {
		Message string       `json:"message"`
		Token   string       `json:"token"`
		User    UserResponse `json:"user"`
	}{"Login successful", token, mapUser(u)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !decode(w, r, &req) {
		return
	}
	link, err := h.svc.Auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		ResetURL string `json:"resetUrl"`
	}{"Password reset link generated", link})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Auth.Profile(r.Context(), middlewares.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		User UserResponse `json:"user"`
	}{mapUser(u)})
}
