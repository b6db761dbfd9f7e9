package httpx

import (
	"net/http"

	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, items []entity.CartItem, err error) {
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(items))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Carts.GetCart(r.Context(), middlewares.UserID(r.Context()))
	h.respondCart(w, r, items, err)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := h.svc.Carts.AddItem(r.Context(), middlewares.UserID(r.Context()), req.ProductID.String(), req.Quantity)
	h.respondCart(w, r, items, err)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := h.svc.Carts.RemoveItem(r.Context(), middlewares.UserID(r.Context()), req.ProductID.String())
	h.respondCart(w, r, items, err)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := h.svc.Carts.UpdateItem(r.Context(), middlewares.UserID(r.Context()), req.ProductID.String(), req.Quantity)
	h.respondCart(w, r, items, err)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Carts.Clear(r.Context(), middlewares.UserID(r.Context()))
	h.respondCart(w, r, items, err)
}
