package httpx

import (
	"net/http"

	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Orders.CreateCheckoutSession(r.Context(), middlewares.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{SessionID: sess.ID, URL: sess.URL})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.PlaceOrder(r.Context(), middlewares.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string        `json:"message"`
		Order   OrderResponse `json:"order"`
	}{"Order placed", mapOrder(o)})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListOrders(r.Context(), middlewares.UserID(r.Context()))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(o)
	}
	writeJSON(w, http.StatusOK, struct {
		Orders []OrderResponse `json:"orders"`
	}{out})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Admin.Dashboard(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		UsersCount:    d.UsersCount,
		ProductsCount: d.ProductsCount,
		CartCount:     d.CartCount,
		Revenue:       d.Revenue,
	})
}
