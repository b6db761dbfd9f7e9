package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/shop/infra/httpx/middlewares"
)

// ListProducts serves one page; a missing or malformed ?page means page 1.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	items, meta, err := h.svc.Catalog.ListProducts(r.Context(), page)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductPageResponse{
		Products: mapProducts(items),
		Pagination: PaginationResponse{
			CurrentPage:     meta.CurrentPage,
			TotalPages:      meta.TotalPages,
			TotalItems:      meta.TotalItems,
			HasNextPage:     meta.HasNextPage,
			HasPreviousPage: meta.HasPreviousPage,
		},
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), middlewares.UserID(r.Context()), req.input())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted"})
}
