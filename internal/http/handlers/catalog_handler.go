package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/internal/http/response"
)

// ListProducts is public
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	products, err := h.productRepo.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to list products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	response.WriteJSON(w, http.StatusOK, products)
}

// GetProduct is public
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	product, err := h.productRepo.FindByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to load product")
		return
	}
	if product == nil {
		response.NotFound(w, "Product not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct is admin only
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	product, err := h.productRepo.Create(r.Context(), &req)
	if err != nil {
		response.InternalError(w, "Failed to create product")
		return
	}

	response.WriteJSON(w, http.StatusCreated, product)
}

// UpdateProduct is admin only
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	var req domain.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	product, err := h.productRepo.Update(r.Context(), id, &req)
	if err != nil {
		response.InternalError(w, "Failed to update product")
		return
	}
	if product == nil {
		response.NotFound(w, "Product not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct is admin only
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := h.productRepo.Delete(r.Context(), id); err != nil {
		response.NotFound(w, "Product not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
