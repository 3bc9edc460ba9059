package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopzen/storefront/internal/domain"
	mw "github.com/shopzen/storefront/internal/http/middleware"
	"github.com/shopzen/storefront/internal/http/response"
)

// GetCart returns the caller's cart
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	items, err := h.cartRepo.Get(r.Context(), identity.UserID)
	if err != nil {
		response.InternalError(w, "Failed to read cart")
		return
	}
	if items == nil {
		items = []domain.CartItem{}
	}

	response.WriteJSON(w, http.StatusOK, items)
}

// PutCartItem adds or updates a cart line
func (h *Handlers) PutCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if item.ProductID <= 0 || item.Quantity <= 0 {
		response.BadRequest(w, "product_id and a positive quantity are required")
		return
	}

	product, err := h.productRepo.FindByID(r.Context(), item.ProductID)
	if err != nil {
		response.InternalError(w, "Failed to load product")
		return
	}
	if product == nil {
		response.NotFound(w, "Product not found")
		return
	}

	if err := h.cartRepo.SetItem(r.Context(), identity.UserID, item.ProductID, item.Quantity); err != nil {
		response.InternalError(w, "Failed to update cart")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RemoveCartItem deletes a cart line
func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := h.cartRepo.RemoveItem(r.Context(), identity.UserID, productID); err != nil {
		response.InternalError(w, "Failed to update cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
