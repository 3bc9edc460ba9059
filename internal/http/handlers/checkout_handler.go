package handlers

import (
	"net/http"

	mw "github.com/shopzen/storefront/internal/http/middleware"
	"github.com/shopzen/storefront/internal/http/response"
)

// Checkout converts the caller's cart into a paid order with a simulated
// payment.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	order, err := h.checkout.Checkout(r.Context(), identity.UserID)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, order)
}

// ListOrders returns the caller's order history
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	limit, offset := parsePagination(r)

	orders, err := h.checkout.ListOrders(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to list orders")
		return
	}

	response.WriteJSON(w, http.StatusOK, orders)
}
