package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/shopzen/storefront/internal/domain"
	mw "github.com/shopzen/storefront/internal/http/middleware"
)

// Routes wires the HTTP surface. Protected groups layer the guard first and
// role checks second.
func (h *Handlers) Routes(guard *mw.AccessGuard) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/google", h.GoogleLogin)
	r.Post("/auth/google/complete", h.GoogleComplete)
	r.Post("/auth/logout", h.Logout)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(guard.Authenticate)

		r.Get("/auth/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(domain.RoleCustomer))
			r.Get("/cart", h.GetCart)
			r.Post("/cart", h.PutCartItem)
			r.Delete("/cart/{productID}", h.RemoveCartItem)
			r.Post("/checkout", h.Checkout)
			r.Get("/orders", h.ListOrders)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(domain.RoleAdmin))
			r.Get("/users", h.ListUsers)
			r.Patch("/users/{id}/role", h.UpdateUserRole)
			r.Post("/products", h.CreateProduct)
			r.Patch("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
		})
	})

	return r
}
