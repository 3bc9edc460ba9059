package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopzen/storefront/internal/repository"
	"github.com/shopzen/storefront/internal/service"
	"github.com/shopzen/storefront/pkg/auth"
	"github.com/shopzen/storefront/pkg/config"
)

type Handlers struct {
	authService service.AuthService
	linking     service.LinkingService
	checkout    service.CheckoutService
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	tokens      *auth.TokenService
	cfg         *config.Config
}

func New(
	authService service.AuthService,
	linking service.LinkingService,
	checkout service.CheckoutService,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	tokens *auth.TokenService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService: authService,
		linking:     linking,
		checkout:    checkout,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		tokens:      tokens,
		cfg:         cfg,
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
