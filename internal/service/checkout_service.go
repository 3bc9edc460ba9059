package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/shopzen/storefront/internal/domain"
	"github.com/shopzen/storefront/internal/repository"
	"github.com/shopzen/storefront/pkg/config"
	"github.com/shopzen/storefront/pkg/events"
	"github.com/shopzen/storefront/pkg/logger"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error)
}

type checkoutService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	eventBus    events.Publisher
	stripe      *client.API
	cfg         config.StripeConfig
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	eventBus events.Publisher,
	cfg config.StripeConfig,
) CheckoutService {
	svc := &checkoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		eventBus:    eventBus,
		cfg:         cfg,
	}
	if cfg.SecretKey != "" {
		svc.stripe = &client.API{}
		svc.stripe.Init(cfg.SecretKey, nil)
	}
	return svc
}

func (s *checkoutService) Checkout(ctx context.Context, userID int64) (*domain.Order, error) {
	items, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	var (
		amount   int64
		currency = "usd"
	)
	for _, item := range items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		if product == nil {
			return nil, fmt.Errorf("product %d no longer exists", item.ProductID)
		}
		amount += product.PriceCents * int64(item.Quantity)
		currency = product.Currency
	}

	intentID, err := s.createPaymentIntent(ctx, userID, amount, currency)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Create(ctx, &domain.Order{
		UserID:          userID,
		Items:           items,
		AmountCents:     amount,
		Currency:        currency,
		Status:          domain.OrderPaid,
		PaymentIntentID: intentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		logger.WarnContext(ctx, "Failed to clear cart after checkout", "error", err, "user_id", userID)
	}

	s.announce(ctx, order)

	return order, nil
}

func (s *checkoutService) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// createPaymentIntent charges through Stripe in sandbox mode, or fabricates a
// simulated intent when no key is configured.
func (s *checkoutService) createPaymentIntent(ctx context.Context, userID, amount int64, currency string) (string, error) {
	if s.stripe == nil {
		return "sim_" + uuid.NewString(), nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Params: stripe.Params{
			Context: ctx,
			Metadata: map[string]string{
				"user_id": fmt.Sprintf("%d", userID),
			},
		},
	}
	if s.cfg.Environment == "sandbox" {
		params.Confirm = stripe.Bool(true)
		params.PaymentMethod = stripe.String("pm_card_visa")
	}

	intent, err := s.stripe.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent.ID, nil
}

func (s *checkoutService) announce(ctx context.Context, order *domain.Order) {
	created := events.OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.AmountCents,
		Currency:  order.Currency,
		CreatedAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.OrderCreated, created); err != nil {
		logger.WarnContext(ctx, "Failed to publish order event", "error", err, "order_id", order.ID)
	}

	paid := events.PaymentSimulatedEvent{
		OrderID:  order.ID,
		IntentID: order.PaymentIntentID,
		Amount:   order.AmountCents,
		Currency: order.Currency,
		Status:   "succeeded",
	}
	if err := s.eventBus.Publish(ctx, events.PaymentSimulated, paid); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment event", "error", err, "order_id", order.ID)
	}
}
