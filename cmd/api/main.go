package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/shopzen/storefront/internal/http/handlers"
	httpmw "github.com/shopzen/storefront/internal/http/middleware"
	"github.com/shopzen/storefront/internal/identity"
	"github.com/shopzen/storefront/internal/mailer"
	"github.com/shopzen/storefront/internal/repository"
	"github.com/shopzen/storefront/internal/service"
	"github.com/shopzen/storefront/pkg/auth"
	"github.com/shopzen/storefront/pkg/config"
	"github.com/shopzen/storefront/pkg/database"
	"github.com/shopzen/storefront/pkg/events"
	"github.com/shopzen/storefront/pkg/logger"
	mw "github.com/shopzen/storefront/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	pendingRepo := repository.NewPendingRepository(redisClient, cfg.Auth.PendingTTL)
	cartRepo := repository.NewCartRepository(redisClient)

	// Collaborators
	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	verifier := identity.NewGoogleVerifier(identity.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		TokenInfoURL: cfg.Google.TokenInfoURL,
	})

	// Auth core: the token service is built once with injected configuration
	// and passed to everything that needs it.
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	guard := httpmw.NewAccessGuard(tokens, cfg.Auth.CookieName)

	// Services
	authService := service.NewAuthService(userRepo, mail, eventBus)
	linkingService := service.NewLinkingService(userRepo, pendingRepo, verifier, mail, eventBus)
	checkoutService := service.NewCheckoutService(cartRepo, productRepo, orderRepo, eventBus, cfg.Stripe)

	h := handlers.New(authService, linkingService, checkoutService, productRepo, cartRepo, tokens, cfg)

	metrics := mw.NewMetrics()

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Mount("/", h.Routes(guard))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down storefront API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting storefront API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
