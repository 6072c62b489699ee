package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/mail"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
	hub    *realtime.Hub
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Outbound integrations
	redisClient := cache.Connect(cfg.Redis, logger)
	store, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	mailer := mail.New(cfg.Mail, logger)
	gateway := payment.NewSnapGateway(cfg.Payment)
	hub := realtime.NewHub(cfg.Server.AllowedOrigins, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, mailer, cfg.JWT, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, store, cache.New(redisClient, "catalog", logger), logger)
	cartService := service.NewCartService(cartRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, addressRepo, userRepo, gateway, mailer, hub, logger)
	paymentService := service.NewPaymentService(orderRepo, paymentEventRepo, userRepo, mailer, hub, cfg.Payment, logger)
	addressService := service.NewAddressService(addressRepo)
	wishlistService := service.NewWishlistService(wishlistRepo)
	adminUserService := service.NewAdminUserService(userRepo, logger)
	uploadService := service.NewUploadService(store, logger)

	// Create auth and rate limit middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	credentialLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "rl:auth",
	}, logger)

	// Register routes
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware, credentialLimit)
	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewWishlistHandler(wishlistService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewAddressHandler(addressService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewPaymentHandler(paymentService, logger).RegisterRoutes(router)

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireAdmin(logger))

		transport.NewAdminCatalogHandler(catalogService, logger).RegisterRoutes(r)
		transport.NewAdminOrderHandler(orderService, paymentService, http.HandlerFunc(hub.ServeWS), logger).RegisterRoutes(r)
		transport.NewAdminUserHandler(adminUserService, uploadService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		hub:    hub,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Drop websocket clients before the pool goes away
	s.hub.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
