package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bike-bazaar/internal/config"
	"bike-bazaar/internal/database"
	custommiddleware "bike-bazaar/internal/middleware"
	"bike-bazaar/internal/repository"
	"bike-bazaar/internal/service"
	"bike-bazaar/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires the store, services and handlers. A nil redisClient disables rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	if redisClient != nil && cfg.RateLimit.Enabled {
		limiter := custommiddleware.NewRateLimiter(redisClient, "bike_bazaar:rate_limit", logger,
			custommiddleware.RateLimitPolicy{Name: "auth", Prefix: "/api/auth/", Requests: cfg.RateLimit.AuthRequests, Window: cfg.RateLimit.Window},
			custommiddleware.RateLimitPolicy{Name: "api", Prefix: "/api/", Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
		)
		router.Use(limiter.Middleware)
	} else {
		logger.Warn("Rate limiting disabled")
	}

	router.Get("/health", healthHandler(db, redisClient))

	store := repository.NewStore(db.DB())

	userService := service.NewUserService(store, cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	garageService := service.NewGarageService(store)
	catalogService := service.NewCatalogService(store, logger)
	cartService := service.NewCartService(store, service.NewMockPaymentGateway(logger), logger)
	orderService := service.NewOrderService(store, logger)
	inspectionService := service.NewInspectionService(store, logger)
	mechanicService := service.NewMechanicService(store)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	identityMiddleware := custommiddleware.IdentityMiddleware(userService, logger)
	protected := func(next http.Handler) http.Handler {
		return authMiddleware(identityMiddleware(next))
	}

	transport.NewUserHandler(userService, garageService, logger).RegisterRoutes(router, protected)
	transport.NewProductHandler(catalogService, logger).RegisterRoutes(router, protected)
	transport.NewOrderHandler(cartService, orderService, logger).RegisterRoutes(router, protected)
	transport.NewInspectionHandler(inspectionService, logger).RegisterRoutes(router, protected)
	transport.NewMechanicHandler(mechanicService, logger).RegisterRoutes(router, protected)

	return &Server{
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
	}
}

func healthHandler(db database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		dbHealth := db.Health()
		body["database"] = dbHealth
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				body["redis"] = "down"
			} else {
				body["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
