package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-agua/internal/auth"
	"github.com/noah-isme/backend-agua/internal/cart"
	"github.com/noah-isme/backend-agua/internal/catalog"
	"github.com/noah-isme/backend-agua/internal/checkout"
	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/config"
	"github.com/noah-isme/backend-agua/internal/customer"
	"github.com/noah-isme/backend-agua/internal/dashboard"
	"github.com/noah-isme/backend-agua/internal/db"
	"github.com/noah-isme/backend-agua/internal/events"
	"github.com/noah-isme/backend-agua/internal/health"
	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/order"
	"github.com/noah-isme/backend-agua/internal/ratelimit"
	"github.com/noah-isme/backend-agua/internal/receipt"
	"github.com/noah-isme/backend-agua/internal/stock"
	"github.com/noah-isme/backend-agua/internal/tasks"
	"github.com/noah-isme/backend-agua/internal/user"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "agua")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, nil, nil)

	shutdownTracer, err := obs.InitTracer(context.Background(), "agua-api", envOrDefault("OBS_OTLP_ENDPOINT", ""))
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "agua-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for queue")
	}
	queueClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	validate := validator.New()

	bus := &events.Bus{
		Store: &events.PGEventStore{Pool: pool},
		Subscribers: []events.Subscriber{
			&tasks.Enqueuer{Client: queueClient, Log: logger},
		},
		Log: logger,
	}

	catalogSvc := &catalog.Service{Store: &catalog.PGStore{Pool: pool}}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service:           catalogSvc,
		Validate:          validate,
		LowStockThreshold: cfg.LowStockThreshold,
	})

	customerSvc := &customer.Service{Store: &customer.PGStore{Pool: pool}}
	customerHandler := customer.NewHandler(customer.HandlerConfig{Service: customerSvc, Validate: validate})

	registry := cart.NewRegistry()
	cartHandler := cart.NewHandler(cart.HandlerConfig{
		Registry: registry,
		Products: productSource{svc: catalogSvc},
	})

	checkoutSvc := &checkout.Service{
		Store:             &checkout.PGStore{Pool: pool},
		Bus:               bus,
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               logger,
	}
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{Registry: registry, Service: checkoutSvc})

	orderSvc := &order.Service{Store: &order.PGStore{Pool: pool}}
	orderHandler := order.NewHandler(order.HandlerConfig{Service: orderSvc})

	receiptRenderer, err := receipt.NewRenderer(orderSvc, envOrDefault("BUSINESS_NAME", "Distribuidora"), cfg.CurrencyCode)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise receipt renderer")
	}

	stockSvc := &stock.Service{
		Store:             &stock.PGStore{Pool: pool},
		Bus:               bus,
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               logger,
	}
	stockHandler := stock.NewHandler(stock.HandlerConfig{Service: stockSvc, Validate: validate})

	dashboardSvc := &dashboard.Service{
		Store:             &dashboard.PGStore{Pool: pool},
		Cache:             &dashboard.Cache{R: redisClient, TTL: cfg.DashboardCacheTTL},
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               logger,
	}
	dashboardHandler := &dashboard.Handler{Service: dashboardSvc}

	userSvc := &user.Service{Store: &user.PGStore{Pool: pool}}
	userHandler := user.NewHandler(user.HandlerConfig{Service: userSvc, Validate: validate})

	denylist := &auth.Denylist{R: redisClient}
	authSvc := &auth.Service{
		Users:    userSvc,
		Issuer:   auth.Issuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.AccessTokenTTL},
		Denylist: denylist,
		Log:      logger,
	}
	authHandler := auth.NewHandler(auth.HandlerConfig{Service: authSvc, Validate: validate})
	requireAuth := auth.RequireAuth(auth.Validator{Secret: []byte(cfg.JWTSecret), Denylist: denylist})

	loginLimiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login rate limiter")
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	healthHandler := &health.Handler{Checks: map[string]health.Pinger{
		"postgres": health.PingerFunc(func(ctx context.Context) error { return pool.Ping(ctx) }),
		"redis":    health.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	}}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	healthHandler.Mount(r)

	r.Route("/api/v1", func(v chi.Router) {
		v.With(ratelimit.Middleware(loginLimiter)).Post("/auth/login", authHandler.Login)

		v.Group(func(p chi.Router) {
			p.Use(requireAuth)
			authHandler.MountProtected(p)

			catalogHandler.Mount(p)
			customerHandler.Mount(p)
			cartHandler.Mount(p)
			orderHandler.Mount(p)
			receiptRenderer.Mount(p)
			dashboardHandler.Mount(p)

			p.Group(func(s chi.Router) {
				s.Use(idem.Middleware)
				stockHandler.Mount(s)
				checkoutHandler.Mount(s)
			})

			p.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRole(user.RoleAdmin))
				userHandler.Mount(admin)
				orderHandler.MountAdmin(admin)
				catalogHandler.MountAdmin(admin)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// productSource adapts the catalog service to the snapshot a cart line needs.
type productSource struct {
	svc *catalog.Service
}

func (p productSource) Snapshot(ctx context.Context, id int64) (cart.Product, error) {
	prod, err := p.svc.Get(ctx, id)
	if err != nil {
		return cart.Product{}, err
	}
	return cart.Product{
		ID:          prod.ID,
		Name:        prod.Name,
		PriceFull:   prod.PriceFull,
		PriceRefill: prod.PriceRefill,
	}, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
