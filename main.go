package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appauth "github.com/Zhima-Mochi/minishop-settlement/internal/application/auth"
	apporder "github.com/Zhima-Mochi/minishop-settlement/internal/application/order"
	appuser "github.com/Zhima-Mochi/minishop-settlement/internal/application/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
	domainOrder "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-settlement/internal/domain/outbox"
	httptransport "github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/http"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/media"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/paypal"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/rabbitmq"
	rediscart "github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/config"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	usecaseRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usecase_requests_total",
			Help: "Total number of workflow invocations.",
		},
		[]string{"use_case", "outcome"},
	)
	usecaseDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usecase_duration_seconds",
			Help:    "Duration of workflow execution in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"use_case"},
	)
	gatewayRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of payment gateway calls.",
		},
		[]string{"endpoint", "outcome"},
	)
	prometheus.MustRegister(usecaseRequests, usecaseDurations, gatewayRequests)

	var (
		orderRepo     domainOrder.Repository
		inventoryRepo inventory.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			baseLogger.Fatal("postgres_connect_failed", zap.Error(err))
		}
		defer pool.Close()
		orderRepo = postgres.NewOrderRepository(pool)
		inventoryRepo = postgres.NewInventoryRepository(pool)
		baseLogger.Info("stores_postgres")
	} else {
		orderRepo = memory.NewOrderRepository()
		inventoryRepo = memory.NewInventoryRepository()
		baseLogger.Info("stores_memory")
	}

	var cartRepo cart.Repository
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()
		cartRepo = rediscart.NewCartRepository(client)
		baseLogger.Info("cart_store_redis", zap.String("addr", cfg.RedisAddr))
	} else {
		cartRepo = memory.NewCartRepository()
	}

	bus := outbox.NewBus(baseLogger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	if cfg.AMQPURL != "" {
		conn, ch, err := rabbitmq.SetupConn(cfg.AMQPURL)
		if err != nil {
			baseLogger.Fatal("rabbitmq_connect_failed", zap.Error(err))
		}
		defer conn.Close()
		publisher := rabbitmq.NewPublisher(ch)
		bridge := func(ctx context.Context, e domoutbox.Event) error {
			return publisher.Publish(ctx, e)
		}
		bus.Subscribe(domainOrder.OrderCreatedEvent{}.EventName(), bridge)
		bus.Subscribe(domainOrder.OrderSettledEvent{}.EventName(), bridge)
		baseLogger.Info("event_bridge_rabbitmq")
	}

	gateway := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPalBaseURL,
		ClientID:     cfg.PayPalClient,
		ClientSecret: cfg.PayPalSecret,
		ReturnURL:    cfg.ReturnURL,
		CancelURL:    cfg.CancelURL,
	})

	idGen := id.NewUUIDGenerator()
	orderService := apporder.NewService(
		orderRepo,
		inventoryRepo,
		cartRepo,
		gateway,
		idGen,
		bus,
		cfg.Currency,
		apporder.Metrics{
			Requests:        usecaseRequests,
			Durations:       usecaseDurations,
			GatewayRequests: gatewayRequests,
		},
	)

	userRepo := memory.NewUserRepository()
	userService := appuser.NewService(userRepo)
	authService := appauth.NewService(userRepo, cfg.JWTSecret)

	// The whole shop and admin surface sits behind auth, so a fresh
	// deployment needs a login to exist before anything else works.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := authService.EnsureAdmin(ctx, idGen.NewID(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			baseLogger.Fatal("admin_seed_failed", zap.Error(err))
		}
	} else {
		baseLogger.Warn("admin_not_configured",
			zap.String("hint", "set ADMIN_EMAIL and ADMIN_PASSWORD to enable login"),
		)
	}

	var uploader *media.Uploader
	if cfg.MediaUploadURL != "" {
		uploader = media.NewUploader(cfg.MediaUploadURL, cfg.MediaPreset)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), httptransport.RequestLogger(baseLogger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := httptransport.NewHandler(orderService, userService, authService, uploader)
	handler.Register(router)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		baseLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
