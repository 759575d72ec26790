package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	couponapp "github.com/safarhub/backend/internal/application/coupon"
	ledgerapp "github.com/safarhub/backend/internal/application/ledger"
	listingapp "github.com/safarhub/backend/internal/application/listing"
	orderapp "github.com/safarhub/backend/internal/application/order"
	supportapp "github.com/safarhub/backend/internal/application/support"
	vendorapp "github.com/safarhub/backend/internal/application/vendor"
	"github.com/safarhub/backend/internal/infrastructure/auth"
	"github.com/safarhub/backend/internal/infrastructure/cache"
	"github.com/safarhub/backend/internal/infrastructure/config"
	"github.com/safarhub/backend/internal/infrastructure/event"
	"github.com/safarhub/backend/internal/infrastructure/logger"
	"github.com/safarhub/backend/internal/infrastructure/messaging"
	"github.com/safarhub/backend/internal/infrastructure/notify"
	"github.com/safarhub/backend/internal/infrastructure/persistence"
	"github.com/safarhub/backend/internal/infrastructure/storage"
	"github.com/safarhub/backend/internal/infrastructure/telemetry"
	"github.com/safarhub/backend/internal/interfaces/http/handler"
	"github.com/safarhub/backend/internal/interfaces/http/middleware"
	"github.com/safarhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Fields:     map[string]string{"service": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: traces, metrics, the zap log bridge and the profiler
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.NewBridgedLogger(log.Core(), telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          level,
		}), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	log.Info("Starting marketplace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database handle is opened lazily by the first request that needs it
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry), log)
	connector := persistence.NewPostgresConnector(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level),
		persistence.WithOnConnect(dbTracing.Register))

	// Repositories
	vendorRepo := persistence.NewGormVendorRepository(connector)
	listingRepo := persistence.NewGormListingRepository(connector)
	productRepo := persistence.NewGormProductRepository(connector)
	orderRepo := persistence.NewGormOrderRepository(connector)
	userReader := persistence.NewGormUserReader(connector)
	couponRepo := persistence.NewGormCouponRepository(connector)
	settlementRepo := persistence.NewGormSettlementRepository(connector)
	transactionRepo := persistence.NewGormTransactionRepository(connector)
	messageRepo := persistence.NewGormMessageRepository(connector)

	// Business metrics
	metrics, err := telemetry.NewMarketplaceMetrics(meterProvider.Meter("safarhub.marketplace"))
	if err != nil {
		log.Fatal("Failed to register marketplace metrics", zap.Error(err))
	}

	// Visible vendor set, cached in redis when available
	vendorStore, redisClient := cache.NewVisibleVendorStore(ctx, cfg.Redis, log)
	visibleVendors := cache.NewCachedVisibleVendors(vendorRepo, vendorStore, cfg.Redis.VisibleVendorTTL, log)

	// Application services
	vendorService := vendorapp.NewVendorService(vendorRepo, listingRepo, productRepo, connector, log)
	gateService := listingapp.NewGateService(visibleVendors, listingRepo, productRepo)
	gateService.SetRecorder(metrics)
	fulfillmentService := orderapp.NewFulfillmentService(orderRepo, productRepo, userReader, log)
	fulfillmentService.SetRecorder(metrics)
	couponService := couponapp.NewCouponService(couponRepo, log)
	couponService.SetRecorder(metrics)
	settlementService := ledgerapp.NewSettlementService(settlementRepo, log)
	transactionService := ledgerapp.NewTransactionService(transactionRepo, vendorRepo, log)
	inboxService := supportapp.NewInboxService(messageRepo, log)

	// Event bus: cache invalidation, metrics and notifications run off the
	// request path
	eventBus := event.NewInMemoryEventBus(log, event.WithHandlerTimeout(cfg.Event.HandlerTimeout))
	eventBus.Subscribe(visibleVendors)
	eventBus.Subscribe(metrics)

	var kafkaMailer *notify.KafkaMailer
	if cfg.Notify.Enabled {
		var mailer notify.Mailer = notify.NewLogMailer(log)
		if cfg.Notify.Mailer == "kafka" && cfg.Kafka.Enabled {
			kafkaMailer = notify.NewKafkaMailer(notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.EmailTopic), cfg.Notify.From)
			mailer = kafkaMailer
		}
		notifier := notify.NewEmailNotifier(mailer, vendorRepo, userReader, cfg.Notify.AdminEmail, log)
		eventBus.Subscribe(notifier)
		log.Info("Email notifications enabled", zap.Strings("event_types", notifier.EventTypes()))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	vendorService.SetEventPublisher(eventBus)
	fulfillmentService.SetEventPublisher(eventBus)
	settlementService.SetEventPublisher(eventBus)
	transactionService.SetEventPublisher(eventBus)
	inboxService.SetEventPublisher(eventBus)

	// Settlement statements go to object storage when configured
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Statement bucket is not ready", zap.String("bucket", objectStorage.GetBucket()), zap.Error(err))
		}
		settlementService.SetStatementStore(objectStorage)
	}

	// Completed bookings arrive from the booking process over kafka
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		reader := messaging.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingTopic)
		consumer := messaging.NewBookingConsumer(reader, settlementService.HandleBooking, log.Named("booking-consumer"))
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				log.Error("Booking consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// HTTP handlers
	handlers := router.Handlers{
		System:      handler.NewSystemHandler(cfg.App.Name, version, connector),
		Vendor:      handler.NewVendorHandler(vendorService),
		Listing:     handler.NewListingHandler(gateService),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentService),
		Coupon:      handler.NewCouponHandler(couponService),
		Settlement:  handler.NewSettlementHandler(settlementService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Support:     handler.NewSupportHandler(inboxService),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID before anything logs
	// 2. Logger and Recovery
	// 3. Tracing, then the marker that flags 4xx/5xx spans
	// 4. HTTP metrics
	// 5. Body limit, CORS and security headers
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.Secure())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	var submitGuards []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := newRateLimiter(ctx, redisClient, cfg.HTTP)
		r.Use(middleware.RateLimit(limiter, log))
		submitGuards = append(submitGuards, middleware.RateLimitByKey(limiter, func(c *gin.Context) string {
			return "support:" + c.ClientIP()
		}, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Bool("shared", redisClient != nil),
		)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	router.Register(r, handlers, router.Guards{
		Authenticate: []gin.HandlerFunc{
			middleware.JWTAuthMiddleware(jwtService, log),
			middleware.TracingAttributeInjector(),
			middleware.ProfilingWithConfig(middleware.ProfilingConfig{Enabled: profiler.IsEnabled()}),
		},
		Submit: submitGuards,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	<-consumerDone

	// Drain pending notifications before the mailer and database go away
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if kafkaMailer != nil {
		if err := kafkaMailer.Close(); err != nil {
			log.Error("Error closing mail writer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis", zap.Error(err))
		}
	}
	if err := connector.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Error shutting down telemetry provider", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newRateLimiter shares counters through redis when it is available so
// every instance enforces the same budget
func newRateLimiter(ctx context.Context, client *redis.Client, cfg config.HTTPConfig) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	return middleware.NewRateLimiter(ctx, cfg.RateLimitRequests, cfg.RateLimitWindow)
}
