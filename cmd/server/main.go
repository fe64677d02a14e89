package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	crmapp "github.com/retailsuite/backend/internal/application/crm"
	identityapp "github.com/retailsuite/backend/internal/application/identity"
	orgapp "github.com/retailsuite/backend/internal/application/org"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
	salesapp "github.com/retailsuite/backend/internal/application/sales"
	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/auth"
	"github.com/retailsuite/backend/internal/infrastructure/cache"
	"github.com/retailsuite/backend/internal/infrastructure/config"
	"github.com/retailsuite/backend/internal/infrastructure/event"
	"github.com/retailsuite/backend/internal/infrastructure/logger"
	"github.com/retailsuite/backend/internal/infrastructure/persistence"
	"github.com/retailsuite/backend/internal/infrastructure/scheduler"
	"github.com/retailsuite/backend/internal/infrastructure/storage"
	"github.com/retailsuite/backend/internal/infrastructure/telemetry"
	"github.com/retailsuite/backend/internal/interfaces/http/handler"
	"github.com/retailsuite/backend/internal/interfaces/http/middleware"
	"github.com/retailsuite/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/retailsuite/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			RetailSuite Backend API
//	@version		1.0
//	@description	Multi-tenant retail POS and CRM backend

//	@contact.name	API Support
//	@contact.email	support@retailsuite.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize base logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = "retailsuite-backend"
	}

	ctx := context.Background()

	// Initialize telemetry providers. Disabled providers are no-ops, so the
	// wiring below stays the same either way.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownWithTimeout(tracerProvider.Shutdown, log, "tracer provider")

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownWithTimeout(meterProvider.Shutdown, log, "meter provider")

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	defer shutdownWithTimeout(logsProvider.Shutdown, log, "logs provider")

	// Bridge application logs to the OTEL collector when the logs pipeline
	// is up
	if logsProvider.IsEnabled() {
		bridged, err := telemetry.CreateBridgedLoggerFromConfig(&telemetry.BaseLoggerConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		}, logsProvider, serviceName)
		if err != nil {
			log.Fatal("Failed to initialize bridged logger", zap.Error(err))
		}
		log = bridged
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServer,
		ApplicationName:     serviceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link traces to profiles when both pipelines are active
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	log.Info("Starting RetailSuite Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database observability plugins
	if meterProvider.IsEnabled() {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			defer dbMetrics.Stop()
		}
	}
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Redis backs the token blacklist, entitlement cache and event
	// idempotency store; a missing Redis degrades to in-process fallbacks
	// suitable for a single instance.
	var (
		blacklist        auth.TokenBlacklist
		entitlementCache platform.EntitlementCache
		idempotencyStore shared.IdempotencyStore = cache.NewInMemoryIdempotencyStore()
	)
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory fallbacks", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
		entitlementCache = cache.NewInMemoryEntitlementCache()
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		entitlementCache = cache.NewRedisEntitlementCache(redisClient)
		idempotencyStore = cache.NewRedisIdempotencyStore(redisClient, "retail:events")
		log.Info("Redis connected successfully")
	}

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	tierRepo := persistence.NewGormLoyaltyTierRepository(db.DB)
	segmentRepo := persistence.NewGormCustomerSegmentRepository(db.DB)
	scoreRepo := persistence.NewGormCustomerScoreRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	backupRepo := persistence.NewGormBackupRepository(db.DB)
	moduleRepo := persistence.NewGormModuleRepository(db.DB)
	packageRepo := persistence.NewGormPackageRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	announcementRepo := persistence.NewGormAnnouncementRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterDomainEvents(eventSerializer)

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Inject outbox publisher into repositories that save events with their
	// aggregates
	saleRepo.SetOutboxEventSaver(outboxPublisher)
	customerRepo.SetOutboxEventSaver(outboxPublisher)

	txScope := persistence.NewGormPlatformTransactionScope(db.DB, outboxPublisher)

	// Background job scheduler (worker pool); executors are registered
	// below once the services exist
	schedulerConfig := scheduler.DefaultConfig()
	if cfg.Scheduler.Workers > 0 {
		schedulerConfig.Workers = cfg.Scheduler.Workers
	}
	if cfg.Scheduler.QueueSize > 0 {
		schedulerConfig.QueueSize = cfg.Scheduler.QueueSize
	}
	if cfg.Scheduler.JobTimeout > 0 {
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
	}
	if cfg.Scheduler.MaxRetries > 0 {
		schedulerConfig.MaxRetries = cfg.Scheduler.MaxRetries
	}
	if cfg.Scheduler.RetryDelay > 0 {
		schedulerConfig.RetryDelay = cfg.Scheduler.RetryDelay
	}
	jobScheduler := scheduler.NewScheduler(schedulerConfig, log)

	// Retail business metrics (sales, points, backups, gauges)
	var retailMetrics *telemetry.RetailMetrics
	if meterProvider.IsEnabled() {
		retailMetrics, err = telemetry.NewRetailMetrics(telemetry.RetailMetricsConfig{
			Meter:         meterProvider.Meter("retailsuite.backend"),
			Logger:        log,
			StatsProvider: telemetry.NewGormRetailStatsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize retail metrics", zap.Error(err))
		}
	}

	// Backup archives go to S3-compatible object storage; without a bucket
	// configured they stay in process memory, which only suits development.
	var backupStorage platformapp.BackupStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		backupStorage = s3Storage
		log.Info("Object storage configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		backupStorage = storage.NewMemoryObjectStorage()
		log.Warn("No storage bucket configured, backup archives are kept in memory")
	}

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, tenantRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, tenantRepo, branchRepo, jwtService, blacklist, log)

	// Org services
	branchService := orgapp.NewBranchService(branchRepo, tenantRepo, log)

	// CRM services
	customerService := crmapp.NewCustomerService(customerRepo, tenantRepo, branchRepo, scoreRepo, log)
	tierService := crmapp.NewLoyaltyTierService(tierRepo, customerRepo, log)
	segmentService := crmapp.NewCustomerSegmentService(segmentRepo, customerRepo, scoreRepo, log)
	scoringService := crmapp.NewScoringService(
		customerRepo, saleRepo, scoreRepo, segmentRepo, tierRepo, tenantRepo,
		jobScheduler,
		crm.ScoringConfig{WindowDays: cfg.Scoring.WindowDays, HorizonYears: cfg.Scoring.HorizonYears},
		log,
	)

	// Sales service
	saleService := salesapp.NewSaleService(saleRepo, customerRepo, branchRepo, log)

	// Platform services (owner plane)
	tenantService := platformapp.NewTenantService(txScope, tenantRepo, packageRepo, userRepo, branchRepo, customerRepo, log)
	entitlementService := platformapp.NewEntitlementService(txScope, moduleRepo, packageRepo, subscriptionRepo, tenantRepo, entitlementCache, log)
	catalogService := platformapp.NewCatalogService(moduleRepo, packageRepo, tenantRepo, entitlementCache, log)
	announcementService := platformapp.NewAnnouncementService(announcementRepo, log)
	backupService := platformapp.NewBackupService(
		backupRepo, tenantRepo, branchRepo, userRepo,
		customerRepo, tierRepo, segmentRepo, scoreRepo, saleRepo,
		backupStorage, jobScheduler, retailMetrics,
		platformapp.BackupServiceConfig{
			Retention:         cfg.Backup.Retention,
			KeyPrefix:         cfg.Backup.KeyPrefix,
			DownloadURLExpiry: cfg.Storage.PresignExpiration,
		},
		log,
	)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Sale completed -> customer stats and loyalty points
	saleCompletedHandler := crmapp.NewSaleCompletedHandler(customerRepo, tenantRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(saleCompletedHandler, idempotencyStore, log))

	// Sale voided -> reverse the stats applied on completion
	saleVoidedHandler := crmapp.NewSaleVoidedHandler(customerRepo, tenantRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(saleVoidedHandler, idempotencyStore, log))

	if retailMetrics != nil {
		eventBus.Subscribe(event.NewMetricsEventHandler(retailMetrics, log))
	}

	log.Info("Event handlers registered",
		zap.Strings("sale_completed_events", saleCompletedHandler.EventTypes()),
		zap.Strings("sale_voided_events", saleVoidedHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor drains the outbox table into the event bus for
	// guaranteed delivery
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Register job executors and start the scheduler with its nightly runs
	jobScheduler.RegisterExecutor(scheduler.JobTypeCustomerScoring, scoringService)
	jobScheduler.RegisterExecutor(scheduler.JobTypeTenantBackup, backupService)
	jobScheduler.RegisterExecutor(scheduler.JobTypeBackupCleanup, backupService)

	if cfg.Scheduler.Enabled {
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping job scheduler", zap.Error(err))
			}
		}()

		nightlyConfig := scheduler.DefaultNightlyConfig()
		nightlyConfig.ScoringAt = parseDailyTime(cfg.Scheduler.ScoringTime, nightlyConfig.ScoringAt)
		nightlyConfig.BackupAt = parseDailyTime(cfg.Scheduler.BackupTime, nightlyConfig.BackupAt)
		nightlyConfig.CleanupAt = parseDailyTime(cfg.Scheduler.CleanupTime, nightlyConfig.CleanupAt)

		nightlyTrigger := scheduler.NewNightlyTrigger(
			nightlyConfig,
			jobScheduler,
			scheduler.NewGormTenantProvider(db.DB),
			scoringService,
			backupService,
			log,
		)
		if err := nightlyTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start nightly trigger", zap.Error(err))
		}
		defer func() {
			if err := nightlyTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping nightly trigger", zap.Error(err))
			}
		}()
		log.Info("Job scheduler started",
			zap.Int("workers", schedulerConfig.Workers),
			zap.Duration("job_timeout", schedulerConfig.JobTimeout),
		)
	}

	// Boot-time platform state: the reserved platform tenant, its first
	// owner user, and the default module and package catalog
	if err := tenantService.EnsurePlatformTenant(ctx, platformapp.BootstrapOwnerInput{
		Username: cfg.Bootstrap.OwnerUsername,
		Email:    cfg.Bootstrap.OwnerEmail,
		Password: cfg.Bootstrap.OwnerPassword,
		FullName: cfg.Bootstrap.OwnerFullName,
	}); err != nil {
		log.Fatal("Failed to ensure platform tenant", zap.Error(err))
	}
	if err := catalogService.EnsureDefaults(ctx); err != nil {
		log.Fatal("Failed to seed module catalog", zap.Error(err))
	}
	platformTenant, err := tenantRepo.FindByCode(ctx, platform.PlatformTenantCode)
	if err != nil {
		log.Fatal("Failed to load platform tenant", zap.Error(err))
	}
	platformTenantID := platformTenant.ID.String()

	if retailMetrics != nil {
		retailMetrics.StartPeriodicCollection(ctx, scheduler.NewGormTenantProvider(db.DB), 5*time.Minute)
		defer retailMetrics.Stop()
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	branchHandler := handler.NewBranchHandler(branchService)
	backupHandler := handler.NewBackupHandler(backupService)
	customerHandler := handler.NewCustomerHandler(customerService)
	tierHandler := handler.NewTierHandler(tierService)
	segmentHandler := handler.NewSegmentHandler(segmentService)
	scoreHandler := handler.NewScoreHandler(scoringService)
	saleHandler := handler.NewSaleHandler(saleService)
	tenantHandler := handler.NewTenantHandler(tenantService, entitlementService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)
	moduleHandler := handler.NewModuleHandler(entitlementService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing/Metrics/Profiling - Observability (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.RequestLogger(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if tracerProvider.IsEnabled() {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: serviceName,
			Enabled:     true,
		}))
	}
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("retailsuite.http"), true))
	}
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}

	// Health and liveness endpoints (outside the API group)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ping", systemHandler.Ping)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes
	r := router.NewRouter(engine)

	// JWT authentication on the whole API group; login and refresh are skip
	// paths. Tenant resolution comes from the JWT claims; owner-plane routes
	// that act on another tenant take the tenant ID from the path instead.
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.OptionalTenantMiddleware())

	moduleGate := func(key platform.ModuleKey) gin.HandlerFunc {
		return middleware.RequireModule(entitlementService, key)
	}

	// Auth routes; login/refresh are public (JWT skip paths) with stricter
	// rate limiting
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authLimit := middleware.AuthRateLimit(authLimiter)
		authRoutes.POST("/login", authLimit, authHandler.Login)
		authRoutes.POST("/refresh", authLimit, authHandler.Refresh)
	} else {
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
	}
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.POST("/password", authHandler.ChangePassword)

	// Core routes available to every authenticated tenant user
	coreRoutes := router.NewDomainGroup("core", "/core")
	coreRoutes.GET("/modules", moduleHandler.List)
	coreRoutes.GET("/announcements", announcementHandler.ListActive)

	// Org domain (users, branches, backups) - tenant admin only
	orgRoutes := router.NewDomainGroup("org", "/org")
	orgRoutes.Use(middleware.RequireRole(identity.RoleAdmin))

	orgRoutes.POST("/users", userHandler.Create)
	orgRoutes.GET("/users", userHandler.List)
	orgRoutes.GET("/users/:id", userHandler.GetByID)
	orgRoutes.PUT("/users/:id", userHandler.Update)
	orgRoutes.DELETE("/users/:id", userHandler.Delete)
	orgRoutes.POST("/users/:id/role", userHandler.ChangeRole)
	orgRoutes.POST("/users/:id/activate", userHandler.Activate)
	orgRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	orgRoutes.POST("/users/:id/unlock", userHandler.Unlock)
	orgRoutes.POST("/users/:id/password", userHandler.ResetPassword)

	orgRoutes.POST("/branches", branchHandler.Create)
	orgRoutes.GET("/branches", branchHandler.List)
	orgRoutes.GET("/branches/:id", branchHandler.GetByID)
	orgRoutes.PUT("/branches/:id", branchHandler.Update)
	orgRoutes.DELETE("/branches/:id", branchHandler.Delete)
	orgRoutes.POST("/branches/:id/activate", branchHandler.Activate)
	orgRoutes.POST("/branches/:id/deactivate", branchHandler.Deactivate)
	orgRoutes.POST("/branches/:id/main", branchHandler.SetMain)

	backupRoutes := orgRoutes.Group("backups", "/backups")
	backupRoutes.Use(moduleGate(platform.ModuleBackups))
	backupRoutes.POST("", backupHandler.Trigger)
	backupRoutes.GET("", backupHandler.List)
	backupRoutes.GET("/:id", backupHandler.Get)
	backupRoutes.GET("/:id/download", backupHandler.Download)
	backupRoutes.DELETE("/:id", backupHandler.Delete)

	// CRM domain (customers, segments, scores, loyalty tiers)
	crmRoutes := router.NewDomainGroup("crm", "/crm")
	crmRoutes.Use(moduleGate(platform.ModuleCRM))

	crmRoutes.POST("/customers", customerHandler.Create)
	crmRoutes.GET("/customers", customerHandler.List)
	crmRoutes.GET("/customers/code/:code", customerHandler.GetByCode)
	crmRoutes.GET("/customers/:id", customerHandler.GetByID)
	crmRoutes.PUT("/customers/:id", customerHandler.Update)
	crmRoutes.DELETE("/customers/:id", customerHandler.Delete)
	crmRoutes.POST("/customers/:id/activate", customerHandler.Activate)
	crmRoutes.POST("/customers/:id/deactivate", customerHandler.Deactivate)
	crmRoutes.POST("/customers/:id/block", customerHandler.Block)
	crmRoutes.POST("/customers/:id/points", moduleGate(platform.ModuleLoyalty), customerHandler.AdjustPoints)

	crmRoutes.POST("/segments", segmentHandler.Create)
	crmRoutes.GET("/segments", segmentHandler.List)
	crmRoutes.GET("/segments/:id", segmentHandler.GetByID)
	crmRoutes.PUT("/segments/:id", segmentHandler.Update)
	crmRoutes.DELETE("/segments/:id", segmentHandler.Delete)
	crmRoutes.POST("/segments/:id/activate", segmentHandler.Activate)
	crmRoutes.POST("/segments/:id/deactivate", segmentHandler.Deactivate)
	crmRoutes.POST("/segments/:id/evaluate", segmentHandler.Evaluate)

	crmRoutes.POST("/scores/trigger", middleware.RequireRole(identity.RoleAdmin), scoreHandler.Trigger)
	crmRoutes.POST("/scores/recompute", middleware.RequireRole(identity.RoleAdmin), scoreHandler.Recompute)
	crmRoutes.GET("/scores", scoreHandler.List)
	crmRoutes.GET("/scores/summary", scoreHandler.GetSummary)
	crmRoutes.GET("/scores/customers/:customer_id", scoreHandler.GetCustomerScore)

	tierRoutes := crmRoutes.Group("tiers", "/tiers")
	tierRoutes.Use(moduleGate(platform.ModuleLoyalty))
	tierRoutes.POST("", tierHandler.Create)
	tierRoutes.GET("", tierHandler.List)
	tierRoutes.GET("/:id", tierHandler.GetByID)
	tierRoutes.PUT("/:id", tierHandler.Update)
	tierRoutes.DELETE("/:id", tierHandler.Delete)
	tierRoutes.POST("/:id/rank", tierHandler.ChangeRank)
	tierRoutes.POST("/:id/activate", tierHandler.Activate)
	tierRoutes.POST("/:id/deactivate", tierHandler.Deactivate)

	// Sales domain (POS tickets)
	salesRoutes := router.NewDomainGroup("sales", "/sales")
	salesRoutes.Use(moduleGate(platform.ModulePOS))
	salesRoutes.POST("", saleHandler.Record)
	salesRoutes.GET("", saleHandler.List)
	salesRoutes.GET("/number/:number", saleHandler.GetByNumber)
	salesRoutes.GET("/summary/daily", saleHandler.DailySummary)
	salesRoutes.GET("/:id", saleHandler.GetByID)
	salesRoutes.POST("/:id/void", middleware.RequireRole(identity.RoleManager), saleHandler.Void)

	// Owner plane (tenants, module catalog, packages, announcements)
	ownerRoutes := router.NewDomainGroup("owner", "/owner")
	ownerRoutes.Use(middleware.RequireOwnerPlane(platformTenantID))

	ownerRoutes.POST("/tenants", tenantHandler.Create)
	ownerRoutes.GET("/tenants", tenantHandler.List)
	ownerRoutes.GET("/tenants/stats", tenantHandler.GetStats)
	ownerRoutes.GET("/tenants/:id", tenantHandler.GetByID)
	ownerRoutes.PUT("/tenants/:id", tenantHandler.Update)
	ownerRoutes.DELETE("/tenants/:id", tenantHandler.Delete)
	ownerRoutes.POST("/tenants/:id/activate", tenantHandler.Activate)
	ownerRoutes.POST("/tenants/:id/deactivate", tenantHandler.Deactivate)
	ownerRoutes.POST("/tenants/:id/suspend", tenantHandler.Suspend)
	ownerRoutes.GET("/tenants/:id/usage", tenantHandler.GetUsage)
	ownerRoutes.POST("/tenants/:id/subscription", tenantHandler.Subscribe)
	ownerRoutes.GET("/tenants/:id/subscription", tenantHandler.GetSubscription)
	ownerRoutes.DELETE("/tenants/:id/subscription", tenantHandler.CancelSubscription)
	ownerRoutes.POST("/tenants/:id/addons", tenantHandler.AddAddon)
	ownerRoutes.DELETE("/tenants/:id/addons", tenantHandler.RemoveAddon)
	ownerRoutes.POST("/tenants/:id/backups", backupHandler.TriggerForTenant)
	ownerRoutes.GET("/tenants/:id/backups", backupHandler.ListForTenant)

	ownerRoutes.GET("/modules", catalogHandler.ListModules)
	ownerRoutes.POST("/modules", catalogHandler.CreateModule)
	ownerRoutes.GET("/modules/:id", catalogHandler.GetModule)
	ownerRoutes.PUT("/modules/:id", catalogHandler.UpdateModule)
	ownerRoutes.DELETE("/modules/:id", catalogHandler.DeleteModule)
	ownerRoutes.POST("/modules/:id/enable", catalogHandler.EnableModule)
	ownerRoutes.POST("/modules/:id/disable", catalogHandler.DisableModule)

	ownerRoutes.GET("/packages", catalogHandler.ListPackages)
	ownerRoutes.POST("/packages", catalogHandler.CreatePackage)
	ownerRoutes.GET("/packages/:id", catalogHandler.GetPackage)
	ownerRoutes.PUT("/packages/:id", catalogHandler.UpdatePackage)
	ownerRoutes.DELETE("/packages/:id", catalogHandler.DeletePackage)
	ownerRoutes.POST("/packages/:id/activate", catalogHandler.ActivatePackage)
	ownerRoutes.POST("/packages/:id/deactivate", catalogHandler.DeactivatePackage)

	ownerRoutes.POST("/announcements", announcementHandler.Create)
	ownerRoutes.GET("/announcements", announcementHandler.List)
	ownerRoutes.GET("/announcements/:id", announcementHandler.GetByID)
	ownerRoutes.PUT("/announcements/:id", announcementHandler.Update)
	ownerRoutes.DELETE("/announcements/:id", announcementHandler.Delete)
	ownerRoutes.POST("/announcements/:id/publish", announcementHandler.Publish)
	ownerRoutes.POST("/announcements/:id/unpublish", announcementHandler.Unpublish)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(authRoutes).
		Register(coreRoutes).
		Register(orgRoutes).
		Register(crmRoutes).
		Register(salesRoutes).
		Register(ownerRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.FromGin(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// shutdownWithTimeout shuts down a telemetry provider with a bounded wait
func shutdownWithTimeout(shutdown func(context.Context) error, log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}

// parseDailyTime parses a "HH:MM" run time, falling back on bad input
func parseDailyTime(value string, fallback scheduler.DailyTime) scheduler.DailyTime {
	if value == "" {
		return fallback
	}
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return fallback
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fallback
	}
	return scheduler.DailyTime{Hour: hour, Minute: minute}
}
