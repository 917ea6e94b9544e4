package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	appactivity "github.com/salescrm/backend/internal/application/activity"
	appannouncement "github.com/salescrm/backend/internal/application/announcement"
	appbackup "github.com/salescrm/backend/internal/application/backup"
	appbulk "github.com/salescrm/backend/internal/application/bulk"
	appcomm "github.com/salescrm/backend/internal/application/communication"
	appidentity "github.com/salescrm/backend/internal/application/identity"
	apppayment "github.com/salescrm/backend/internal/application/paymentmethod"
	appprim "github.com/salescrm/backend/internal/application/prim"
	appsales "github.com/salescrm/backend/internal/application/sales"
	appsettings "github.com/salescrm/backend/internal/application/settings"
	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/infrastructure/auth"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/event"
	"github.com/salescrm/backend/internal/infrastructure/logger"
	"github.com/salescrm/backend/internal/infrastructure/persistence"
	"github.com/salescrm/backend/internal/infrastructure/scheduler"
	"github.com/salescrm/backend/internal/infrastructure/spreadsheet"
	"github.com/salescrm/backend/internal/infrastructure/telemetry"
	"github.com/salescrm/backend/internal/interfaces/http/apidocs"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
	"github.com/salescrm/backend/internal/interfaces/http/handler"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
	"github.com/salescrm/backend/internal/interfaces/http/router"
)

// application is the wired service graph behind the HTTP server
type application struct {
	engine   *gin.Engine
	bus      *event.InMemoryEventBus
	limiters []*middleware.RateLimiter

	// maintenance is nil when the scheduler is disabled
	maintenance *scheduler.Scheduler
	trigger     *scheduler.CronTrigger
}

// dependencies are the resources main opens before wiring
type dependencies struct {
	DB        *persistence.Database
	Store     backup.Store
	Blacklist auth.TokenBlacklist
	// Meter may be nil; metrics are then skipped
	Meter *telemetry.MeterProvider
}

func buildApplication(ctx context.Context, cfg *config.Config, deps dependencies, log *zap.Logger) (*application, error) {
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.App.Timezone, err)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	db := deps.DB.DB

	// Repositories
	userRepo := persistence.NewGormUserRepository(db)
	roleRepo := persistence.NewGormRoleRepository(db)
	saleRepo := persistence.NewGormSaleRepository(db)
	rateRepo := persistence.NewGormPrimRateRepository(db)
	periodRepo := persistence.NewGormPrimPeriodRepository(db)
	paymentRepo := persistence.NewGormPaymentMethodRepository(db)
	settingRepo := persistence.NewGormSettingRepository(db)
	recordRepo := persistence.NewGormCommunicationRecordRepository(db)
	yearRepo := persistence.NewGormCommunicationYearRepository(db)
	penaltyRepo := persistence.NewGormPenaltyRepository(db)
	announcementRepo := persistence.NewGormAnnouncementRepository(db)
	activityRepo := persistence.NewGormActivityRepository(db)
	batchRepo := persistence.NewGormImportBatchRepository(db)
	backupRepo := persistence.NewGormBackupRepository(db)

	// Events feed the activity log
	bus := event.NewInMemoryEventBus(log)
	recorder := appactivity.NewRecorder(activityRepo, log)
	bus.Subscribe(appactivity.NewEventHandler(recorder))
	if deps.Meter.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(deps.Meter)
		if err != nil {
			return nil, fmt.Errorf("create business metrics: %w", err)
		}
		bus.Subscribe(businessMetrics)
	}

	writer := spreadsheet.NewWriter()
	reader := spreadsheet.NewReader(spreadsheet.WithMaxBytes(cfg.Import.MaxFileSize))

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, roleRepo, jwtService, deps.Blacklist, bus, recorder,
		appidentity.DefaultAuthServiceConfig(), log)
	roleService := appidentity.NewRoleService(roleRepo, userRepo, bus, log)
	userService := appidentity.NewUserService(userRepo, roleRepo, saleRepo, deps.Blacklist,
		cfg.JWT.AccessTokenExpiration, bus, log)
	settingService := appsettings.NewService(settingRepo, log)
	paymentService := apppayment.NewService(paymentRepo, saleRepo, bus, log)
	primService := appprim.NewService(rateRepo, periodRepo, saleRepo, userRepo, bus, log)
	saleService := appsales.NewService(saleRepo, userRepo, paymentRepo, settingRepo, rateRepo, periodRepo,
		writer, bus, log)
	commService := appcomm.NewService(recordRepo, yearRepo, penaltyRepo, userRepo, settingRepo, bus, log)
	announcementService := appannouncement.NewService(announcementRepo, userRepo, bus, log)
	activityService := appactivity.NewService(activityRepo, log)
	backupService := appbackup.NewService(backupRepo, deps.Store, persistence.NewGormSnapshotter(db), bus, log)
	bulkService := appbulk.NewService(
		appbulk.Repositories{
			Sales:          saleRepo,
			Users:          userRepo,
			PaymentMethods: paymentRepo,
			Batches:        batchRepo,
			Rates:          rateRepo,
			Settings:       settingRepo,
		},
		persistence.NewGormTransactionScope(db),
		backupService,
		reader,
		writer,
		bus,
		log,
		appbulk.Options{
			MaxFileSize: cfg.Import.MaxFileSize,
			PreviewRows: cfg.Import.PreviewRows,
			Location:    loc,
		},
	)

	if err := seed(ctx, cfg.Seed, roleService, userService, settingService, paymentService); err != nil {
		return nil, err
	}

	app := &application{bus: bus}

	// Daily maintenance
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewMaintenanceExecutor(commService, backupService, activityService, settingRepo,
			scheduler.ExecutorOptions{KeepBackups: cfg.Storage.ScheduledBackups, Actor: uuid.Nil}, log)
		schedCfg := scheduler.DefaultConfig()
		if cfg.Scheduler.JobTimeout > 0 {
			schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
		}
		app.maintenance = scheduler.NewScheduler(schedCfg, executor, log)
		app.trigger = scheduler.NewCronTrigger(scheduler.TasksFromConfig(cfg.Scheduler),
			cfg.Scheduler.CheckInterval, loc, app.maintenance, log)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.Env == "production"
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	// uploads need room for the whole file plus multipart framing
	bodyLimit := cfg.HTTP.MaxBodySize
	if upload := cfg.Import.MaxFileSize + 1<<20; upload > bodyLimit {
		bodyLimit = upload
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(tracing),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(deps.Meter),
		middleware.SecureWithConfig(security),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(bodyLimit),
	)
	if cfg.HTTP.RateLimitEnabled {
		general := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		app.limiters = append(app.limiters, general)
		engine.Use(middleware.RateLimit(general))
	}

	var loginLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		app.limiters = append(app.limiters, authLimiter)
		loginLimit = middleware.RateLimit(authLimiter)
	}

	engine.GET("/health", handler.NewHealthHandler(deps.DB).Health)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Kaynak bulunamadı",
			c.GetString(middleware.RequestIDKey)))
	})

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = deps.Blacklist
	jwtCfg.Logger = log

	router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))).
		Register(router.Groups(router.Handlers{
			Auth:          handler.NewAuthHandler(authService),
			Users:         handler.NewUserHandler(userService),
			Roles:         handler.NewRoleHandler(roleService),
			Sales:         handler.NewSaleHandler(saleService, loc),
			Prims:         handler.NewPrimHandler(primService, loc),
			Comms:         handler.NewCommunicationHandler(commService, loc),
			Announcements: handler.NewAnnouncementHandler(announcementService, loc),
			Activities:    handler.NewActivityHandler(activityService, loc),
			Payments:      handler.NewPaymentMethodHandler(paymentService),
			Settings:      handler.NewSettingHandler(settingService),
			Import:        handler.NewSalesImportHandler(bulkService, loc),
			Backups:       handler.NewBackupHandler(backupService),
		}, loginLimit)...).
		Setup()

	engine.GET("/swagger/*any",
		middleware.DocsProtection(middleware.DocsConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddlewareWithConfig(jwtCfg)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
	if cfg.Swagger.Enabled {
		if err := apidocs.Register(engine.Routes(), apidocs.Info{
			Title:       "Satış CRM API",
			Description: "Satış, prim, iletişim ve yönetim uç noktaları",
			Version:     version,
		}); err != nil {
			return nil, err
		}
	}

	app.engine = engine
	return app, nil
}

// seed creates the system roles, the first administrator and the default lookup data
func seed(
	ctx context.Context,
	cfg config.SeedConfig,
	roles *appidentity.RoleService,
	users *appidentity.UserService,
	settings *appsettings.Service,
	payments *apppayment.Service,
) error {
	adminRole, err := roles.EnsureSystemRoles(ctx)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminFullName, adminRole.ID); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := settings.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if err := payments.EnsureDefaults(ctx, uuid.Nil); err != nil {
		return fmt.Errorf("seed payment methods: %w", err)
	}
	return nil
}

// start launches the background workers; they stop when ctx is cancelled or stop is called
func (a *application) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	for _, l := range a.limiters {
		l.StartCleanup(ctx)
	}
	if a.maintenance == nil {
		return nil
	}
	if err := a.maintenance.Start(ctx); err != nil {
		return err
	}
	return a.trigger.Start(ctx)
}

func (a *application) stop(ctx context.Context, log *zap.Logger) {
	if a.trigger != nil {
		if err := a.trigger.Stop(ctx); err != nil {
			log.Warn("Stopping cron trigger", zap.Error(err))
		}
	}
	if a.maintenance != nil {
		if err := a.maintenance.Stop(ctx); err != nil {
			log.Warn("Stopping scheduler", zap.Error(err))
		}
	}
	if err := a.bus.Stop(ctx); err != nil {
		log.Warn("Stopping event bus", zap.Error(err))
	}
}
