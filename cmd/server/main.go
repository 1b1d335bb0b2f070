package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/catalogportal/backend/internal/application/catalog"
	syncapp "github.com/catalogportal/backend/internal/application/sync"
	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
	"github.com/catalogportal/backend/internal/infrastructure/agent"
	"github.com/catalogportal/backend/internal/infrastructure/auth"
	"github.com/catalogportal/backend/internal/infrastructure/cache"
	"github.com/catalogportal/backend/internal/infrastructure/config"
	"github.com/catalogportal/backend/internal/infrastructure/logger"
	"github.com/catalogportal/backend/internal/infrastructure/persistence"
	"github.com/catalogportal/backend/internal/infrastructure/scheduler"
	"github.com/catalogportal/backend/internal/interfaces/http/handler"
	"github.com/catalogportal/backend/internal/interfaces/http/middleware"
	"github.com/catalogportal/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting catalog portal backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	mappingRepo := persistence.NewGormFieldMappingRepository(db.DB)
	visibilityRepo := persistence.NewGormVisibilityRepository(db.DB)
	offerRepo := persistence.NewGormOfferRepository(db.DB)

	// Agent liveness is process-local unless Redis is reachable; a fleet of
	// portal instances shares it through the mirror.
	var statusMirror syncapp.StatusMirror
	mirror, err := cache.NewRedisAgentStatusStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, agent status stays process-local", zap.Error(err))
	} else {
		statusMirror = mirror
	}

	signer, err := syncdomain.NewHMACSigner(cfg.Sync.SigningSecret)
	if err != nil {
		log.Fatal("Failed to initialize command signer", zap.Error(err))
	}

	agentClient := agent.NewClient(cfg.Agent.Host, cfg.Agent.RequestTimeout, log)
	monitor := syncdomain.NewAgentMonitor()

	// Services
	companyService := syncapp.NewCompanyService(companyRepo)
	dispatchService := syncapp.NewDispatchService(companyRepo, signer, agentClient, monitor, statusMirror, log)

	schema := catalogapp.DefaultSchema()
	mappingService := catalogapp.NewFieldMappingService(mappingRepo, schema)
	visibilityService := catalogapp.NewVisibilityService(visibilityRepo, schema, log)
	offerService := catalogapp.NewOfferService(offerRepo)

	syncScheduler, err := scheduler.NewSyncScheduler(dispatchService, cfg.Scheduler.Interval, log)
	if err != nil {
		log.Fatal("Failed to initialize sync scheduler", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.JWTAuthMiddleware(jwtService),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSyncHandler(companyService, dispatchService, syncScheduler))
	r.Register(handler.NewMappingHandler(mappingService))
	r.Register(handler.NewVisibilityHandler(visibilityService))
	r.Register(handler.NewOfferHandler(offerService))
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := syncScheduler.Shutdown(ctx); err != nil {
		log.Error("Scheduler shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
