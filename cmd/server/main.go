package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/costledger/backend/internal/application/billing"
	"github.com/costledger/backend/internal/application/bulk"
	appmeta "github.com/costledger/backend/internal/application/meta"
	appreport "github.com/costledger/backend/internal/application/report"
	"github.com/costledger/backend/internal/application/split"
	"github.com/costledger/backend/internal/infrastructure/config"
	"github.com/costledger/backend/internal/infrastructure/event"
	"github.com/costledger/backend/internal/infrastructure/logger"
	"github.com/costledger/backend/internal/infrastructure/persistence"
	"github.com/costledger/backend/internal/interfaces/http/handler"
	"github.com/costledger/backend/internal/interfaces/http/middleware"
	"github.com/costledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cfg.Log.Output
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Log.SlowQueryTime))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	periodRepo := persistence.NewGormBillPeriodRepository(db.DB)
	originalRepo := persistence.NewGormOriginalBillRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerBillRepository(db.DB)
	ruleRepo := persistence.NewGormSplitRuleRepository(db.DB)
	metaRepo := persistence.NewGormMetaRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Event bus with synchronous in-transaction reactions
	bus := event.NewInMemoryEventBus(log)
	snapshots := appmeta.NewCatalogSnapshotProvider(metaRepo)
	bus.Subscribe(appbilling.NewPeriodCreatedHandler(periodRepo, log))
	bus.Subscribe(appbilling.NewPeriodDeletedHandler(originalRepo, ledgerRepo, ruleRepo, log))
	bus.Subscribe(appbilling.NewBillValidationHandler(periodRepo, snapshots, log))
	bus.Subscribe(appbilling.NewSplitRuleValidationHandler(periodRepo, snapshots, log))

	// Application services
	periodService := appbilling.NewBillPeriodService(periodRepo, txManager, bus, log)
	billService := appbilling.NewBillService(periodRepo, originalRepo, ledgerRepo, txManager, bus, log)
	ruleService := appbilling.NewSplitRuleService(periodRepo, ruleRepo, txManager, bus, log)
	splitService := split.NewSplitService(periodRepo, ledgerRepo, txManager, bus, log)
	reportService := appreport.NewReportService(periodRepo, log)
	metaService := appmeta.NewMetaService(metaRepo, txManager, log)
	billImport := bulk.NewBillImportService(periodRepo, txManager, bus, log)
	ruleImport := bulk.NewRuleImportService(periodRepo, txManager, bus, log)

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	r := router.New(engine)
	r.Register(
		handler.NewSystemHandler(db, version),
		handler.NewBillPeriodHandler(periodService, splitService),
		handler.NewBillHandler(billService, splitService),
		handler.NewSplitRuleHandler(ruleService),
		handler.NewBulkHandler(billImport, ruleImport, cfg.Import.MaxFileSize),
		handler.NewMetaHandler(metaService),
		handler.NewReportHandler(reportService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func buildEngine(cfg *config.Config, log *zap.Logger) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("set trusted proxies: %w", err)
		}
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log, "/api/v1/health"),
		middleware.CORSWithConfig(corsConfig(cfg)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine, nil
}

// corsConfig maps the HTTP configuration onto the CORS middleware,
// keeping the middleware defaults for anything left unset.
func corsConfig(cfg *config.Config) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	return cors
}
