package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"predex/internal/config"
	cronrunner "predex/internal/cron"
	"predex/internal/db"
	"predex/internal/handler"
	"predex/internal/logger"
	"predex/internal/metrics"
	gormrepository "predex/internal/repository/gorm"
	"predex/internal/service"
	"predex/internal/stream"
)

func main() {
	cfgPath := os.Getenv("PX_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PX_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	locks := service.NewMarketLocks()

	var hub *stream.Hub
	if cfg.Stream.Enabled {
		hub = stream.NewHub(log, cfg.Stream.BufferSize)
	}

	walletSvc := &service.WalletService{Repo: store, Logger: log}
	userSvc := &service.UserService{Repo: store, Wallets: walletSvc, Logger: log}
	marketSvc := &service.MarketService{Repo: store, Logger: log}
	positionSvc := &service.PositionService{Repo: store}
	matchingSvc := &service.MatchingService{
		Repo:    store,
		Wallets: walletSvc,
		Locks:   locks,
		Hub:     hub,
		Logger:  log,
	}
	orderSvc := &service.OrderService{
		Repo:    store,
		Wallets: walletSvc,
		Matcher: matchingSvc,
		Locks:   locks,
		Logger:  log,
	}
	settlementSvc := &service.SettlementService{
		Repo:    store,
		Wallets: walletSvc,
		Locks:   locks,
		Logger:  log,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	userHandler := &handler.UserHandler{Users: userSvc, Wallets: walletSvc, Positions: positionSvc}
	userHandler.Register(engine)
	marketHandler := &handler.MarketHandler{Markets: marketSvc, Matcher: matchingSvc, Settlement: settlementSvc}
	marketHandler.Register(engine)
	orderHandler := &handler.OrderHandler{Orders: orderSvc}
	orderHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	if hub != nil {
		engine.GET("/api/v1/stream/trades", hub.Handle)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := cronrunner.New(log, baseCtx)
	if cfg.Cron.Enabled {
		if _, err := runner.Add(cfg.Cron.BookRescan, matchingSvc.RescanActiveMarkets); err != nil {
			log.Fatal("schedule book rescan failed", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
}
