package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FloatinggOnion/vogu-health-be/internal"
	"github.com/FloatinggOnion/vogu-health-be/internal/api"
	"github.com/FloatinggOnion/vogu-health-be/internal/auth"
	"github.com/FloatinggOnion/vogu-health-be/internal/config"
	"github.com/FloatinggOnion/vogu-health-be/internal/insight"
	"github.com/FloatinggOnion/vogu-health-be/internal/llm"
	"github.com/FloatinggOnion/vogu-health-be/internal/storage"
)

type application struct {
	logger   internal.Logger
	metrics  storage.MetricRepository
	insights *insight.Service
}

func (a *application) Logger() internal.Logger           { return a.logger }
func (a *application) Metrics() storage.MetricRepository { return a.metrics }
func (a *application) Insights() *insight.Service        { return a.insights }

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if cfg.DBType == "file" {
		if err := os.MkdirAll("data", 0o755); err != nil {
			logger.Fatalf("failed to create data dir: %v", err)
		}
	}

	repo, closeRepo, err := storage.New(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Errorf("failed to close storage: %v", err)
		}
	}()

	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
		}
	}

	model := llm.NewOpenAIClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelTimeout, logger)
	insights := insight.NewService(
		insight.NewAggregator(repo, loc),
		insight.NewBuilder(cfg.MaxPromptLen),
		insight.NewCache(cfg.InsightCacheTTL, cfg.InsightCacheMaxSize, logger),
		model,
		insight.Options{
			AggregationVersion: cfg.AggregationVersion,
			PromptVersion:      cfg.PromptVersion,
			WaitTimeout:        cfg.InsightWaitTimeout,
		},
		logger,
	)

	app := &application{logger: logger, metrics: repo, insights: insights}

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(cfg.AuthToken, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.Register(r, app, auth.Middleware(provider, cfg))

	srv := &http.Server{Addr: cfg.Listen, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("server running on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}
