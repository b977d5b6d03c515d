package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/finsight/insights-service/internal/cache"
	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/digest"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/handler"
	"github.com/finsight/insights-service/internal/middleware"
	"github.com/finsight/insights-service/internal/narrative"
	"github.com/finsight/insights-service/internal/repository"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		logger.Fatalf("Failed to load analysis policy: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	fallback := narrative.NewTemplateRenderer()
	var summarizer engine.Summarizer
	if cfg.NarrativeURL != "" {
		summarizer = narrative.NewClient(cfg, logger)
	} else {
		logger.Info("No narrative service configured, using template renderer")
	}
	eng := engine.New(repo, policy, summarizer, fallback, cfg.NarrativeTimeout, logger)
	insightsCache := cache.New(cfg.CacheTTL, logger)
	h := handler.NewHandler(eng, insightsCache, logger)

	// Background jobs
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CacheSweepSpec, insightsCache.Sweep); err != nil {
		logger.Fatalf("Invalid cache sweep schedule %q: %v", cfg.CacheSweepSpec, err)
	}
	if cfg.DigestEnabled() {
		mailer := digest.NewMailer(cfg, eng, insightsCache, logger)
		if _, err := scheduler.AddFunc(cfg.DigestSpec, mailer.Run); err != nil {
			logger.Fatalf("Invalid digest schedule %q: %v", cfg.DigestSpec, err)
		}
		logger.Infof("Weekly digest scheduled: %s", cfg.DigestSpec)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestLogger(logger))
	h.Register(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
