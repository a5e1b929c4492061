package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bambite_gateway/config"
	"bambite_gateway/internal/apierror"
	"bambite_gateway/internal/cart"
	"bambite_gateway/internal/clients"
	"bambite_gateway/internal/forms"
	"bambite_gateway/internal/handlers"
	"bambite_gateway/internal/metrics"
	"bambite_gateway/internal/proxy"
	"bambite_gateway/internal/transport"
	"bambite_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", cfg.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.Info("Starting BamBite Gateway...")

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ProductFallback && !cfg.IsDevelopment() {
		logger.Warn("PRODUCT_LOOKUP_FALLBACK is ignored outside development")
	}

	reg := metrics.NewRegistry()

	tr, err := transport.New(transport.Options{
		PublicBaseURL:    cfg.PublicAPIURL,
		ServerBaseURL:    cfg.APIBaseURL,
		JSONTimeout:      cfg.JSONTimeout,
		MultipartTimeout: cfg.MultipartTimeout,
		Observer:         reg,
	}, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to create backend transport: %v", err)
	}

	classifier := apierror.NewClassifier(logger, cfg.IsDevelopment(), reg)
	catalogClient := clients.NewCatalogClient(tr, classifier, cfg.ProductFallbackEnabled(), logger)
	submissionClient := clients.NewSubmissionClient(tr, classifier, logger)
	catalogUseCase := usecase.NewCatalogUseCase(catalogClient, logger)

	formRegistry := forms.NewRegistry(submissionClient, cfg.CartIdleTTL, cfg.MaxSessions, logger, forms.WithRecorder(reg))
	cartRegistry := cart.NewRegistry(cfg.CartIdleTTL, cfg.MaxSessions, logger)

	router := handlers.NewRouter(handlers.RouterDeps{
		Catalog:       catalogUseCase,
		Forms:         formRegistry,
		Carts:         cartRegistry,
		Proxy:         proxy.NewReverseProxy(tr, tr.RoundTripper(), logger),
		Metrics:       reg.Handler(),
		Observer:      reg,
		SecureCookies: !cfg.IsDevelopment(),
		Log:           logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cartRegistry.Sweep()
				formRegistry.Sweep()
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.GatewayPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("BamBite Gateway listening on port %s", cfg.GatewayPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start BamBite Gateway: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Warn("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info("BamBite Gateway shut down gracefully.")
}
