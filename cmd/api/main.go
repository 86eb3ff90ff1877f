package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/medic-pro/cmd/mainconfig"
	"github.com/wolfman30/medic-pro/internal/ai"
	"github.com/wolfman30/medic-pro/internal/api/router"
	"github.com/wolfman30/medic-pro/internal/app/bootstrap"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/auth"
	appconfig "github.com/wolfman30/medic-pro/internal/config"
	"github.com/wolfman30/medic-pro/internal/dashboard"
	"github.com/wolfman30/medic-pro/internal/export"
	"github.com/wolfman30/medic-pro/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medic-pro/internal/http/middleware"
	"github.com/wolfman30/medic-pro/internal/notify"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

const (
	contactRatePerSec = 0.05
	contactRateBurst  = 3
	limiterSweepEvery = time.Minute
)

func main() {
	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medic-pro API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	handler, cleanup, err := buildServer(ctx, cfg, awsCfg, prometheus.NewRegistry(), logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // setup waits on the model
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildServer wires every collaborator behind the router. The returned
// cleanup releases store, model and audit connections.
func buildServer(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, reg *prometheus.Registry, logger *logging.Logger) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	dashMetrics := metrics.NewDashboardMetrics(reg)

	adapter, closeStore, err := bootstrap.BuildStore(ctx, cfg, awsCfg, dashMetrics, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	llm, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, dashMetrics, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeLLM)

	recorder, querier, closeAudit, err := buildAudit(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeAudit)

	manager := dashboard.NewManager(dashboard.Deps{
		Store:     adapter,
		Bootstrap: ai.NewBootstrapClient(llm, cfg.GeminiBootstrapModel, logger),
		Audit:     recorder,
		Metrics:   dashMetrics,
		Logger:    logger,
		Policy:    dashboard.ParseValuePolicy(cfg.BootstrapValuePolicy),

		RefreshAfter: cfg.RecordRefreshAfter,
	})

	var chat handlers.Replier
	if llm != nil {
		chat = ai.NewChatClient(llm, cfg.GeminiChatModel, dashMetrics, logger)
	}

	var exporter *export.Exporter
	if strings.TrimSpace(cfg.ExportBucket) != "" {
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = mainconfig.UsePathStyle(cfg)
		})
		exporter = export.NewExporter(client, cfg.ExportBucket, recorder, logger)
	}

	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		logger.Warn("SESSION_SECRET not set; sign-in is disabled")
	}
	var google handlers.IDTokenVerifier
	if strings.TrimSpace(cfg.GoogleClientID) != "" {
		google = auth.NewGoogleVerifier(cfg.GoogleClientID)
	}
	var authOpts []handlers.AuthOption
	switch {
	case cfg.UnverifiedLoginEnabled():
		logger.Warn("email-only login enabled; any caller can open any account")
		authOpts = append(authOpts, handlers.WithUnverifiedLogin())
	case cfg.AllowUnverifiedLogin:
		logger.Warn("AUTH_ALLOW_UNVERIFIED_LOGIN ignored in production")
	}

	var contact *notify.ContactService
	if strings.TrimSpace(cfg.ContactRecipient) != "" {
		contact = notify.NewContactService(bootstrap.BuildEmailSender(cfg, awsCfg, logger), cfg.ContactRecipient, logger)
	}

	chatLimiter := httpmiddleware.NewRateLimiter(cfg.ChatRatePerSec, cfg.ChatRateBurst)
	contactLimiter := httpmiddleware.NewRateLimiter(contactRatePerSec, contactRateBurst)
	sweepCtx, stopSweepers := context.WithCancel(context.Background())
	go chatLimiter.Run(sweepCtx, limiterSweepEvery)
	go contactLimiter.Run(sweepCtx, limiterSweepEvery)
	if cfg.RecordIdleTTL > 0 {
		go manager.Run(sweepCtx, limiterSweepEvery, cfg.RecordIdleTTL)
	}
	closers = append(closers, stopSweepers)

	handler := router.New(&router.Config{
		Logger:      logger,
		Sessions:    sessions,
		AuthHandler: handlers.NewAuthHandler(sessions, google, logger, authOpts...),
		ClinicHandler: handlers.NewClinicHandler(handlers.ClinicHandlerConfig{
			Manager:  manager,
			KeyScope: cfg.StoreKeyScope,
			Chat:     chat,
			Exporter: exporter,
			Audit:    querier,
			Logger:   logger,
		}),
		ContactHandler:     handlers.NewContactHandler(contact, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatLimiter:        chatLimiter,
		ContactLimiter:     contactLimiter,
	})
	return handler, cleanup, nil
}

// buildAudit prefers the Postgres audit log and falls back to structured log
// lines, which cannot be queried back.
func buildAudit(cfg *appconfig.Config, logger *logging.Logger) (audit.Recorder, audit.Querier, func(), error) {
	url := strings.TrimSpace(cfg.AuditDatabaseURL)
	if url == "" {
		return audit.NewLogRecorder(logger), nil, func() {}, nil
	}
	rec, err := audit.Open(url)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("audit log enabled", "backend", "postgres")
	return rec, rec, func() { _ = rec.Close() }, nil
}
