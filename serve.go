package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"immerseforge-site/pkg/api"
	"immerseforge-site/pkg/clients/formspree"
	"immerseforge-site/pkg/clients/notion"
	"immerseforge-site/pkg/config"
	"immerseforge-site/pkg/content"
	"immerseforge-site/pkg/logger"
	"immerseforge-site/pkg/metrics"
	"immerseforge-site/pkg/middleware"
	"immerseforge-site/pkg/services"
	"immerseforge-site/pkg/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func runServer(ctx context.Context) error {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.GinMode == gin.DebugMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.GinMode)
	m := metrics.New()

	store := content.NewStore(cfg.ContentPath, log, m.ObserveContentReload)
	if err := store.Load(); err != nil {
		return fmt.Errorf("load website content: %w", err)
	}
	if cfg.ContentWatch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				log.Error("Content watcher stopped", logger.Error(err))
			}
		}()
	}

	var ledger services.Ledger
	if cfg.SubmissionsDBPath != "" {
		db, err := storage.Open(cfg.SubmissionsDBPath)
		if err != nil {
			return fmt.Errorf("open submissions ledger: %w", err)
		}
		defer func() { _ = db.Close() }()
		ledger = db
	} else {
		log.Warn("SUBMISSIONS_DB_PATH is empty, submissions will not be recorded")
	}

	// Initialize API clients
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	formspreeClient := formspree.NewClient(cfg.FormspreeBaseURL, httpClient)

	var notionClient notion.Client
	if cfg.NotionConfigured() {
		notionClient = notion.NewClient(cfg.NotionAPIKey, cfg.NotionTalentDatabaseID,
			notion.WithBaseURL(cfg.NotionBaseURL),
			notion.WithVersion(cfg.NotionVersion),
			notion.WithHTTPClient(httpClient),
			notion.WithMaxRetries(cfg.NotionMaxRetries),
			notion.WithObserver(m.ObserveNotion),
		)
	} else {
		log.Warn("Notion is not configured, applications will only be logged")
	}

	// Initialize services
	applications := services.NewApplicationService(services.ApplicationDeps{
		Notion:          notionClient,
		Formspree:       formspreeClient,
		FormspreeFormID: cfg.FormspreeTalentFormID,
		Ledger:          ledger,
		Recorder:        m,
		Logger:          log,
	})
	contacts := services.NewContactService(formspreeClient, cfg.FormspreeContactFormID, ledger, m, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, log)
	go limiter.Cleanup(ctx)

	handlers := api.NewHandlers(applications, contacts, store, cfg.MaxUploadBytes, log)
	router := api.NewRouter(api.RouterConfig{
		Handlers:       handlers,
		Logger:         log,
		Metrics:        m,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			logger.String("addr", srv.Addr),
			logger.Bool("notion_configured", cfg.NotionConfigured()),
			logger.Bool("content_watch", cfg.ContentWatch),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
