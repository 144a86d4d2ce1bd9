package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/catalog"
	"github.com/eventdesk/eventdesk/internal/comments"
	"github.com/eventdesk/eventdesk/internal/config"
	"github.com/eventdesk/eventdesk/internal/feedback"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/reconcile"
	"github.com/eventdesk/eventdesk/internal/registration"
	"github.com/eventdesk/eventdesk/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "eventdesk-app")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()
	observability.InitMetrics()

	api := apiclient.New(cfg.BackendBaseURL, cfg.RequestTimeout, logger)
	store := catalog.NewStore(api, logger)
	coordinator := registration.NewCoordinator(api, cfg.PublicBaseURL+"/registered-events", logger)
	reconciler := reconcile.New(api, logger)
	commentSub := comments.NewSubmitter(api)
	feedbackSub := feedback.NewSubmitter(api)

	// Warm the catalog; a cold backend is not fatal, views re-fetch on demand.
	if _, err := store.LoadAll(context.Background()); err != nil {
		logger.Warn("initial catalog load failed: ", err)
	}

	handlers := web.NewHandlers(api, store, coordinator, reconciler, commentSub, feedbackSub, logger)
	r := web.SetupRouter(handlers, logger)

	srv := &http.Server{
		Addr:    cfg.AppAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
