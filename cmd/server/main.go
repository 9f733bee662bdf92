package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigil-ops/vigil-backend-go/internal/api"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/providers"
	"github.com/vigil-ops/vigil-backend-go/internal/notifier"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
	"github.com/vigil-ops/vigil-backend-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// Rule and template catalog
	templates := alerting.NewTemplateStore(nil)
	var rules []alerting.AlertRule
	if catalog, err := config.LoadCatalog(cfg.Monitoring.RulesPath); err != nil {
		log.WithError(err).Warn("Failed to load rule catalog, starting with no rules")
	} else {
		rules, err = catalog.AlertRules()
		if err != nil {
			log.Fatal("Invalid rule catalog: ", err)
		}
		for _, tpl := range catalog.AlertTemplates() {
			templates.Add(tpl)
		}
	}

	// WebSocket hub backs the in-app and dashboard channels
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Snapshot providers
	systemProvider := providers.NewSystemProvider(log, cfg.Monitoring.DiskPath)
	platformProvider := providers.NewPlatformProvider("platform")

	// External communication collaborator
	var sender alerting.ExternalSender
	if cfg.Notifier.WebhookURL != "" {
		sender = notifier.NewWebhookSender(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout, log)
	} else {
		log.Info("No webhook URL configured, external notifications use the internal sink")
	}

	engine := alerting.NewEngine(alerting.Options{
		EvaluationInterval: cfg.Monitoring.EvaluationInterval,
		EscalationInterval: cfg.Monitoring.EscalationInterval,
		SnapshotTimeout:    cfg.Monitoring.SnapshotTimeout,
		NotifyTimeout:      cfg.Notifier.Timeout,
		Retention:          cfg.Monitoring.Retention,
	}, []alerting.SnapshotProvider{systemProvider, platformProvider}, templates, sender, wsHub, log)

	for _, rule := range rules {
		if _, err := engine.Scheduler.AddRule(rule); err != nil {
			log.WithError(err).Warn("Skipping invalid rule")
		}
	}

	engine.StartMonitoring()

	router := api.NewRouter(cfg, engine, platformProvider, wsHub, log)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed: ", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	engine.StopMonitoring()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	log.Info("Server exited")
}
