package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/costs"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/publish"
	"github.com/ukydev/fleet-maintenance/internal/report"
)

// newHandler assembles the service around an already opened store.
// publisher may be nil.
func newHandler(cfg *config.Config, store db.ReportStore, publisher publish.Publisher) http.Handler {
	var costSource costs.Source
	if cfg.CostServiceURL != "" {
		costSource = costs.NewClient(cfg.CostServiceURL, cfg.CostTimeout)
	} else {
		log.Warn("COST_SERVICE_URL not set, reports will carry no cost figures")
	}

	assembler := report.NewAssembler(store, costSource, cfg.Engine, cfg.Workers, cfg.CostTimeout)
	limiter := middleware.NewRateLimitMiddleware(cfg.RateLimitPerSec, cfg.RateLimitBurst)
	router := handlers.NewRouter(
		handlers.NewReportHandler(assembler, publisher),
		mux.MiddlewareFunc(middleware.RequestLogger),
		mux.MiddlewareFunc(limiter.RateLimit),
	)
	return gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(log.StandardLogger()),
		gorillahandlers.PrintRecoveryStack(true),
	)(router)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogging()

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewCachedStore(db.NewMongoStore(client.Database(cfg.MongoDB)), cfg.CatalogCacheTTL)

	var publisher publish.Publisher
	if cfg.MQTTBroker != "" {
		mqttClient, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, reports will not be published")
		} else {
			defer mqttClient.Disconnect(250)
			publisher = publish.NewMQTTPublisher(mqttClient, cfg.MQTTTopic)
			log.WithFields(log.Fields{"broker": cfg.MQTTBroker, "topic": cfg.MQTTTopic}).Info("Publishing reports over MQTT")
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, store, publisher),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("Shutdown signal received, stopping services...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown")
	}
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("MongoDB disconnect")
	}
	log.Info("Server gracefully stopped")
}
