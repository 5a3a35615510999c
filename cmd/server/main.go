package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/config"
	"roomBookingManagement/internal/db"
	grpcserver "roomBookingManagement/internal/grpc"
	"roomBookingManagement/internal/logger"
	"roomBookingManagement/internal/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		logger.New("info", os.Stderr).Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log.Level, os.Stderr)
	log.Infof("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Error("close db")
		}
	}()

	svc := app.NewFromDB(d, log)
	if err := svc.EnsureSuperAdmin(context.Background(), cfg.Auth.SuperAdminPassword); err != nil {
		log.Fatalf("seed super admin: %v", err)
	}

	provider, err := archive.New(cfg.Archive)
	if err != nil {
		log.WithError(err).Warn("archive disabled")
	}

	// Metrics endpoint
	var metricsSrv *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		log.WithField("addr", cfg.Metrics.Address).Info("metrics endpoint listening")
	}

	// Start gRPC
	shutdown, err := grpcserver.StartGRPC(cfg, svc, provider, log)
	if err != nil {
		log.Fatalf("start grpc: %v", err)
	}

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.WithError(err).Error("grpc shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("metrics shutdown")
		}
	}
}
