package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/config"
	"roomBookingManagement/internal/console"
	"roomBookingManagement/internal/db"
	"roomBookingManagement/internal/logger"
)

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		logger.New("info", os.Stderr).Fatalf("load config: %v", err)
	}
	// Console output goes to stdout; keep logs on stderr and quieter by default.
	level := cfg.Log.Level
	if level == "info" {
		level = "warn"
	}
	log := logger.New(level, os.Stderr)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := console.New(svc, provider, os.Stdin, os.Stdout, log).Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("console stopped")
	}
}
