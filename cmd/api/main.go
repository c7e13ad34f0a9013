package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gearbook/internal/config"
	"gearbook/internal/database"
	"gearbook/internal/modules/booking"
	"gearbook/internal/modules/equipment"
	jwtsvc "gearbook/internal/pkg/jwt"
	"gearbook/internal/pkg/logging"
	"gearbook/internal/repository"
	"gearbook/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.Setup(cfg.LogLevel, !cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	equipmentRepo := repository.NewEquipmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	tx := database.NewTxManager(db, cfg.BookingLockTimeout)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	bookingService := booking.NewService(bookingRepo, equipmentRepo, tx, booking.RetryPolicy{
		Attempts: cfg.BookingTxAttempts,
		Backoff:  cfg.BookingTxBackoff,
	})
	equipmentService := equipment.NewService(equipmentRepo, bookingRepo, tx)

	r := server.NewRouter(server.Deps{
		DB:          db,
		JWT:         j,
		Bookings:    booking.NewHandler(bookingService),
		Equipment:   equipment.NewHandler(equipmentService),
		Logger:      logger,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Warn().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
