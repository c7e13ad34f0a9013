package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"gearbook/internal/config"
	"gearbook/internal/database"
	"gearbook/internal/domain"
	"gearbook/internal/modules/booking"
	"gearbook/internal/pkg/logging"
	"gearbook/internal/repository"
)

// ledger_audit recomputes peak usage per equipment for one company and
// exits with status 1 when any item is booked beyond its total quantity.
func main() {
	company := flag.Int64("company", 0, "company id to audit")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.LogLevel, !cfg.IsProduction())

	tenant := domain.TenantID(*company)
	if !tenant.Valid() {
		log.Fatal().Msg("-company is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	svc := booking.NewService(
		repository.NewBookingRepository(db),
		repository.NewEquipmentRepository(db),
		database.NewTxManager(db, cfg.BookingLockTimeout),
		booking.RetryPolicy{Attempts: cfg.BookingTxAttempts, Backoff: cfg.BookingTxBackoff},
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := svc.AuditLedger(ctx, tenant)
	if err != nil {
		log.Fatal().Err(err).Msg("ledger audit failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("write report")
	}

	for _, u := range report.Equipment {
		if u.Oversold {
			log.Error().
				Int64("equipment_id", u.EquipmentID).
				Str("name", u.EquipmentName).
				Int("total_qty", u.TotalQty).
				Int("peak_qty", u.PeakQty).
				Time("peak_at", u.PeakAt).
				Msg("equipment oversold")
		}
	}

	log.Info().Int64("company_id", *company).Int("equipment", len(report.Equipment)).Int("violations", report.Violations).Msg("ledger audit completed")
	if report.Violations > 0 {
		os.Exit(1)
	}
}
