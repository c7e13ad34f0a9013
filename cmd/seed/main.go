package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"gearbook/internal/config"
	"gearbook/internal/database"
	"gearbook/internal/domain"
	jwtsvc "gearbook/internal/pkg/jwt"
	"gearbook/internal/pkg/logging"
	"gearbook/internal/repository"
)

var demoEquipment = []domain.Equipment{
	{Name: "Sony FX6 Camera", Category: "camera", Description: "Full-frame cinema camera", TotalQty: 3},
	{Name: "Canon EF 24-70mm f/2.8", Category: "lens", TotalQty: 4},
	{Name: "Aputure 600d Light", Category: "lighting", Description: "Daylight LED with softbox", TotalQty: 6},
	{Name: "DJI RS 3 Pro Gimbal", Category: "stabilizer", TotalQty: 2},
	{Name: "Manfrotto Tripod", Category: "support", TotalQty: 8},
	{Name: "Rode NTG5 Microphone", Category: "audio", TotalQty: 5},
	{Name: "DJI Mavic 3 Drone", Category: "drone", TotalQty: 1},
}

func main() {
	company := flag.Int64("company", 1, "company id to seed")
	reset := flag.Bool("reset", false, "delete the company's bookings and equipment first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.LogLevel, true)

	tenant := domain.TenantID(*company)
	if !tenant.Valid() {
		log.Fatal().Msg("-company must be positive")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection failed")
	}

	log.Info().Msg("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	ctx := context.Background()
	tx := database.NewTxManager(db, cfg.BookingLockTimeout)
	repo := repository.NewEquipmentRepository(db)

	err = tx.Transaction(ctx, func(ctx context.Context) error {
		conn := database.Conn(ctx, db)
		if *reset {
			log.Info().Int64("company_id", *company).Msg("Cleaning old data...")
			if err := conn.Exec(`DELETE FROM booking_items WHERE booking_id IN (SELECT id FROM bookings WHERE company_id = ?)`, tenant).Error; err != nil {
				return err
			}
			if err := conn.Where("company_id = ?", tenant).Delete(&domain.Booking{}).Error; err != nil {
				return err
			}
			if err := conn.Where("company_id = ?", tenant).Delete(&domain.Equipment{}).Error; err != nil {
				return err
			}
		}

		existing, err := repo.List(ctx, tenant)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, e := range existing {
			have[e.Name] = true
		}

		for _, e := range demoEquipment {
			if have[e.Name] {
				continue
			}
			e.TenantID = tenant
			if err := repo.Create(ctx, &e); err != nil {
				return err
			}
			log.Info().Int64("equipment_id", e.ID).Str("name", e.Name).Int("total_qty", e.TotalQty).Msg("equipment created")
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(1, *company, "manager")
	if err != nil {
		log.Fatal().Err(err).Msg("token generation failed")
	}

	log.Info().Int64("company_id", *company).Msg("Seed completed")
	fmt.Printf("\nDev token for company %d (valid %s):\n%s\n", *company, cfg.JWTTTL, token)
}
