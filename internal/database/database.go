package database

import (
	"io"
	stdlog "log"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"gearbook/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormLogger(log.Logger)}

	if IsPostgresDSN(dsn) {
		log.Info().Msg("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Info().Str("dsn", dsn).Msg("using SQLite for local development")

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	// SQLite has no row locks; a single connection serialises transactions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// gormLogger reports slow queries and errors. Lookups that miss are
// answered as 404s by the services and are not logged.
func gormLogger(out io.Writer) logger.Interface {
	return logger.New(stdlog.New(out, "", 0), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// IsPostgresDSN accepts URL DSNs and libpq key/value DSNs
// ("host=... dbname=..."). Anything else is a SQLite path.
func IsPostgresDSN(dsn string) bool {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return true
	}
	for _, field := range strings.Fields(dsn) {
		key, _, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "host", "hostaddr", "dbname", "user", "port":
			return true
		}
	}
	return false
}

// sqliteDSN turns on foreign keys and makes the driver store timestamps in a
// lexically ordered format so range predicates compare correctly.
func sqliteDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "_pragma=busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// Migrate creates the ledger tables with their lookup indexes and
// foreign keys.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Equipment{},
		&domain.Booking{},
		&domain.BookingItem{},
	)
}
