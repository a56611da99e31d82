package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
)

const (
	CamerasTable      = "cameras"
	SchedulesTable    = "schedule_times"
	QRCodesTable      = "qr_codes"
	MeasurementsTable = "measurements"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

func New(cfg config.DB) (*sqlx.DB, error) {
	const op = "storage.postgres.New"

	var dsn string

	switch cfg.Driver {
	case DriverPostgres, "":
		cfg.Driver = DriverPostgres
		dsn = fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.DBName, cfg.Password, cfg.SSLMode)
	case DriverSQLite:
		dsn = cfg.Path
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Driver)
	}

	db, err := Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, nil
}

func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

// Conn checks out a dedicated connection for a single gateway call.
// The caller must close it.
func Conn(ctx context.Context, db *sqlx.DB) (*sqlx.Conn, error) {
	return db.Connx(ctx)
}
