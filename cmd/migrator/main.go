package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/hieu03092004/CameraTrackingBE/internal/config"
	"github.com/hieu03092004/CameraTrackingBE/internal/storage/postgres"
	"github.com/hieu03092004/CameraTrackingBE/migrations"
)

func main() {
	var migrationsPath, migrationsTable string
	var down bool

	flag.StringVar(&migrationsPath, "migrations-path", "", "path to migrations, embedded migrations are used when empty")
	flag.StringVar(&migrationsTable, "migrations-table", "migrations", "name of migrations table")
	flag.BoolVar(&down, "down", false, "roll back all migrations")

	cfg := config.MustLoad()

	dsn, err := databaseURL(cfg.DB, migrationsTable)
	if err != nil {
		panic(err)
	}

	m, err := newMigrate(cfg.DB.Driver, migrationsPath, dsn)
	if err != nil {
		panic(err)
	}
	defer m.Close()

	apply := m.Up
	if down {
		apply = m.Down
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")

			return
		}

		panic(err)
	}

	fmt.Println("migrations applied successfully")
}

func databaseURL(cfg config.DB, table string) (string, error) {
	switch cfg.Driver {
	case postgres.DriverPostgres, "":
		password := os.Getenv("POSTGRES_PASSWORD")
		if password == "" {
			return "", errors.New("POSTGRES_PASSWORD is required")
		}

		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&x-migrations-table=%s",
			cfg.Username, password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode, table), nil
	case postgres.DriverSQLite:
		return fmt.Sprintf("sqlite://%s?x-migrations-table=%s", cfg.Path, table), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func newMigrate(driver, path, dsn string) (*migrate.Migrate, error) {
	if path != "" {
		return migrate.New("file://"+path, dsn)
	}

	dir := postgres.DriverPostgres
	if driver == postgres.DriverSQLite {
		dir = postgres.DriverSQLite
	}

	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", src, dsn)
}
