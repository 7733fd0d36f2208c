package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	paymentsdomain "github.com/inkpress/inkpress/internal/payments/domain"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"gorm.io/gorm"
)

// This migration package makes a self-hosted publication usable out
// of the box. All catalog and membership tables are created
// automatically on startup.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate covers the non-postgres dialects, where the embedded
// migration set does not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&tierdomain.Tier{},
		&offerdomain.Offer{},
		&memberdomain.Member{},
		&paymentsdomain.CustomerLink{},
		&paymentsdomain.ProductLink{},
		&paymentsdomain.PriceLink{},
	)
}
