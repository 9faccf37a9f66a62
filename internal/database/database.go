package database

import (
	"soulcertify-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB. A postgres:// DSN uses the Postgres driver with
// PreferSimpleProtocol to avoid 42P05 ("prepared statement already exists")
// behind connection poolers (PgBouncer, Supabase, Render). Any other DSN is
// treated as a sqlite path, used for local development.
func Open(dsn string) (*gorm.DB, error) {
	if isPostgres(dsn) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

func isPostgres(dsn string) bool {
	return len(dsn) > 11 && (dsn[:11] == "postgres://" || (len(dsn) > 13 && dsn[:13] == "postgresql://"))
}

// AutoMigrate runs migrations for the ledger and request queue tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Certificate{}, &models.CertificateRequest{})
}
