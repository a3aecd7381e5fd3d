package config

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database described by cfg.DatabaseURL and returns the
// handle. A postgres:// or postgresql:// URL selects the Postgres driver;
// anything else is treated as a SQLite file path (the default for a
// single-device deployment). The handle is passed explicitly to every
// consumer - there is no package-level database instance.
func Connect(cfg *Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}
