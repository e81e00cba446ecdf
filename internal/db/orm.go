package db

import (
	"fmt"

	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/logging"
	gormModels "autobazar/listing-editor/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenORM connects GORM to the draft store and migrates its tables.
func OpenORM(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(&gormModels.EditorDraft{}); err != nil {
		return nil, fmt.Errorf("failed to migrate drafts: %w", err)
	}

	logging.Info("Connected to draft store via GORM", "driver", cfg.Driver)
	return db, nil
}
