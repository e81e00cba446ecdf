package db

import (
	"fmt"
	"time"

	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects sqlx to the audit database, retrying while the server comes
// up, and creates the submission log table.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := "sqlite3"
	schema := constants.CreateSubmissionLogsSQLite
	attempts := 1
	if cfg.Driver == "postgres" {
		driver = "postgres"
		schema = constants.CreateSubmissionLogsPostgres
		attempts = 10
	}

	var (
		db  *sqlx.DB
		err error
	)
	for i := 0; i < attempts; i++ {
		db, err = sqlx.Connect(driver, cfg.DSN)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// sqlite3 allows one writer at a time.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create submission_logs: %w", err)
	}

	logging.Info("Connected to audit log", "driver", driver)
	return db, nil
}
