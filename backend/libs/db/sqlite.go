package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an embedded SQLite database through gorm. The DSN is a file path or
// any DSN accepted by the pure-Go driver, e.g. "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: sqlite handle: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY under concurrent inserts.
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}
