package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

// Open connects to the SQLite database at path and migrates the schema.
// An empty path opens a private in-memory database.
func Open(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if path == "" {
		path = memoryPath
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// every new connection to :memory: is a fresh empty database
	if path == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&recipeModel{}, &ingredientModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
