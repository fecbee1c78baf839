package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type SQLStorage struct {
	Connection *gorm.DB
}

// NewSQLStorage - opens a gorm connection for the sqlite or postgres driver.
func NewSQLStorage(driver, dsn string) (*SQLStorage, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}

		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	return &SQLStorage{Connection: db}, nil
}

func (that *SQLStorage) Close() error {
	sqlDB, err := that.Connection.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}

	return sqlDB.Close()
}
