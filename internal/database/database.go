package database

import (
	"fmt"
	"time"

	"github.com/abcdjack1/todolist/internal/config"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the SQL store selected by cfg.StoreDriver.
func Connect(cfg *config.Config, l *log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=%d",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			int(cfg.DBTimeout.Seconds()),
		)
		dialector = postgres.Open(dsn)
	case config.DriverMySQL:
		// clientFoundRows makes RowsAffected count matched rows, which the
		// bulk reorder relies on.
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true&timeout=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
			cfg.DBTimeout,
		)
		dialector = mysql.Open(dsn)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, l)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL store", cfg.StoreDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewLogger(l),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l.WithField("driver", cfg.StoreDriver).Info("Database connection established")
	return db, nil
}

// OpenSQLite opens a SQLite database. An in-memory database is pinned to a
// single connection so every query sees the same schema.
func OpenSQLite(path string, l *log.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewLogger(l),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewLogger routes gorm's SQL log through logrus. Only warnings and slow
// queries are reported.
func NewLogger(l *log.Logger) logger.Interface {
	if l == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(l, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
