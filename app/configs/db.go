package configs

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	maxRetries = 10
	retryDelay = 5 * time.Second
)

// DSN builds the MySQL connection string. clientFoundRows makes a guarded
// UPDATE report matched rows even when it changes nothing, which the
// product revision check relies on.
func (e ENV) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		e.DBUser,
		e.DBPassword,
		e.DBHost,
		e.DBPort,
		e.DBName,
	)
}

func OpenConnection(env ENV, logger *slog.Logger) (*gorm.DB, error) {
	return OpenDSN(env.DSN(), logger)
}

func OpenDSN(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		logger.Info("connecting to database", "attempt", i+1, "max_attempts", maxRetries)
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			sqlDB, pingErr := db.DB()
			if pingErr == nil {
				pingErr = sqlDB.Ping()
				if pingErr == nil {
					sqlDB.SetMaxOpenConns(25)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					logger.Info("database connection established")
					return db, nil
				}
			}
			err = pingErr
		}

		lastErr = err
		logger.Warn("database not ready, retrying", "error", err, "retry_in", retryDelay)
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to the database after %d retries: %w", maxRetries, lastErr)
}
