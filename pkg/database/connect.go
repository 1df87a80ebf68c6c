package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type ConnectConfig struct {
	Driver          string
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RetryCount      int
}

func (c ConnectConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.UserName, c.Password, c.Name, c.SSLMode)
}

// Connect opens the database and pings it with fibonacci backoff until the
// retry budget is exhausted. Infrastructure failures here abort the run
// before anything has been written.
func Connect(ctx context.Context, cfg ConnectConfig, logger ectologger.Logger) (DB, error) {
	sqlxDB, err := sqlx.Open(cfg.Driver, cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	attempts := cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	a, b := 1, 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = sqlxDB.PingContext(ctx)
		if lastErr == nil {
			return NewDB(sqlxDB, logger), nil
		}

		logger.WithError(lastErr).Warnf("Database ping attempt %d/%d failed", attempt, attempts)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			sqlxDB.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	sqlxDB.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
