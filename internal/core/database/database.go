package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const driver = "pgx"

// Handles exposes the same connection pool through sqlx (identity lookups,
// health checks) and gorm (role, ownership and audit stores).
type Handles struct {
	SQLX *sqlx.DB
	Gorm *gorm.DB
}

func Open(cfg internal.DatabaseConfig) (*Handles, error) {
	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logLevel := gormlogger.Silent
	if cfg.LogQueries {
		logLevel = gormlogger.Info
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return &Handles{SQLX: dbConn, Gorm: gormDB}, nil
}

func (h *Handles) Close() error {
	slog.Debug("closing database pool")
	return h.SQLX.Close()
}
