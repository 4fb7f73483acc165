// Package migrations embeds the goose SQL migrations for the service schema.
package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

const (
	Dir       = "sql"
	TableName = "schema_migrations"
)

//go:embed sql/*.sql
var FS embed.FS

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	if err := configure(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, Dir)
}

// Down rolls back the latest migration.
func Down(ctx context.Context, db *sql.DB, dialect string) error {
	if err := configure(dialect); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, Dir)
}

func configure(dialect string) error {
	goose.SetBaseFS(FS)
	goose.SetTableName(TableName)
	return goose.SetDialect(dialect)
}
