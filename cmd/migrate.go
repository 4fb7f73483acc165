package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/workforce-authz/internal/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the embedded SQL migrations",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()

	if migrateRollback {
		if err := migrations.Down(ctx, db, "postgres"); err != nil {
			log.Fatalf("goose down: %v", err)
		}
		return nil
	}
	if err := migrations.Up(ctx, db, "postgres"); err != nil {
		log.Fatalf("goose up: %v", err)
	}
	return nil
}
