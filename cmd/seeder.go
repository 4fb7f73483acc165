package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/workforce-authz/internal/core/database"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedOrgID          string
	seedAdminProfileID string
	seedAdminAuthID    string
	seedAdminEmail     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the system catalog and bootstrap an organization",
	Long: `Create the platform permissions and system roles. With --org, also make
--admin-profile the primary admin of that organization, creating the profile
when it does not exist yet. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		svc := buildServices(cfg, db, lg)

		roleIDs, err := svc.Catalog.EnsureSystemCatalog(ctx)
		if err != nil {
			log.Fatalf("failed to seed system catalog: %v", err)
		}
		fmt.Printf("System catalog ready (%d roles)\n", len(roleIDs))

		if seedOrgID == "" {
			return
		}
		if seedAdminProfileID == "" {
			log.Fatal("--admin-profile is required with --org")
		}
		scope, err := tenant.NewScope(seedOrgID)
		if err != nil {
			log.Fatalf("invalid organization: %v", err)
		}
		if _, err := svc.Identity.EnsureProfile(ctx, scope, seedAdminProfileID, seedAdminAuthID, seedAdminEmail); err != nil {
			log.Fatalf("failed to ensure admin profile: %v", err)
		}
		assignment, err := role.BootstrapOrganization(ctx, svc.Catalog, svc.Roles, scope, seedAdminProfileID)
		if err != nil {
			log.Fatalf("failed to bootstrap organization: %v", err)
		}
		fmt.Printf("Organization %s bootstrapped: %s is %s (assignment %s)\n",
			seedOrgID, seedAdminProfileID, role.RoleAdmin, assignment.ID)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOrgID, "org", "", "organization to bootstrap")
	seedCmd.Flags().StringVar(&seedAdminProfileID, "admin-profile", "", "profile id of the first administrator")
	seedCmd.Flags().StringVar(&seedAdminAuthID, "admin-auth-id", "", "auth provider id of the administrator")
	seedCmd.Flags().StringVar(&seedAdminEmail, "email", "", "administrator email")
}
