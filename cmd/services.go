package cmd

import (
	"log/slog"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/audit"
	auditPostgres "github.com/frahmantamala/workforce-authz/internal/audit/postgres"
	"github.com/frahmantamala/workforce-authz/internal/authz"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/conflict"
	"github.com/frahmantamala/workforce-authz/internal/core/database"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	identityPostgres "github.com/frahmantamala/workforce-authz/internal/identity/postgres"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	ownershipPostgres "github.com/frahmantamala/workforce-authz/internal/ownership/postgres"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/role"
	rolePostgres "github.com/frahmantamala/workforce-authz/internal/role/postgres"
)

// Services is the wired domain layer shared by the server and the seeder.
type Services struct {
	Bus        *events.EventBus
	Identity   *identity.Service
	Catalog    *role.CatalogService
	Roles      *role.Service
	Ownership  *ownership.Service
	Audit      *audit.Service
	Authorizer *authz.Authorizer
}

func buildServices(cfg *internal.Config, db *database.Handles, logger *slog.Logger) *Services {
	clk := clock.System{}
	bus := events.NewEventBus(logger)
	retry := conflict.NewPolicy(cfg.Authz.ConflictRetries, cfg.Authz.ConflictBackoff, logger)

	identityService := identity.NewService(identityPostgres.NewIdentityRepository(db.SQLX), cfg.Authz.LegacyIdentityFallback, logger)

	catalogRepo := rolePostgres.NewCatalogRepository(db.Gorm)
	catalog := role.NewCatalogService(catalogRepo, bus, clk, logger)
	roles := role.NewService(rolePostgres.NewAssignmentRepository(db.Gorm), catalogRepo, identityService, bus, clk, retry, logger)
	owners := ownership.NewService(ownershipPostgres.NewOwnershipRepository(db.Gorm), identityService, bus, clk, retry, logger)

	auditService := audit.NewService(auditPostgres.NewAuditRepository(db.Gorm), logger)
	auditService.Subscribe(bus)

	resolver := permission.NewResolver(roles, clk, logger)
	return &Services{
		Bus:        bus,
		Identity:   identityService,
		Catalog:    catalog,
		Roles:      roles,
		Ownership:  owners,
		Audit:      auditService,
		Authorizer: authz.NewAuthorizer(resolver, owners, roles, clk, logger),
	}
}
