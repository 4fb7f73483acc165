package permission

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

// RoleSource is the slice of the role assignment store the resolver needs.
type RoleSource interface {
	ActiveRoleIDs(ctx context.Context, profileID string, scope tenant.Scope, now time.Time) ([]string, error)
	PermissionKeys(ctx context.Context, roleIDs []string) ([]Key, error)
}

type Resolver struct {
	roles  RoleSource
	clock  clock.Clock
	logger *slog.Logger
}

func NewResolver(roles RoleSource, clk clock.Clock, logger *slog.Logger) *Resolver {
	return &Resolver{roles: roles, clock: clk, logger: logger}
}

// ResolvePermissions is the union of the permissions of every role the
// profile holds in scope's organization that is active at a single
// snapshot of the clock. Roles in other organizations are filtered out by
// the store, not here.
func (r *Resolver) ResolvePermissions(ctx context.Context, scope tenant.Scope, profileID string) (Set, error) {
	return r.ResolvePermissionsAt(ctx, scope, profileID, r.clock.Now())
}

func (r *Resolver) ResolvePermissionsAt(ctx context.Context, scope tenant.Scope, profileID string, now time.Time) (Set, error) {
	roleIDs, err := r.roles.ActiveRoleIDs(ctx, profileID, scope, now)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list active roles", "profile_id", profileID, "organization_id", scope.OrganizationID(), "error", err)
		return nil, err
	}
	if len(roleIDs) == 0 {
		return NewSet(), nil
	}

	keys, err := r.roles.PermissionKeys(ctx, roleIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load role permissions", "role_ids", roleIDs, "error", err)
		return nil, err
	}

	r.logger.DebugContext(ctx, "resolved permissions",
		"profile_id", profileID,
		"organization_id", scope.OrganizationID(),
		"roles", len(roleIDs),
		"permissions", len(keys))
	return NewSet(keys...), nil
}
