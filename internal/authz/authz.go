// Package authz is the authorization decision function: tenant check
// first, then role permissions unioned with ownership permissions.
//
// Decisions are computed fresh for every call and never written anywhere,
// so Authorize is safe to call speculatively.
package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/metrics"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"golang.org/x/sync/errgroup"
)

type Reason string

const (
	ReasonAllow                  Reason = "ALLOW"
	ReasonCrossTenantAccess      Reason = "CROSS_TENANT_ACCESS"
	ReasonInsufficientPermission Reason = "INSUFFICIENT_PERMISSION"
)

// Request asks whether ProfileID, acting in its home OrganizationID, may
// use Permission on data owned by TargetOrgID. An empty TargetOrgID means
// the caller's own organization.
type Request struct {
	ProfileID      string
	OrganizationID string
	TargetOrgID    string
	Permission     permission.Key
	Object         *ownership.ObjectRef
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision {
	return Decision{Allowed: true, Reason: ReasonAllow}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err maps a denial onto the error a router returns to its caller.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonCrossTenantAccess:
		return internal.ErrCrossTenantAccess
	default:
		return internal.ErrInsufficientPermission
	}
}

// Explanation is a Decision with the permission sets that produced it.
type Explanation struct {
	Decision
	BasePermissions      permission.Set
	OwnershipPermissions permission.Set
	Relationships        []ownership.Relationship
	EvaluatedAt          time.Time
}

// AuthorizationContext is the caller's effective state in one
// organization. It is built per request and never cached.
type AuthorizationContext struct {
	ProfileID            string
	OrganizationID       string
	EffectivePermissions permission.Set
	PrimaryRole          *role.Assignment
}

type PermissionResolver interface {
	ResolvePermissionsAt(ctx context.Context, scope tenant.Scope, profileID string, now time.Time) (permission.Set, error)
}

type OwnershipResolver interface {
	EffectivePermissionsFromOwnership(ctx context.Context, scope tenant.Scope, ref ownership.ObjectRef, userID string) (permission.Set, error)
	Relationships(ctx context.Context, scope tenant.Scope, ref ownership.ObjectRef, userID string) ([]ownership.Relationship, error)
}

type PrimaryRoleSource interface {
	PrimaryRoleAt(ctx context.Context, profileID string, scope tenant.Scope, now time.Time) (*role.Assignment, error)
}

type Authorizer struct {
	permissions PermissionResolver
	owners      OwnershipResolver
	roles       PrimaryRoleSource
	clock       clock.Clock
	logger      *slog.Logger
}

func NewAuthorizer(permissions PermissionResolver, owners OwnershipResolver, roles PrimaryRoleSource, clk clock.Clock, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		permissions: permissions,
		owners:      owners,
		roles:       roles,
		clock:       clk,
		logger:      logger,
	}
}

func (a *Authorizer) Authorize(ctx context.Context, req Request) (Decision, error) {
	exp, err := a.evaluate(ctx, req, false)
	if err != nil {
		return Decision{}, err
	}
	return exp.Decision, nil
}

func (a *Authorizer) Explain(ctx context.Context, req Request) (*Explanation, error) {
	return a.evaluate(ctx, req, true)
}

// Enforce returns nil on Allow and the matching AppError on Deny.
func (a *Authorizer) Enforce(ctx context.Context, req Request) error {
	d, err := a.Authorize(ctx, req)
	if err != nil {
		return err
	}
	return d.Err()
}

func (a *Authorizer) evaluate(ctx context.Context, req Request, explain bool) (*Explanation, error) {
	start := time.Now()
	now := a.clock.Now()
	exp := &Explanation{EvaluatedAt: now}

	if req.TargetOrgID != "" && tenant.Check(req.OrganizationID, req.TargetOrgID) != nil {
		a.logger.WarnContext(ctx, "cross-tenant access denied",
			"profile_id", req.ProfileID,
			"caller_organization_id", req.OrganizationID,
			"target_organization_id", req.TargetOrgID,
			"permission", req.Permission)
		exp.Decision = Deny(ReasonCrossTenantAccess)
		a.record(exp.Decision, start)
		return exp, nil
	}

	scope, err := tenant.NewScope(req.OrganizationID)
	if err != nil {
		return nil, err
	}

	var (
		base  permission.Set
		owned = permission.NewSet()
		rels  []ownership.Relationship
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = a.permissions.ResolvePermissionsAt(gctx, scope, req.ProfileID, now)
		return err
	})
	if req.Object != nil && a.owners != nil {
		ref := *req.Object
		g.Go(func() error {
			var err error
			owned, err = a.owners.EffectivePermissionsFromOwnership(gctx, scope, ref, req.ProfileID)
			return err
		})
		if explain {
			g.Go(func() error {
				var err error
				rels, err = a.owners.Relationships(gctx, scope, ref, req.ProfileID)
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "authorization inputs could not be resolved", "profile_id", req.ProfileID, "error", err)
		return nil, err
	}

	exp.BasePermissions = base
	exp.OwnershipPermissions = owned
	exp.Relationships = rels
	if base.Union(owned).Has(req.Permission) {
		exp.Decision = Allow()
	} else {
		exp.Decision = Deny(ReasonInsufficientPermission)
		a.logger.DebugContext(ctx, "permission denied",
			"profile_id", req.ProfileID,
			"organization_id", req.OrganizationID,
			"permission", req.Permission)
	}
	a.record(exp.Decision, start)
	return exp, nil
}

func (a *Authorizer) record(d Decision, start time.Time) {
	metrics.AuthzDecisions.WithLabelValues(string(d.Reason)).Inc()
	metrics.AuthzDecisionDuration.Observe(time.Since(start).Seconds())
}

// BuildContext resolves the caller's effective permissions and primary
// role in scope's organization.
func (a *Authorizer) BuildContext(ctx context.Context, scope tenant.Scope, profileID string) (*AuthorizationContext, error) {
	now := a.clock.Now()
	out := &AuthorizationContext{ProfileID: profileID, OrganizationID: scope.OrganizationID()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.EffectivePermissions, err = a.permissions.ResolvePermissionsAt(gctx, scope, profileID, now)
		return err
	})
	g.Go(func() error {
		var err error
		out.PrimaryRole, err = a.roles.PrimaryRoleAt(gctx, profileID, scope, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
