package role

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/common/validation"
	"github.com/frahmantamala/workforce-authz/internal/core/conflict"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ids"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

// AssignmentRepositoryAPI returns nil, nil for lookups that match nothing.
type AssignmentRepositoryAPI interface {
	ListActive(ctx context.Context, profileID string, filter tenant.Filter, now time.Time) ([]*roleDatamodel.RoleAssignment, error)
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*roleDatamodel.RoleAssignment, error)
	// Grant inserts row; when row.IsPrimary it demotes the user's other
	// primary in the same organization within the same transaction.
	Grant(ctx context.Context, row *roleDatamodel.RoleAssignment) error
	// Expire sets expires_at = at unless the assignment already expires at
	// or before at. It reports whether a row changed.
	Expire(ctx context.Context, scope tenant.Scope, id string, at time.Time) (bool, error)
}

type ProfileLookup interface {
	ProfileInScope(ctx context.Context, scope tenant.Scope, profileID string) (*identity.Profile, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      AssignmentRepositoryAPI
	catalog   CatalogRepositoryAPI
	profiles  ProfileLookup
	publisher EventPublisher
	clock     clock.Clock
	retry     conflict.Policy
	logger    *slog.Logger
}

func NewService(repo AssignmentRepositoryAPI, catalog CatalogRepositoryAPI, profiles ProfileLookup, publisher EventPublisher, clk clock.Clock, retry conflict.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		profiles:  profiles,
		publisher: publisher,
		clock:     clk,
		retry:     retry,
		logger:    logger,
	}
}

// ListActiveRoles returns the profile's active assignments, primary first
// then most recently granted.
func (s *Service) ListActiveRoles(ctx context.Context, profileID string, filter tenant.Filter) ([]*Assignment, error) {
	return s.ListActiveRolesAt(ctx, profileID, filter, s.clock.Now())
}

func (s *Service) ListActiveRolesAt(ctx context.Context, profileID string, filter tenant.Filter, now time.Time) ([]*Assignment, error) {
	if !filter.Valid() {
		return nil, internal.ErrMissingTenantFilter
	}
	rows, err := s.repo.ListActive(ctx, profileID, filter, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list active role assignments", "profile_id", profileID, "error", err)
		return nil, err
	}
	assignments := make([]*Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, AssignmentFromDataModel(row))
	}
	return assignments, nil
}

// ListProfileRoles lists the active assignments of a profile that must
// belong to scope's organization.
func (s *Service) ListProfileRoles(ctx context.Context, scope tenant.Scope, profileID string) ([]*Assignment, error) {
	if _, err := s.profiles.ProfileInScope(ctx, scope, profileID); err != nil {
		return nil, err
	}
	return s.ListActiveRoles(ctx, profileID, tenant.In(scope))
}

// GetPrimaryRole returns the single active primary assignment, or nil.
func (s *Service) GetPrimaryRole(ctx context.Context, profileID string, filter tenant.Filter) (*Assignment, error) {
	return s.primaryRoleAt(ctx, profileID, filter, s.clock.Now())
}

func (s *Service) PrimaryRoleAt(ctx context.Context, profileID string, scope tenant.Scope, now time.Time) (*Assignment, error) {
	return s.primaryRoleAt(ctx, profileID, tenant.In(scope), now)
}

func (s *Service) primaryRoleAt(ctx context.Context, profileID string, filter tenant.Filter, now time.Time) (*Assignment, error) {
	assignments, err := s.ListActiveRolesAt(ctx, profileID, filter, now)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.IsPrimary {
			return a, nil
		}
	}
	return nil, nil
}

// ActiveRoleIDs lets the permission resolver read assignments at its own
// clock snapshot.
func (s *Service) ActiveRoleIDs(ctx context.Context, profileID string, scope tenant.Scope, now time.Time) ([]string, error) {
	assignments, err := s.ListActiveRolesAt(ctx, profileID, tenant.In(scope), now)
	if err != nil {
		return nil, err
	}
	roleIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		roleIDs = append(roleIDs, a.RoleID)
	}
	return roleIDs, nil
}

func (s *Service) PermissionKeys(ctx context.Context, roleIDs []string) ([]permission.Key, error) {
	raw, err := s.catalog.PermissionKeysForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	keys := make([]permission.Key, len(raw))
	for i, k := range raw {
		keys[i] = permission.Key(k)
	}
	return keys, nil
}

func (s *Service) Grant(ctx context.Context, scope tenant.Scope, req GrantRequest) (*Assignment, error) {
	v := validation.NewValidator()
	v.Field("profile_id", req.ProfileID).Required()
	v.Field("role_id", req.RoleID).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, internal.ErrInvalidExpiry.WithDetails(internal.ValidationErrors{
			Errors: []internal.ValidationError{{
				Field:   "expires_at",
				Message: "expires_at must be later than the current time",
				Code:    string(internal.ErrCodeInvalidExpiry),
			}},
		})
	}

	roleRow, err := s.catalog.GetRoleByID(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if roleRow == nil || roleRow.DeletedAt != nil {
		return nil, internal.ErrRoleNotFound
	}

	if _, err := s.profiles.ProfileInScope(ctx, scope, req.ProfileID); err != nil {
		return nil, err
	}

	assignment := &Assignment{
		UserID:         req.ProfileID,
		RoleID:         req.RoleID,
		RoleName:       roleRow.Name,
		OrganizationID: scope.OrganizationID(),
		IsPrimary:      req.IsPrimary,
		GrantedAt:      now,
		GrantedBy:      req.GrantedBy,
		ExpiresAt:      req.ExpiresAt,
	}

	err = s.retry.Do(ctx, "role.grant", func(ctx context.Context) error {
		assignment.ID = ids.New()
		return s.repo.Grant(ctx, assignment.ToDataModel())
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to grant role",
			"profile_id", req.ProfileID,
			"role_id", req.RoleID,
			"organization_id", scope.OrganizationID(),
			"error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "role granted",
		"assignment_id", assignment.ID,
		"profile_id", assignment.UserID,
		"role", assignment.RoleName,
		"organization_id", assignment.OrganizationID,
		"is_primary", assignment.IsPrimary)

	s.publish(ctx, events.NewRoleGrantedEvent(scope.OrganizationID(), req.GrantedBy, assignment.ID, assignment.UserID, assignment.RoleID, assignment.IsPrimary, assignment.ExpiresAt))
	return assignment, nil
}

// Revoke ends an assignment at the given instant (now when at is zero).
// Revoking an already expired assignment is a no-op.
func (s *Service) Revoke(ctx context.Context, scope tenant.Scope, assignmentID string, at time.Time, actorID string) error {
	if at.IsZero() {
		at = s.clock.Now()
	}

	row, err := s.repo.GetByID(ctx, scope, assignmentID)
	if err != nil {
		return err
	}
	if row == nil {
		return internal.ErrResourceNotFound
	}
	if !AssignmentFromDataModel(row).IsActiveAt(at) {
		s.logger.DebugContext(ctx, "role assignment already expired", "assignment_id", assignmentID)
		return nil
	}

	changed, err := s.repo.Expire(ctx, scope, assignmentID, at)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke role assignment", "assignment_id", assignmentID, "error", err)
		return err
	}
	if !changed {
		s.logger.DebugContext(ctx, "role assignment already expired", "assignment_id", assignmentID)
		return nil
	}

	s.logger.InfoContext(ctx, "role revoked", "assignment_id", assignmentID, "profile_id", row.UserID, "expires_at", at)
	s.publish(ctx, events.NewRoleRevokedEvent(scope.OrganizationID(), actorID, assignmentID, row.UserID, at))
	return nil
}

// publish reports audit failures without failing a mutation that has
// already committed.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event", "event_type", event.EventType(), "error", err)
	}
}
