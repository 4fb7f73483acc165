package role

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/common/validation"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/ids"
	"github.com/frahmantamala/workforce-authz/internal/permission"
)

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CatalogRepositoryAPI stores the global role and permission catalog.
// Lookups that match nothing return nil, nil.
type CatalogRepositoryAPI interface {
	ListRoles(ctx context.Context, includeDeleted bool) ([]*roleDatamodel.Role, error)
	GetRoleByID(ctx context.Context, id string) (*roleDatamodel.Role, error)
	GetRoleByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	// CreateRole inserts the role together with its grants, atomically.
	CreateRole(ctx context.Context, row *roleDatamodel.Role, permissionIDs []string) error
	UpdateRole(ctx context.Context, row *roleDatamodel.Role) error
	SoftDeleteRole(ctx context.Context, id string, at time.Time) error

	ListPermissions(ctx context.Context) ([]*roleDatamodel.Permission, error)
	GetPermissionsByKeys(ctx context.Context, keys []string) ([]*roleDatamodel.Permission, error)
	CreatePermission(ctx context.Context, row *roleDatamodel.Permission) error

	// ReplaceRolePermissions swaps the role's grants for permissionIDs in
	// one transaction.
	ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	RolePermissionKeys(ctx context.Context, roleID string) ([]string, error)
	// PermissionKeysForRoles returns the distinct keys granted to any of
	// the live roles in roleIDs.
	PermissionKeysForRoles(ctx context.Context, roleIDs []string) ([]string, error)
}

type CreateRoleRequest struct {
	Name        string
	Category    string
	Description string
	Permissions []string
	ActorID     string
}

type UpdateRoleRequest struct {
	Name        *string
	Category    *string
	Description *string
	ActorID     string
}

// MatrixRow lists, for one role, which of a resource's actions it grants.
type MatrixRow struct {
	RoleID   string
	RoleName string
	Actions  map[string]bool
}

type Matrix struct {
	Resource string
	Actions  []string
	Rows     []MatrixRow
}

// PermissionDiff places one catalog permission against two roles.
type PermissionDiff struct {
	Key permission.Key
	InA bool
	InB bool
}

func (d PermissionDiff) Different() bool {
	return d.InA != d.InB
}

type RoleComparison struct {
	A           *Role
	B           *Role
	Permissions []PermissionDiff
}

// Differences returns the rows granted by exactly one of the roles.
func (c *RoleComparison) Differences() []PermissionDiff {
	out := []PermissionDiff{}
	for _, d := range c.Permissions {
		if d.Different() {
			out = append(out, d)
		}
	}
	return out
}

type CatalogService struct {
	repo      CatalogRepositoryAPI
	publisher EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewCatalogService(repo CatalogRepositoryAPI, publisher EventPublisher, clk clock.Clock, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (s *CatalogService) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.ListRoles(ctx, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list roles", "error", err)
		return nil, err
	}
	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		keys, err := s.repo.RolePermissionKeys(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		roles = append(roles, RoleFromDataModel(row, keys))
	}
	return roles, nil
}

func (s *CatalogService) GetRole(ctx context.Context, id string) (*Role, error) {
	row, err := s.liveRole(ctx, id)
	if err != nil {
		return nil, err
	}
	keys, err := s.repo.RolePermissionKeys(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return RoleFromDataModel(row, keys), nil
}

func (s *CatalogService) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	v := validation.NewValidator()
	v.Field("name", req.Name).Required().MaxLength(64).Matches(roleNamePattern, "must be lowercase letters, digits or underscores")
	v.Field("description", req.Description).MaxLength(255)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetRoleByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, internal.ErrDuplicateRole
	}

	perms, err := s.lookupPermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{
		ID:          ids.New(),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	}
	if err := s.repo.CreateRole(ctx, row, permissionIDs(perms)); err != nil {
		s.logger.ErrorContext(ctx, "failed to create role", "name", req.Name, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "role created", "role_id", row.ID, "name", row.Name, "permissions", len(perms))
	s.publish(ctx, events.NewRoleCatalogEvent(events.EventTypeRoleCreated, req.ActorID, row.ID, map[string]interface{}{
		"name":        row.Name,
		"permissions": permissionKeys(perms),
	}))
	return RoleFromDataModel(row, permissionKeys(perms)), nil
}

func (s *CatalogService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error) {
	row, err := s.liveRole(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil && *req.Name != row.Name {
		if row.IsSystemRole {
			return nil, internal.ErrSystemRoleImmutable
		}
		v := validation.NewValidator()
		v.Field("name", *req.Name).Required().MaxLength(64).Matches(roleNamePattern, "must be lowercase letters, digits or underscores")
		if err := v.Validate(); err != nil {
			return nil, err
		}
		clash, err := s.repo.GetRoleByName(ctx, *req.Name)
		if err != nil {
			return nil, err
		}
		if clash != nil {
			return nil, internal.ErrDuplicateRole
		}
		changes["name"] = map[string]string{"from": row.Name, "to": *req.Name}
		row.Name = *req.Name
	}
	if req.Category != nil {
		row.Category = *req.Category
		changes["category"] = *req.Category
	}
	if req.Description != nil {
		row.Description = *req.Description
		changes["description"] = *req.Description
	}

	if len(changes) > 0 {
		if err := s.repo.UpdateRole(ctx, row); err != nil {
			s.logger.ErrorContext(ctx, "failed to update role", "role_id", id, "error", err)
			return nil, err
		}
		s.publish(ctx, events.NewRoleCatalogEvent(events.EventTypeRoleUpdated, req.ActorID, row.ID, changes))
	}

	keys, err := s.repo.RolePermissionKeys(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return RoleFromDataModel(row, keys), nil
}

// DeleteRole soft-deletes a custom role. Assignments that reference it stop
// contributing permissions immediately.
func (s *CatalogService) DeleteRole(ctx context.Context, id, actorID string) error {
	row, err := s.liveRole(ctx, id)
	if err != nil {
		return err
	}
	if row.IsSystemRole {
		return internal.ErrSystemRoleImmutable
	}
	if err := s.repo.SoftDeleteRole(ctx, id, s.clock.Now()); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete role", "role_id", id, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "role deleted", "role_id", id, "name", row.Name)
	s.publish(ctx, events.NewRoleCatalogEvent(events.EventTypeRoleDeleted, actorID, id, map[string]interface{}{"name": row.Name}))
	return nil
}

// SetRolePermissions replaces the role's permission set. Every key must
// already exist in the catalog.
func (s *CatalogService) SetRolePermissions(ctx context.Context, id string, keys []string, actorID string) (*Role, error) {
	row, err := s.liveRole(ctx, id)
	if err != nil {
		return nil, err
	}
	before, err := s.repo.RolePermissionKeys(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.lookupPermissions(ctx, keys)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRolePermissions(ctx, id, permissionIDs(perms)); err != nil {
		s.logger.ErrorContext(ctx, "failed to replace role permissions", "role_id", id, "error", err)
		return nil, err
	}

	after := permissionKeys(perms)
	oldSet := permission.FromStrings(before)
	newSet := permission.FromStrings(after)
	added, removed := []string{}, []string{}
	for _, k := range newSet.Strings() {
		if !oldSet.Has(permission.Key(k)) {
			added = append(added, k)
		}
	}
	for _, k := range oldSet.Strings() {
		if !newSet.Has(permission.Key(k)) {
			removed = append(removed, k)
		}
	}

	s.logger.InfoContext(ctx, "role permissions replaced", "role_id", id, "added", len(added), "removed", len(removed))
	s.publish(ctx, events.NewRoleCatalogEvent(events.EventTypeRolePermissionsChanged, actorID, id, map[string]interface{}{
		"added":   added,
		"removed": removed,
	}))
	return RoleFromDataModel(row, after), nil
}

func (s *CatalogService) ListPermissions(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.ListPermissions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list permissions", "error", err)
		return nil, err
	}
	perms := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, PermissionFromDataModel(row))
	}
	return perms, nil
}

func (s *CatalogService) CreatePermission(ctx context.Context, rawKey, description, actorID string) (*Permission, error) {
	key, err := permission.ParseKey(rawKey)
	if err != nil {
		return nil, err
	}
	row := &roleDatamodel.Permission{
		ID:          ids.New(),
		Key:         key.String(),
		Description: description,
	}
	if err := s.repo.CreatePermission(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create permission", "key", rawKey, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "permission created", "permission_id", row.ID, "key", row.Key)
	s.publish(ctx, events.NewPermissionCreatedEvent(actorID, row.ID, row.Key))
	return PermissionFromDataModel(row), nil
}

// Matrix reports, for every live role, which actions on resource it
// grants. Actions are taken from the catalog keys under that resource.
func (s *CatalogService) Matrix(ctx context.Context, resource string) (*Matrix, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	actionSet := map[string]struct{}{}
	for _, p := range perms {
		key := permission.Key(p.Key)
		if key.Resource() == resource {
			actionSet[key.Action()] = struct{}{}
		}
	}
	if len(actionSet) == 0 {
		return nil, internal.ErrInvalidObjectType
	}
	actions := make([]string, 0, len(actionSet))
	for a := range actionSet {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	roles, err := s.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	matrix := &Matrix{Resource: resource, Actions: actions, Rows: make([]MatrixRow, 0, len(roles))}
	for _, r := range roles {
		granted := permission.NewSet(r.Permissions...)
		row := MatrixRow{RoleID: r.ID, RoleName: r.Name, Actions: make(map[string]bool, len(actions))}
		for _, a := range actions {
			row.Actions[a] = granted.Has(permission.NewKey(resource, a))
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}

// CompareRoles lines up every catalog permission against two live roles.
func (s *CatalogService) CompareRoles(ctx context.Context, idA, idB string) (*RoleComparison, error) {
	v := validation.NewValidator()
	v.Field("role_a", idA).Required()
	v.Field("role_b", idB).Required()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	a, err := s.GetRole(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.GetRole(ctx, idB)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	inA := permission.NewSet(a.Permissions...)
	inB := permission.NewSet(b.Permissions...)
	cmp := &RoleComparison{A: a, B: b, Permissions: make([]PermissionDiff, 0, len(perms))}
	for _, p := range perms {
		key := permission.Key(p.Key)
		cmp.Permissions = append(cmp.Permissions, PermissionDiff{Key: key, InA: inA.Has(key), InB: inB.Has(key)})
	}
	return cmp, nil
}

func (s *CatalogService) liveRole(ctx context.Context, id string) (*roleDatamodel.Role, error) {
	row, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.DeletedAt != nil {
		return nil, internal.ErrRoleNotFound
	}
	return row, nil
}

func (s *CatalogService) lookupPermissions(ctx context.Context, keys []string) ([]*roleDatamodel.Permission, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	wanted := make([]string, 0, len(keys))
	seen := map[string]struct{}{}
	for _, raw := range keys {
		key, err := permission.ParseKey(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[key.String()]; dup {
			continue
		}
		seen[key.String()] = struct{}{}
		wanted = append(wanted, key.String())
	}

	rows, err := s.repo.GetPermissionsByKeys(ctx, wanted)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(wanted) {
		found := map[string]struct{}{}
		for _, row := range rows {
			found[row.Key] = struct{}{}
		}
		missing := []internal.ValidationError{}
		for _, k := range wanted {
			if _, ok := found[k]; !ok {
				missing = append(missing, internal.ValidationError{
					Field:   "permissions",
					Message: "unknown permission " + k,
					Code:    string(internal.ErrCodePermissionNotFound),
				})
			}
		}
		return nil, internal.ErrPermissionNotFound.WithDetails(internal.ValidationErrors{Errors: missing})
	}
	return rows, nil
}

func (s *CatalogService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event", "event_type", event.EventType(), "error", err)
	}
}

func permissionIDs(rows []*roleDatamodel.Permission) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.ID
	}
	return out
}

func permissionKeys(rows []*roleDatamodel.Permission) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Key
	}
	sort.Strings(out)
	return out
}
