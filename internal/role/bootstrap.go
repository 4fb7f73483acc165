package role

import (
	"context"
	"sort"

	"github.com/frahmantamala/workforce-authz/internal"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/ids"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

const (
	RoleAdmin          = "admin"
	RoleRecruiter      = "recruiter"
	RoleAccountManager = "account_manager"
	RoleViewer         = "viewer"

	SeedActor = "system:seed"
)

type SystemRole struct {
	Name        string
	Category    string
	Description string
	Keys        func() []permission.Key
}

// SystemRoles are created by the seed step and cannot be renamed or
// deleted afterwards.
var SystemRoles = []SystemRole{
	{
		Name:        RoleAdmin,
		Category:    "administration",
		Description: "Full access to the organization",
		Keys:        allCatalogKeys,
	},
	{
		Name:        RoleRecruiter,
		Category:    "ats",
		Description: "Works the recruiting pipeline",
		Keys: keysOf(
			"jobs.read", "jobs.create", "jobs.update",
			"candidates.read", "candidates.create", "candidates.update",
			"submissions.read", "submissions.update",
			"placements.read",
		),
	},
	{
		Name:        RoleAccountManager,
		Category:    "crm",
		Description: "Owns customer accounts and the sales pipeline",
		Keys: keysOf(
			"accounts.read", "accounts.update",
			"contacts.read", "contacts.update",
			"leads.read", "leads.update", "leads.convert",
			"deals.read", "deals.update", "deals.close",
			"campaigns.read",
		),
	},
	{
		Name:        RoleViewer,
		Category:    "general",
		Description: "Read-only access to business objects",
		Keys: func() []permission.Key {
			var out []permission.Key
			for _, def := range permission.Catalog {
				if def.Key.Action() == "read" && def.Key != permission.RolesRead && def.Key != permission.AuditRead {
					out = append(out, def.Key)
				}
			}
			return out
		},
	},
}

func allCatalogKeys() []permission.Key {
	out := make([]permission.Key, 0, len(permission.Catalog))
	for _, def := range permission.Catalog {
		out = append(out, def.Key)
	}
	return out
}

func keysOf(keys ...permission.Key) func() []permission.Key {
	return func() []permission.Key { return keys }
}

// EnsureSystemCatalog creates missing catalog permissions and system roles
// and resets every system role to its defined permission set. It is safe
// to run repeatedly. It returns system role ids keyed by name.
func (s *CatalogService) EnsureSystemCatalog(ctx context.Context) (map[string]string, error) {
	wanted := make([]string, 0, len(permission.Catalog))
	for _, def := range permission.Catalog {
		wanted = append(wanted, def.Key.String())
	}
	existing, err := s.repo.GetPermissionsByKeys(ctx, wanted)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]string, len(permission.Catalog))
	for _, row := range existing {
		byKey[row.Key] = row.ID
	}
	for _, def := range permission.Catalog {
		if _, ok := byKey[def.Key.String()]; ok {
			continue
		}
		row := &roleDatamodel.Permission{ID: ids.New(), Key: def.Key.String(), Description: def.Description}
		if err := s.repo.CreatePermission(ctx, row); err != nil {
			return nil, err
		}
		byKey[row.Key] = row.ID
	}

	roleIDs := make(map[string]string, len(SystemRoles))
	for _, sys := range SystemRoles {
		permIDs := make([]string, 0)
		for _, k := range sys.Keys() {
			permIDs = append(permIDs, byKey[k.String()])
		}
		sort.Strings(permIDs)

		row, err := s.repo.GetRoleByName(ctx, sys.Name)
		if err != nil {
			return nil, err
		}
		if row == nil {
			row = &roleDatamodel.Role{
				ID:           ids.New(),
				Name:         sys.Name,
				Category:     sys.Category,
				Description:  sys.Description,
				IsSystemRole: true,
			}
			if err := s.repo.CreateRole(ctx, row, permIDs); err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "system role created", "role", sys.Name, "role_id", row.ID)
		} else if err := s.repo.ReplaceRolePermissions(ctx, row.ID, permIDs); err != nil {
			return nil, err
		}
		roleIDs[sys.Name] = row.ID
	}
	return roleIDs, nil
}

// BootstrapOrganization seeds the catalog and makes adminProfileID the
// primary admin of the organization. It is the one mutation that does not
// pass through authorize, and it is recorded as organization.bootstrap.
func BootstrapOrganization(ctx context.Context, catalog *CatalogService, assignments *Service, scope tenant.Scope, adminProfileID string) (*Assignment, error) {
	if scope.IsZero() {
		return nil, internal.ErrOrganizationRequired
	}
	roleIDs, err := catalog.EnsureSystemCatalog(ctx)
	if err != nil {
		return nil, err
	}

	adminRoleID := roleIDs[RoleAdmin]
	current, err := assignments.ListActiveRoles(ctx, adminProfileID, tenant.In(scope))
	if err != nil {
		return nil, err
	}
	for _, a := range current {
		if a.RoleID == adminRoleID {
			assignments.logger.InfoContext(ctx, "organization already bootstrapped",
				"organization_id", scope.OrganizationID(), "profile_id", adminProfileID)
			return a, nil
		}
	}

	granted, err := assignments.Grant(ctx, scope, GrantRequest{
		ProfileID: adminProfileID,
		RoleID:    adminRoleID,
		IsPrimary: true,
		GrantedBy: SeedActor,
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roleIDs))
	for name := range roleIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	assignments.publish(ctx, events.NewOrganizationBootstrappedEvent(scope.OrganizationID(), adminProfileID, names))
	return granted, nil
}
