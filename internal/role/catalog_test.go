package role_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/frahmantamala/workforce-authz/internal"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/role"
	rolePostgres "github.com/frahmantamala/workforce-authz/internal/role/postgres"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Role catalog service", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
		f.permissions("jobs.read", "jobs.update", "jobs.delete", "deals.close")
	})

	Describe("CreateRole", func() {
		It("creates a custom role with its permissions", func() {
			r := f.role("coordinator", "jobs.read", "jobs.update")
			Expect(r.IsSystemRole).To(BeFalse())
			Expect(r.Permissions).To(ConsistOf(permission.Key("jobs.read"), permission.Key("jobs.update")))

			roles, err := f.catalog.ListRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
			Expect(f.publisher.Types()).To(ContainElement(events.EventTypeRoleCreated))
		})

		It("rejects unknown permission keys", func() {
			_, err := f.catalog.CreateRole(ctx, role.CreateRoleRequest{Name: "coordinator", Permissions: []string{"jobs.read", "jobs.fly"}})
			Expect(errors.Is(err, internal.ErrPermissionNotFound)).To(BeTrue())
		})

		It("rejects malformed permission keys", func() {
			_, err := f.catalog.CreateRole(ctx, role.CreateRoleRequest{Name: "coordinator", Permissions: []string{"Jobs"}})
			Expect(errors.Is(err, internal.ErrInvalidPermissionKey)).To(BeTrue())
		})

		It("rejects duplicate names", func() {
			f.role("coordinator")
			_, err := f.catalog.CreateRole(ctx, role.CreateRoleRequest{Name: "coordinator"})
			Expect(errors.Is(err, internal.ErrDuplicateRole)).To(BeTrue())
		})

		It("can be retried after its grants failed to write", func() {
			repo := &failingGrants{CatalogRepositoryAPI: rolePostgres.NewCatalogRepository(f.db), failures: 1}
			catalog := role.NewCatalogService(repo, f.publisher, f.clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
			req := role.CreateRoleRequest{Name: "coordinator", Permissions: []string{"jobs.read"}, ActorID: "tester"}

			_, err := catalog.CreateRole(ctx, req)
			Expect(err).To(HaveOccurred())
			roles, err := catalog.ListRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
			Expect(f.publisher.Types()).NotTo(ContainElement(events.EventTypeRoleCreated))

			created, err := catalog.CreateRole(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Permissions).To(ConsistOf(permission.Key("jobs.read")))
		})

		It("validates the name", func() {
			_, err := f.catalog.CreateRole(ctx, role.CreateRoleRequest{Name: "Head Coach"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("system roles", func() {
		var admin *role.Role

		BeforeEach(func() {
			ids, err := f.catalog.EnsureSystemCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())
			admin, err = f.catalog.GetRole(ctx, ids[role.RoleAdmin])
			Expect(err).NotTo(HaveOccurred())
		})

		It("cannot be renamed", func() {
			name := "superuser"
			_, err := f.catalog.UpdateRole(ctx, admin.ID, role.UpdateRoleRequest{Name: &name})
			Expect(errors.Is(err, internal.ErrSystemRoleImmutable)).To(BeTrue())
		})

		It("can have its description edited", func() {
			desc := "Organization administrators"
			updated, err := f.catalog.UpdateRole(ctx, admin.ID, role.UpdateRoleRequest{Description: &desc})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Description).To(Equal(desc))
			Expect(updated.Name).To(Equal(role.RoleAdmin))
		})

		It("cannot be deleted", func() {
			err := f.catalog.DeleteRole(ctx, admin.ID, "tester")
			Expect(errors.Is(err, internal.ErrSystemRoleImmutable)).To(BeTrue())
		})

		It("are seeded idempotently", func() {
			again, err := f.catalog.EnsureSystemCatalog(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(again[role.RoleAdmin]).To(Equal(admin.ID))

			roles, err := f.catalog.ListRoles(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(len(role.SystemRoles)))
			Expect(admin.Permissions).To(ContainElement(permission.RolesAdminister))
		})
	})

	Describe("UpdateRole and DeleteRole", func() {
		It("renames a custom role", func() {
			r := f.role("coordinator")
			name := "lead_coordinator"
			updated, err := f.catalog.UpdateRole(ctx, r.ID, role.UpdateRoleRequest{Name: &name, ActorID: "tester"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal(name))
		})

		It("refuses a rename onto an existing name", func() {
			f.role("coordinator")
			r := f.role("sourcer")
			name := "coordinator"
			_, err := f.catalog.UpdateRole(ctx, r.ID, role.UpdateRoleRequest{Name: &name})
			Expect(errors.Is(err, internal.ErrDuplicateRole)).To(BeTrue())
		})

		It("soft-deletes a custom role and stops resolving it", func() {
			r := f.role("coordinator", "jobs.read")
			Expect(f.catalog.DeleteRole(ctx, r.ID, "tester")).To(Succeed())

			_, err := f.catalog.GetRole(ctx, r.ID)
			Expect(errors.Is(err, internal.ErrRoleNotFound)).To(BeTrue())

			keys, err := f.service.PermissionKeys(ctx, []string{r.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(keys).To(BeEmpty())

			_, err = f.catalog.CreateRole(ctx, role.CreateRoleRequest{Name: "coordinator"})
			Expect(errors.Is(err, internal.ErrDuplicateRole)).To(BeTrue())
		})
	})

	Describe("CompareRoles", func() {
		It("lines up every catalog permission against both roles", func() {
			a := f.role("coordinator", "jobs.read", "jobs.update")
			b := f.role("closer", "jobs.read", "deals.close")

			cmp, err := f.catalog.CompareRoles(ctx, a.ID, b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.A.Name).To(Equal("coordinator"))
			Expect(cmp.B.Name).To(Equal("closer"))
			Expect(cmp.Permissions).To(HaveLen(4))
			Expect(cmp.Permissions).To(ContainElement(role.PermissionDiff{Key: "jobs.delete"}))
			Expect(cmp.Differences()).To(ConsistOf(
				role.PermissionDiff{Key: "jobs.update", InA: true},
				role.PermissionDiff{Key: "deals.close", InB: true},
			))
		})

		It("does not compare deleted roles", func() {
			a := f.role("coordinator", "jobs.read")
			b := f.role("closer", "deals.close")
			Expect(f.catalog.DeleteRole(ctx, b.ID, "tester")).To(Succeed())

			_, err := f.catalog.CompareRoles(ctx, a.ID, b.ID)
			Expect(errors.Is(err, internal.ErrRoleNotFound)).To(BeTrue())
		})
	})

	Describe("SetRolePermissions", func() {
		It("replaces the permission set and records the difference", func() {
			r := f.role("coordinator", "jobs.read", "jobs.update")
			updated, err := f.catalog.SetRolePermissions(ctx, r.ID, []string{"jobs.read", "jobs.delete"}, "tester")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(ConsistOf(permission.Key("jobs.read"), permission.Key("jobs.delete")))

			last := f.publisher.events[len(f.publisher.events)-1].Payload().(map[string]interface{})
			Expect(last["added"]).To(Equal([]string{"jobs.delete"}))
			Expect(last["removed"]).To(Equal([]string{"jobs.update"}))
		})

		It("clears the set when given no keys", func() {
			r := f.role("coordinator", "jobs.read")
			updated, err := f.catalog.SetRolePermissions(ctx, r.ID, nil, "tester")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(BeEmpty())
		})
	})

	Describe("permissions", func() {
		It("rejects malformed and duplicate keys", func() {
			_, err := f.catalog.CreatePermission(ctx, "jobs", "", "tester")
			Expect(errors.Is(err, internal.ErrInvalidPermissionKey)).To(BeTrue())

			_, err = f.catalog.CreatePermission(ctx, "jobs.read", "", "tester")
			Expect(errors.Is(err, internal.ErrDuplicatePermission)).To(BeTrue())
		})

		It("lists keys in order", func() {
			perms, err := f.catalog.ListPermissions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(4))
			Expect(perms[0].Key).To(Equal(permission.Key("deals.close")))
		})
	})

	Describe("Matrix", func() {
		It("shows which role grants which action", func() {
			f.role("coordinator", "jobs.read", "jobs.update")
			f.role("closer", "deals.close")

			m, err := f.catalog.Matrix(ctx, "jobs")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Actions).To(Equal([]string{"delete", "read", "update"}))
			Expect(m.Rows).To(HaveLen(2))

			byName := map[string]map[string]bool{}
			for _, row := range m.Rows {
				byName[row.RoleName] = row.Actions
			}
			Expect(byName["coordinator"]).To(Equal(map[string]bool{"delete": false, "read": true, "update": true}))
			Expect(byName["closer"]["read"]).To(BeFalse())
		})

		It("rejects a resource with no permissions", func() {
			_, err := f.catalog.Matrix(ctx, "spaceships")
			Expect(errors.Is(err, internal.ErrInvalidObjectType)).To(BeTrue())
		})
	})

	Describe("BootstrapOrganization", func() {
		It("makes the first administrator the primary admin once", func() {
			a, err := role.BootstrapOrganization(ctx, f.catalog, f.service, f.orgA, "user-x")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsPrimary).To(BeTrue())
			Expect(a.RoleName).To(Equal(role.RoleAdmin))
			Expect(a.GrantedBy).To(Equal(role.SeedActor))

			again, err := role.BootstrapOrganization(ctx, f.catalog, f.service, f.orgA, "user-x")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.ID).To(Equal(a.ID))

			bootstraps := 0
			for _, t := range f.publisher.Types() {
				if t == events.EventTypeOrganizationBootstrapped {
					bootstraps++
				}
			}
			Expect(bootstraps).To(Equal(1))

			active, err := f.service.ListActiveRoles(ctx, "user-x", tenant.In(f.orgA))
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
		})

		It("refuses a profile of another organization", func() {
			_, err := role.BootstrapOrganization(ctx, f.catalog, f.service, f.orgA, "user-b")
			Expect(errors.Is(err, internal.ErrCrossTenantAccess)).To(BeTrue())
		})
	})
})

// failingGrants makes the grant insert of the next failures CreateRole calls
// violate the role_permissions primary key.
type failingGrants struct {
	role.CatalogRepositoryAPI
	failures int
}

func (r *failingGrants) CreateRole(ctx context.Context, row *roleDatamodel.Role, permissionIDs []string) error {
	if r.failures > 0 && len(permissionIDs) > 0 {
		r.failures--
		permissionIDs = append(permissionIDs, permissionIDs[0])
	}
	return r.CatalogRepositoryAPI.CreateRole(ctx, row, permissionIDs)
}
