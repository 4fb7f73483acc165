package authz_test

import (
	"context"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/authz"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/conflict"
	"github.com/frahmantamala/workforce-authz/internal/core/database/dbtest"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	ownershipPostgres "github.com/frahmantamala/workforce-authz/internal/ownership/postgres"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/role"
	rolePostgres "github.com/frahmantamala/workforce-authz/internal/role/postgres"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type profileDirectory map[string]string

func (p profileDirectory) ProfileInScope(_ context.Context, scope tenant.Scope, profileID string) (*identity.Profile, error) {
	org, ok := p[profileID]
	if !ok {
		return nil, internal.ErrResourceNotFound
	}
	if !scope.Contains(org) {
		return nil, internal.ErrCrossTenantAccess
	}
	return &identity.Profile{ID: profileID, OrganizationID: org, IsActive: true}, nil
}

var _ = Describe("Authorizer against the store", func() {
	var (
		ctx        context.Context
		clk        *clock.Manual
		catalog    *role.CatalogService
		roles      *role.Service
		owners     *ownership.Service
		authorizer *authz.Authorizer
		orgA       tenant.Scope
		roleIDs    map[string]string
	)

	BeforeEach(func() {
		db, err := dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(dbtest.Close, db)

		ctx = context.Background()
		clk = clock.NewManual(time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC))
		bus := events.NewEventBus(discard)
		profiles := profileDirectory{"user-x": "org-a", "user-y": "org-a", "user-b": "org-b"}
		retry := conflict.NewPolicy(5, time.Millisecond, discard)

		catalogRepo := rolePostgres.NewCatalogRepository(db)
		catalog = role.NewCatalogService(catalogRepo, bus, clk, discard)
		roles = role.NewService(rolePostgres.NewAssignmentRepository(db), catalogRepo, profiles, bus, clk, retry, discard)
		owners = ownership.NewService(ownershipPostgres.NewOwnershipRepository(db), profiles, bus, clk, retry, discard)
		authorizer = authz.NewAuthorizer(permission.NewResolver(roles, clk, discard), owners, roles, clk, discard)

		roleIDs, err = catalog.EnsureSystemCatalog(ctx)
		Expect(err).NotTo(HaveOccurred())
		orgA, _ = tenant.NewScope("org-a")
	})

	grant := func(profileID, roleName string, expiresAt *time.Time) {
		Expect(roleIDs).To(HaveKey(roleName))
		_, err := roles.Grant(ctx, orgA, role.GrantRequest{ProfileID: profileID, RoleID: roleIDs[roleName], IsPrimary: true, ExpiresAt: expiresAt, GrantedBy: "admin"})
		Expect(err).NotTo(HaveOccurred())
	}

	allowed := func(req authz.Request) bool {
		d, err := authorizer.Authorize(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		return d.Allowed
	}

	It("allows recruiter actions only inside the home organization", func() {
		grant("user-x", role.RoleRecruiter, nil)

		Expect(allowed(authz.Request{ProfileID: "user-x", OrganizationID: "org-a", TargetOrgID: "org-a", Permission: "candidates.update"})).To(BeTrue())
		Expect(allowed(authz.Request{ProfileID: "user-x", OrganizationID: "org-a", TargetOrgID: "org-a", Permission: "candidates.delete"})).To(BeFalse())
		Expect(allowed(authz.Request{ProfileID: "user-x", OrganizationID: "org-a", TargetOrgID: "org-b", Permission: "candidates.read"})).To(BeFalse())
	})

	It("stops allowing once the grant expires", func() {
		tomorrow := clk.Now().Add(24 * time.Hour)
		grant("user-x", role.RoleRecruiter, &tomorrow)
		req := authz.Request{ProfileID: "user-x", OrganizationID: "org-a", Permission: "candidates.read"}

		Expect(allowed(req)).To(BeTrue())
		clk.Advance(25 * time.Hour)
		Expect(allowed(req)).To(BeFalse())
	})

	It("unions a viewer role with a consulted relationship", func() {
		grant("user-x", role.RoleViewer, nil)
		job, _ := ownership.NewObjectRef("job", "job-7")
		_, err := owners.Assign(ctx, orgA, ownership.AssignRequest{Object: job, UserID: "user-x", Relationship: ownership.Consulted, AssignedBy: "admin"})
		Expect(err).NotTo(HaveOccurred())

		Expect(allowed(authz.Request{ProfileID: "user-x", OrganizationID: "org-a", Permission: "jobs.read", Object: &job})).To(BeTrue())
		Expect(allowed(authz.Request{ProfileID: "user-x", OrganizationID: "org-a", Permission: "jobs.update", Object: &job})).To(BeFalse())
	})

	It("moves reassign rights with the accountable owner", func() {
		deal, _ := ownership.NewObjectRef("deal", "deal-9")
		reassign := func(profileID string) bool {
			return allowed(authz.Request{ProfileID: profileID, OrganizationID: "org-a", Permission: "deals.reassign", Object: &deal})
		}

		_, err := owners.Assign(ctx, orgA, ownership.AssignRequest{Object: deal, UserID: "user-x", Relationship: ownership.Accountable, AssignedBy: "admin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reassign("user-x")).To(BeTrue())
		Expect(reassign("user-y")).To(BeFalse())

		_, err = owners.Assign(ctx, orgA, ownership.AssignRequest{Object: deal, UserID: "user-y", Relationship: ownership.Accountable, AssignedBy: "admin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reassign("user-x")).To(BeFalse())
		Expect(reassign("user-y")).To(BeTrue())
	})

	It("builds the authorization context from the primary assignment", func() {
		grant("user-x", role.RoleAccountManager, nil)

		out, err := authorizer.BuildContext(ctx, orgA, "user-x")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.PrimaryRole).NotTo(BeNil())
		Expect(out.PrimaryRole.RoleName).To(Equal(role.RoleAccountManager))
		Expect(out.EffectivePermissions.Len()).To(BeNumerically(">", 0))
	})
})
