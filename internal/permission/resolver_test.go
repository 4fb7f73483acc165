package permission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type grant struct {
	profileID string
	orgID     string
	roleID    string
	expiresAt *time.Time
}

// MockRoleSource filters grants the way the store does: by organization
// and by expiry against the supplied instant.
type MockRoleSource struct {
	grants     []grant
	rolePerms  map[string][]permission.Key
	seenNow    []time.Time
	shouldFail bool
	failError  error
}

func NewMockRoleSource() *MockRoleSource {
	return &MockRoleSource{rolePerms: map[string][]permission.Key{}}
}

func (m *MockRoleSource) ActiveRoleIDs(_ context.Context, profileID string, scope tenant.Scope, now time.Time) ([]string, error) {
	m.seenNow = append(m.seenNow, now)
	if m.shouldFail {
		return nil, m.failError
	}
	var ids []string
	for _, g := range m.grants {
		if g.profileID != profileID || !scope.Contains(g.orgID) {
			continue
		}
		if g.expiresAt != nil && !g.expiresAt.After(now) {
			continue
		}
		ids = append(ids, g.roleID)
	}
	return ids, nil
}

func (m *MockRoleSource) PermissionKeys(_ context.Context, roleIDs []string) ([]permission.Key, error) {
	var keys []permission.Key
	for _, id := range roleIDs {
		keys = append(keys, m.rolePerms[id]...)
	}
	return keys, nil
}

var _ = Describe("Resolver", func() {
	var (
		source   *MockRoleSource
		resolver *permission.Resolver
		now      time.Time
		orgA     tenant.Scope
		orgB     tenant.Scope
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		source = NewMockRoleSource()
		source.rolePerms["recruiter"] = []permission.Key{"candidates.read", "candidates.update"}
		source.rolePerms["viewer"] = []permission.Key{"jobs.read"}
		source.rolePerms["closer"] = []permission.Key{"deals.close", "candidates.read"}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver = permission.NewResolver(source, clock.Fixed{At: now}, logger)
		orgA, _ = tenant.NewScope("org-a")
		orgB, _ = tenant.NewScope("org-b")
	})

	It("returns an empty set for a user without roles", func() {
		perms, err := resolver.ResolvePermissions(ctx, orgA, "nobody")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).NotTo(BeNil())
		Expect(perms.Len()).To(Equal(0))
	})

	It("unions the permissions of every active role", func() {
		source.grants = []grant{
			{profileID: "x", orgID: "org-a", roleID: "recruiter"},
			{profileID: "x", orgID: "org-a", roleID: "closer"},
		}

		perms, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Strings()).To(Equal([]string{"candidates.read", "candidates.update", "deals.close"}))
	})

	It("is a superset of each role resolved alone", func() {
		source.grants = []grant{{profileID: "x", orgID: "org-a", roleID: "recruiter"}}
		onlyR1, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())

		source.grants = []grant{{profileID: "x", orgID: "org-a", roleID: "viewer"}}
		onlyR2, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())

		source.grants = []grant{
			{profileID: "x", orgID: "org-a", roleID: "recruiter"},
			{profileID: "x", orgID: "org-a", roleID: "viewer"},
		}
		both, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())

		Expect(both.Contains(onlyR1)).To(BeTrue())
		Expect(both.Contains(onlyR2)).To(BeTrue())
	})

	It("ignores an assignment that expired yesterday without a revoke", func() {
		yesterday := now.Add(-24 * time.Hour)
		source.grants = []grant{{profileID: "x", orgID: "org-a", roleID: "recruiter", expiresAt: &yesterday}}

		perms, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Len()).To(Equal(0))
	})

	It("treats an assignment expiring exactly now as expired", func() {
		at := now
		source.grants = []grant{{profileID: "x", orgID: "org-a", roleID: "recruiter", expiresAt: &at}}

		perms, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Len()).To(Equal(0))
	})

	It("never consults another organization", func() {
		source.grants = []grant{
			{profileID: "x", orgID: "org-a", roleID: "viewer"},
			{profileID: "x", orgID: "org-b", roleID: "recruiter"},
		}

		perms, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Strings()).To(Equal([]string{"jobs.read"}))

		perms, err = resolver.ResolvePermissions(ctx, orgB, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(perms.Has("jobs.read")).To(BeFalse())
	})

	It("reads the clock once per resolution", func() {
		_, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(source.seenNow).To(Equal([]time.Time{now}))
	})

	It("propagates store failures", func() {
		source.shouldFail = true
		source.failError = errors.New("connection refused")

		perms, err := resolver.ResolvePermissions(ctx, orgA, "x")
		Expect(err).To(MatchError("connection refused"))
		Expect(perms).To(BeNil())
	})
})
