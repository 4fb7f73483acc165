package permission_test

import (
	"errors"
	"testing"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPermission(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Suite")
}

var _ = Describe("Key", func() {
	It("parses resource.action keys", func() {
		key, err := permission.ParseKey("deals.close")
		Expect(err).NotTo(HaveOccurred())
		Expect(key.Resource()).To(Equal("deals"))
		Expect(key.Action()).To(Equal("close"))
	})

	It("rejects malformed keys", func() {
		for _, raw := range []string{"", "deals", "Deals.Close", ".read", "deals.", "deals read"} {
			_, err := permission.ParseKey(raw)
			Expect(errors.Is(err, internal.ErrInvalidPermissionKey)).To(BeTrue(), raw)
		}
	})

	It("builds keys from a resource and an action", func() {
		Expect(permission.NewKey("jobs", "read")).To(Equal(permission.Key("jobs.read")))
	})

	It("keeps every catalog key well formed and unique", func() {
		seen := map[permission.Key]bool{}
		for _, def := range permission.Catalog {
			_, err := permission.ParseKey(string(def.Key))
			Expect(err).NotTo(HaveOccurred(), string(def.Key))
			Expect(seen[def.Key]).To(BeFalse(), string(def.Key))
			seen[def.Key] = true
		}
	})
})

var _ = Describe("Set", func() {
	It("unions without modifying either side", func() {
		a := permission.NewSet("jobs.read")
		b := permission.NewSet("jobs.update")

		u := a.Union(b)

		Expect(u.Strings()).To(Equal([]string{"jobs.read", "jobs.update"}))
		Expect(a.Len()).To(Equal(1))
		Expect(b.Len()).To(Equal(1))
	})

	It("is order independent", func() {
		a := permission.NewSet("a.x", "b.y")
		b := permission.NewSet("c.z")
		Expect(a.Union(b)).To(Equal(b.Union(a)))
	})

	It("reports containment", func() {
		s := permission.NewSet("a.x", "b.y")
		Expect(s.Contains(permission.NewSet("a.x"))).To(BeTrue())
		Expect(s.Contains(permission.NewSet("c.z"))).To(BeFalse())
		Expect(s.Contains(permission.NewSet())).To(BeTrue())
	})

	It("lists keys sorted", func() {
		s := permission.FromStrings([]string{"z.a", "a.z", "m.m"})
		Expect(s.Keys()).To(Equal([]permission.Key{"a.z", "m.m", "z.a"}))
	})
})
