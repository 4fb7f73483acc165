package ownership_test

import (
	"errors"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ownership policy", func() {
	DescribeTable("relationship grants",
		func(rel ownership.Relationship, expected []string) {
			Expect(ownership.PermissionsFor(ownership.ObjectDeal, rel).Strings()).To(Equal(expected))
		},
		Entry("responsible", ownership.Responsible, []string{"deals.read", "deals.update"}),
		Entry("accountable", ownership.Accountable, []string{"deals.delete", "deals.read", "deals.reassign", "deals.update"}),
		Entry("consulted", ownership.Consulted, []string{"deals.read"}),
		Entry("informed", ownership.Informed, []string{"deals.read"}),
	)

	It("unions several relationships", func() {
		set := ownership.PermissionsFor(ownership.ObjectJob, ownership.Consulted, ownership.Informed, ownership.Responsible)
		Expect(set.Strings()).To(Equal([]string{"jobs.read", "jobs.update"}))
	})

	It("grants nothing without a relationship", func() {
		Expect(ownership.PermissionsFor(ownership.ObjectJob).Len()).To(BeZero())
	})

	It("maps object types to their plural resource", func() {
		Expect(ownership.PermissionsFor(ownership.ObjectCandidate, ownership.Informed).Has(permission.Key("candidates.read"))).To(BeTrue())
	})

	It("parses singular and plural object types", func() {
		t, err := ownership.ParseObjectType("deals")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(ownership.ObjectDeal))

		t, err = ownership.ParseObjectType("Job")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(ownership.ObjectJob))

		_, err = ownership.ParseObjectType("spaceship")
		Expect(errors.Is(err, internal.ErrInvalidObjectType)).To(BeTrue())
	})

	It("rejects unknown relationships", func() {
		_, err := ownership.ParseRelationship("owner")
		Expect(errors.Is(err, internal.ErrInvalidRelationship)).To(BeTrue())

		rel, err := ownership.ParseRelationship("Accountable")
		Expect(err).NotTo(HaveOccurred())
		Expect(rel).To(Equal(ownership.Accountable))
	})

	It("requires an object id", func() {
		_, err := ownership.NewObjectRef("deal", " ")
		Expect(err).To(HaveOccurred())
	})
})
