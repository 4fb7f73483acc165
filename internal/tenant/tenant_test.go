package tenant_test

import (
	"errors"
	"testing"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestTenant(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tenant Suite")
}

type scopedRow struct {
	ID             string `gorm:"primaryKey"`
	OrganizationID string `gorm:"column:organization_id"`
}

func (scopedRow) TableName() string {
	return "scoped_rows"
}

var _ = Describe("Tenant scope guard", func() {
	Describe("Check", func() {
		It("allows matching organizations", func() {
			Expect(tenant.Check("org-a", "org-a")).To(Succeed())
		})

		It("denies a different organization with a cross tenant error", func() {
			err := tenant.Check("org-a", "org-b")
			Expect(errors.Is(err, internal.ErrCrossTenantAccess)).To(BeTrue())
		})

		It("denies an empty caller organization", func() {
			err := tenant.Check("", "")
			Expect(errors.Is(err, internal.ErrCrossTenantAccess)).To(BeTrue())
		})
	})

	Describe("NewScope", func() {
		It("rejects blank organization ids", func() {
			_, err := tenant.NewScope("  ")
			Expect(errors.Is(err, internal.ErrOrganizationRequired)).To(BeTrue())
		})

		It("trims and keeps the organization id", func() {
			scope, err := tenant.NewScope(" org-a ")
			Expect(err).NotTo(HaveOccurred())
			Expect(scope.OrganizationID()).To(Equal("org-a"))
			Expect(scope.Contains("org-a")).To(BeTrue())
			Expect(scope.Contains("org-b")).To(BeFalse())
		})
	})

	Describe("predicate injection", func() {
		var db *gorm.DB

		BeforeEach(func() {
			var err error
			db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
			Expect(err).NotTo(HaveOccurred())
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())
			sqlDB.SetMaxOpenConns(1)

			Expect(db.AutoMigrate(&scopedRow{})).To(Succeed())
			Expect(db.Create(&[]scopedRow{
				{ID: "1", OrganizationID: "org-a"},
				{ID: "2", OrganizationID: "org-a"},
				{ID: "3", OrganizationID: "org-b"},
			}).Error).To(Succeed())
		})

		It("only returns rows of the scoped organization", func() {
			scope, _ := tenant.NewScope("org-a")
			var rows []scopedRow
			Expect(scope.Apply(db.Model(&scopedRow{})).Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(2))
			for _, row := range rows {
				Expect(row.OrganizationID).To(Equal("org-a"))
			}
		})

		It("refuses to run with a zero scope", func() {
			var rows []scopedRow
			err := tenant.Scope{}.Apply(db.Model(&scopedRow{})).Find(&rows).Error
			Expect(errors.Is(err, internal.ErrMissingTenantFilter)).To(BeTrue())
			Expect(rows).To(BeEmpty())
		})

		It("refuses to run with a zero filter", func() {
			var rows []scopedRow
			err := tenant.Filter{}.Apply(db.Model(&scopedRow{})).Find(&rows).Error
			Expect(errors.Is(err, internal.ErrMissingTenantFilter)).To(BeTrue())
		})

		It("spans organizations only when asked explicitly", func() {
			var rows []scopedRow
			Expect(tenant.AllOrganizations().Apply(db.Model(&scopedRow{})).Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(3))
		})

		It("scopes through a filter built from a scope", func() {
			scope, _ := tenant.NewScope("org-b")
			filter := tenant.In(scope)
			Expect(filter.Valid()).To(BeTrue())

			var rows []scopedRow
			Expect(filter.Apply(db.Model(&scopedRow{})).Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ID).To(Equal("3"))
		})
	})
})
