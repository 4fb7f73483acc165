// Package tenant keeps every tenant-scoped read and write qualified by an
// organization id.
//
// A Scope can only be obtained through NewScope, so a storage accessor that
// takes a Scope cannot be called without an organization. List accessors
// inject the predicate with Scope.Apply instead of filtering results.
package tenant

import (
	"strings"

	"github.com/frahmantamala/workforce-authz/internal"
	"gorm.io/gorm"
)

const organizationColumn = "organization_id"

type Scope struct {
	orgID string
}

func NewScope(orgID string) (Scope, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Scope{}, internal.ErrOrganizationRequired
	}
	return Scope{orgID: orgID}, nil
}

func (s Scope) OrganizationID() string {
	return s.orgID
}

func (s Scope) IsZero() bool {
	return s.orgID == ""
}

// Contains reports whether a record owned by orgID is visible in s.
func (s Scope) Contains(orgID string) bool {
	return !s.IsZero() && s.orgID == orgID
}

// Apply adds "organization_id = ?" to db. A zero Scope poisons the
// statement with ErrMissingTenantFilter rather than running it unscoped.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	return s.ApplyColumn(db, organizationColumn)
}

// ApplyColumn is Apply for joined queries where the column needs a table
// qualifier, e.g. "ra.organization_id".
func (s Scope) ApplyColumn(db *gorm.DB, column string) *gorm.DB {
	if s.IsZero() {
		return poisoned(db)
	}
	return db.Where(column+" = ?", s.orgID)
}

// poisoned returns a fresh session of db carrying ErrMissingTenantFilter, so
// the error never leaks onto a shared *gorm.DB.
func poisoned(db *gorm.DB) *gorm.DB {
	tx := db.Session(&gorm.Session{})
	_ = tx.AddError(internal.ErrMissingTenantFilter)
	return tx
}

// Check is the equality guard between the caller's home organization and
// the organization that owns the target.
func Check(callerOrgID, targetOrgID string) error {
	if callerOrgID == "" || callerOrgID != targetOrgID {
		return internal.ErrCrossTenantAccess
	}
	return nil
}
