package identity

import (
	identityDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/identity"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

// Resolution is the outcome of looking up an auth provider id. It is
// either Mapped or Unmapped; absence is a result, not an error.
type Resolution interface {
	isResolution()
}

type Mapped struct {
	ProfileID      string
	OrganizationID string
	IsActive       bool
}

// Unmapped carries the raw id that had no auth mapping.
type Unmapped struct {
	RawID string
}

func (Mapped) isResolution()   {}
func (Unmapped) isResolution() {}

type Profile struct {
	ID             string
	AuthID         string
	OrganizationID string
	Email          string
	DisplayName    string
	IsActive       bool
}

func FromDataModel(row *identityDatamodel.UserProfile) *Profile {
	if row == nil {
		return nil
	}
	p := &Profile{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Email:          row.Email,
		DisplayName:    row.DisplayName,
		IsActive:       row.IsActive,
	}
	if row.AuthID != nil {
		p.AuthID = *row.AuthID
	}
	return p
}

// Caller is the authenticated principal of a request after identity
// resolution. OrganizationID is the caller's home organization.
type Caller struct {
	AuthID         string
	ProfileID      string
	OrganizationID string
	// Legacy marks callers resolved through the profile-id fallback.
	Legacy bool
}

func (c Caller) Scope() (tenant.Scope, error) {
	return tenant.NewScope(c.OrganizationID)
}

// ScopeFor returns the scope of targetOrgID after checking it is the
// caller's own organization.
func (c Caller) ScopeFor(targetOrgID string) (tenant.Scope, error) {
	if err := tenant.Check(c.OrganizationID, targetOrgID); err != nil {
		return tenant.Scope{}, err
	}
	return tenant.NewScope(targetOrgID)
}
