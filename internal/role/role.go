package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/permission"
)

type Role struct {
	ID           string
	Name         string
	Category     string
	Description  string
	IsSystemRole bool
	Permissions  []permission.Key
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Permission struct {
	ID          string
	Key         permission.Key
	Description string
	CreatedAt   time.Time
}

// Assignment binds a user to a role inside one organization. It is active
// while ExpiresAt is nil or later than the instant being evaluated.
type Assignment struct {
	ID             string
	UserID         string
	RoleID         string
	RoleName       string
	OrganizationID string
	IsPrimary      bool
	GrantedAt      time.Time
	GrantedBy      string
	ExpiresAt      *time.Time
}

func (a *Assignment) IsActiveAt(now time.Time) bool {
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}

type GrantRequest struct {
	ProfileID string
	RoleID    string
	IsPrimary bool
	ExpiresAt *time.Time
	GrantedBy string
}

func RoleFromDataModel(row *roleDatamodel.Role, keys []string) *Role {
	if row == nil {
		return nil
	}
	perms := make([]permission.Key, 0, len(keys))
	for _, k := range keys {
		perms = append(perms, permission.Key(k))
	}
	return &Role{
		ID:           row.ID,
		Name:         row.Name,
		Category:     row.Category,
		Description:  row.Description,
		IsSystemRole: row.IsSystemRole,
		Permissions:  perms,
		DeletedAt:    row.DeletedAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func PermissionFromDataModel(row *roleDatamodel.Permission) *Permission {
	return &Permission{
		ID:          row.ID,
		Key:         permission.Key(row.Key),
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}

func AssignmentFromDataModel(row *roleDatamodel.RoleAssignment) *Assignment {
	if row == nil {
		return nil
	}
	return &Assignment{
		ID:             row.ID,
		UserID:         row.UserID,
		RoleID:         row.RoleID,
		RoleName:       row.RoleName,
		OrganizationID: row.OrganizationID,
		IsPrimary:      row.IsPrimary,
		GrantedAt:      row.GrantedAt,
		GrantedBy:      row.GrantedBy,
		ExpiresAt:      row.ExpiresAt,
	}
}

func (a *Assignment) ToDataModel() *roleDatamodel.RoleAssignment {
	return &roleDatamodel.RoleAssignment{
		ID:             a.ID,
		UserID:         a.UserID,
		RoleID:         a.RoleID,
		OrganizationID: a.OrganizationID,
		IsPrimary:      a.IsPrimary,
		GrantedAt:      a.GrantedAt,
		GrantedBy:      a.GrantedBy,
		ExpiresAt:      a.ExpiresAt,
	}
}
