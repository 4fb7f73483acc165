package role

import "time"

type RoleResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	IsSystemRole bool     `json:"is_system_role"`
	Permissions  []string `json:"permissions"`
}

type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

type PermissionsResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}

type AssignmentResponse struct {
	ID             string     `json:"id"`
	ProfileID      string     `json:"profile_id"`
	RoleID         string     `json:"role_id"`
	RoleName       string     `json:"role_name,omitempty"`
	OrganizationID string     `json:"organization_id"`
	IsPrimary      bool       `json:"is_primary"`
	GrantedAt      time.Time  `json:"granted_at"`
	GrantedBy      string     `json:"granted_by,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type AssignmentsResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
}

type MatrixResponse struct {
	Resource string              `json:"object_type"`
	Actions  []string            `json:"actions"`
	Roles    []MatrixRowResponse `json:"roles"`
}

type MatrixRowResponse struct {
	RoleID   string          `json:"role_id"`
	RoleName string          `json:"role_name"`
	Actions  map[string]bool `json:"actions"`
}

type PermissionDiffResponse struct {
	Permission string `json:"permission"`
	RoleA      bool   `json:"role_a"`
	RoleB      bool   `json:"role_b"`
	Different  bool   `json:"different"`
}

type RoleComparisonResponse struct {
	RoleA       RoleResponse             `json:"role_a"`
	RoleB       RoleResponse             `json:"role_b"`
	Permissions []PermissionDiffResponse `json:"permissions"`
	Differences int                      `json:"differences"`
}

type CreateRoleDTO struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type UpdateRoleDTO struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

type SetRolePermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

type CreatePermissionDTO struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

type GrantRoleDTO struct {
	RoleID    string     `json:"role_id"`
	IsPrimary bool       `json:"is_primary"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r *Role) ToResponse() RoleResponse {
	perms := make([]string, len(r.Permissions))
	for i, k := range r.Permissions {
		perms[i] = k.String()
	}
	return RoleResponse{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		Permissions:  perms,
	}
}

func (p *Permission) ToResponse() PermissionResponse {
	return PermissionResponse{ID: p.ID, Key: p.Key.String(), Description: p.Description}
}

func (a *Assignment) ToResponse() AssignmentResponse {
	return AssignmentResponse{
		ID:             a.ID,
		ProfileID:      a.UserID,
		RoleID:         a.RoleID,
		RoleName:       a.RoleName,
		OrganizationID: a.OrganizationID,
		IsPrimary:      a.IsPrimary,
		GrantedAt:      a.GrantedAt,
		GrantedBy:      a.GrantedBy,
		ExpiresAt:      a.ExpiresAt,
	}
}

func (m *Matrix) ToResponse() MatrixResponse {
	rows := make([]MatrixRowResponse, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = MatrixRowResponse{RoleID: row.RoleID, RoleName: row.RoleName, Actions: row.Actions}
	}
	return MatrixResponse{Resource: m.Resource, Actions: m.Actions, Roles: rows}
}

func (c *RoleComparison) ToResponse() RoleComparisonResponse {
	rows := make([]PermissionDiffResponse, len(c.Permissions))
	for i, d := range c.Permissions {
		rows[i] = PermissionDiffResponse{Permission: d.Key.String(), RoleA: d.InA, RoleB: d.InB, Different: d.Different()}
	}
	return RoleComparisonResponse{
		RoleA:       c.A.ToResponse(),
		RoleB:       c.B.ToResponse(),
		Permissions: rows,
		Differences: len(c.Differences()),
	}
}
