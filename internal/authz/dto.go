package authz

import "time"

type AuthorizeDTO struct {
	Permission string `json:"permission"`
	ProfileID  string `json:"profile_id,omitempty"`
	ObjectType string `json:"object_type,omitempty"`
	ObjectID   string `json:"object_id,omitempty"`
}

type DecisionResponse struct {
	Allowed              bool      `json:"allowed"`
	Reason               string    `json:"reason"`
	ProfileID            string    `json:"profile_id"`
	Permission           string    `json:"permission"`
	BasePermissions      []string  `json:"base_permissions"`
	OwnershipPermissions []string  `json:"ownership_permissions"`
	Relationships        []string  `json:"relationships,omitempty"`
	EvaluatedAt          time.Time `json:"evaluated_at"`
}

type PrimaryRoleResponse struct {
	AssignmentID string     `json:"assignment_id"`
	RoleID       string     `json:"role_id"`
	RoleName     string     `json:"role_name"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type AuthorizationContextResponse struct {
	ProfileID      string               `json:"profile_id"`
	OrganizationID string               `json:"organization_id"`
	Permissions    []string             `json:"permissions"`
	PrimaryRole    *PrimaryRoleResponse `json:"primary_role"`
	LegacyIdentity bool                 `json:"legacy_identity,omitempty"`
}

func (e *Explanation) ToResponse(profileID, key string) DecisionResponse {
	resp := DecisionResponse{
		Allowed:              e.Allowed,
		Reason:               string(e.Reason),
		ProfileID:            profileID,
		Permission:           key,
		BasePermissions:      []string{},
		OwnershipPermissions: []string{},
		EvaluatedAt:          e.EvaluatedAt,
	}
	if e.BasePermissions != nil {
		resp.BasePermissions = e.BasePermissions.Strings()
	}
	if e.OwnershipPermissions != nil {
		resp.OwnershipPermissions = e.OwnershipPermissions.Strings()
	}
	for _, rel := range e.Relationships {
		resp.Relationships = append(resp.Relationships, string(rel))
	}
	return resp
}

func (c *AuthorizationContext) ToResponse() AuthorizationContextResponse {
	resp := AuthorizationContextResponse{
		ProfileID:      c.ProfileID,
		OrganizationID: c.OrganizationID,
		Permissions:    c.EffectivePermissions.Strings(),
	}
	if p := c.PrimaryRole; p != nil {
		resp.PrimaryRole = &PrimaryRoleResponse{AssignmentID: p.ID, RoleID: p.RoleID, RoleName: p.RoleName, ExpiresAt: p.ExpiresAt}
	}
	return resp
}
