package identity

type ProfileResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	IsActive       bool   `json:"is_active"`
}

type ProfilesResponse struct {
	Users []ProfileResponse `json:"users"`
}

func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		IsActive:       p.IsActive,
	}
}
