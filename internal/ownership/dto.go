package ownership

import "time"

type OwnersResponse struct {
	ObjectType string              `json:"object_type"`
	ObjectID   string              `json:"object_id"`
	Owners     map[string][]string `json:"owners"`
}

type AssignOwnerDTO struct {
	UserID       string `json:"user_id"`
	Relationship string `json:"relationship"`
}

type EntryResponse struct {
	ID           string    `json:"id"`
	ObjectType   string    `json:"object_type"`
	ObjectID     string    `json:"object_id"`
	UserID       string    `json:"user_id"`
	Relationship string    `json:"relationship"`
	AssignedAt   time.Time `json:"assigned_at"`
	AssignedBy   string    `json:"assigned_by,omitempty"`
}

func (o Owners) ToResponse(ref ObjectRef) OwnersResponse {
	resp := OwnersResponse{
		ObjectType: string(ref.Type),
		ObjectID:   ref.ID,
		Owners:     make(map[string][]string, len(Relationships)),
	}
	for _, rel := range Relationships {
		users := o[rel]
		if users == nil {
			users = []string{}
		}
		resp.Owners[string(rel)] = users
	}
	return resp
}

func (e *Entry) ToResponse() EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		ObjectType:   string(e.Object.Type),
		ObjectID:     e.Object.ID,
		UserID:       e.UserID,
		Relationship: string(e.Relationship),
		AssignedAt:   e.AssignedAt,
		AssignedBy:   e.AssignedBy,
	}
}
