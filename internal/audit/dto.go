package audit

import "time"

type EntryResponse struct {
	ID           string                 `json:"id"`
	ActorID      string                 `json:"actor_id"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type DetailResponse struct {
	EntryResponse
	Related []EntryResponse `json:"related"`
}

func (d *Detail) ToResponse() DetailResponse {
	resp := DetailResponse{EntryResponse: d.Entry.ToResponse(), Related: make([]EntryResponse, 0, len(d.Related))}
	for _, e := range d.Related {
		resp.Related = append(resp.Related, e.ToResponse())
	}
	return resp
}

func (e *Entry) ToResponse() EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		ActorID:      e.ActorID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt,
	}
}
