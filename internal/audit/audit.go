// Package audit persists authorization mutations published on the event
// bus and serves them back per organization.
package audit

import (
	"time"

	auditDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/audit"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500

	// RelatedWindow and RelatedLimit bound the entries shown next to a
	// single entry: same actor, within the window either side.
	RelatedWindow = 5 * time.Minute
	RelatedLimit  = 10
)

type Entry struct {
	ID             string
	OrganizationID string
	ActorID        string
	Action         string
	ResourceType   string
	ResourceID     string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// Detail is one entry with the actor's neighbouring entries, oldest first.
type Detail struct {
	Entry   *Entry
	Related []*Entry
}

// Query narrows a listing. Zero fields do not filter.
type Query struct {
	Action       string
	ResourceType string
	ResourceID   string
	ActorID      string
	Since        *time.Time
	Limit        int
	Offset       int
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func EntryFromDataModel(row *auditDatamodel.AuditLog) *Entry {
	if row == nil {
		return nil
	}
	return &Entry{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		ActorID:        row.ActorID,
		Action:         row.Action,
		ResourceType:   row.ResourceType,
		ResourceID:     row.ResourceID,
		Metadata:       row.Metadata,
		CreatedAt:      row.CreatedAt,
	}
}
