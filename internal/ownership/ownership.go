// Package ownership resolves RCAI relationships between users and business
// objects and the permissions those relationships carry.
package ownership

import (
	"strings"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	ownershipDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
)

type ObjectType string

const (
	ObjectJob        ObjectType = "job"
	ObjectCandidate  ObjectType = "candidate"
	ObjectSubmission ObjectType = "submission"
	ObjectPlacement  ObjectType = "placement"
	ObjectAccount    ObjectType = "account"
	ObjectContact    ObjectType = "contact"
	ObjectLead       ObjectType = "lead"
	ObjectDeal       ObjectType = "deal"
	ObjectCampaign   ObjectType = "campaign"
)

var objectTypes = map[ObjectType]struct{}{
	ObjectJob: {}, ObjectCandidate: {}, ObjectSubmission: {}, ObjectPlacement: {},
	ObjectAccount: {}, ObjectContact: {}, ObjectLead: {}, ObjectDeal: {}, ObjectCampaign: {},
}

// ParseObjectType accepts the singular name or its plural ("deals").
func ParseObjectType(s string) (ObjectType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := objectTypes[ObjectType(s)]; ok {
		return ObjectType(s), nil
	}
	if t := ObjectType(strings.TrimSuffix(s, "s")); t != ObjectType(s) {
		if _, ok := objectTypes[t]; ok {
			return t, nil
		}
	}
	return "", internal.ErrInvalidObjectType
}

// Plural is the resource segment of the type's permission keys.
func (t ObjectType) Plural() string {
	return string(t) + "s"
}

type Relationship string

const (
	Responsible Relationship = "responsible"
	Accountable Relationship = "accountable"
	Consulted   Relationship = "consulted"
	Informed    Relationship = "informed"
)

var Relationships = []Relationship{Responsible, Accountable, Consulted, Informed}

func ParseRelationship(s string) (Relationship, error) {
	r := Relationship(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Relationships {
		if r == known {
			return r, nil
		}
	}
	return "", internal.ErrInvalidRelationship
}

type Action string

const (
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionReassign Action = "reassign"
)

// Policy is the default grant of each relationship on the object it
// relates to.
var Policy = map[Relationship][]Action{
	Responsible: {ActionRead, ActionUpdate},
	Accountable: {ActionRead, ActionUpdate, ActionDelete, ActionReassign},
	Consulted:   {ActionRead},
	Informed:    {ActionRead},
}

// PermissionsFor maps relationships on an object of type t to permission
// keys, e.g. Consulted on a job gives jobs.read. Relationships union.
func PermissionsFor(t ObjectType, rels ...Relationship) permission.Set {
	set := permission.NewSet()
	for _, rel := range rels {
		for _, action := range Policy[rel] {
			set.Add(permission.NewKey(t.Plural(), string(action)))
		}
	}
	return set
}

type ObjectRef struct {
	Type ObjectType
	ID   string
}

func NewObjectRef(objectType, objectID string) (ObjectRef, error) {
	t, err := ParseObjectType(objectType)
	if err != nil {
		return ObjectRef{}, err
	}
	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		return ObjectRef{}, internal.NewValidationFieldError("object_id", "object_id is required", internal.ErrCodeValidationFailed)
	}
	return ObjectRef{Type: t, ID: objectID}, nil
}

// Owners groups the active owners of one object by relationship.
type Owners map[Relationship][]string

func (o Owners) Accountable() (string, bool) {
	if users := o[Accountable]; len(users) > 0 {
		return users[0], true
	}
	return "", false
}

type Entry struct {
	ID             string
	OrganizationID string
	Object         ObjectRef
	UserID         string
	Relationship   Relationship
	AssignedAt     time.Time
	AssignedBy     string
}

func EntryFromDataModel(row *ownershipDatamodel.ObjectOwnership) *Entry {
	if row == nil {
		return nil
	}
	return &Entry{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Object:         ObjectRef{Type: ObjectType(row.ObjectType), ID: row.ObjectID},
		UserID:         row.UserID,
		Relationship:   Relationship(row.Relationship),
		AssignedAt:     row.AssignedAt,
		AssignedBy:     row.AssignedBy,
	}
}

func (e *Entry) ToDataModel() *ownershipDatamodel.ObjectOwnership {
	return &ownershipDatamodel.ObjectOwnership{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		ObjectType:     string(e.Object.Type),
		ObjectID:       e.Object.ID,
		UserID:         e.UserID,
		Relationship:   string(e.Relationship),
		AssignedAt:     e.AssignedAt,
		AssignedBy:     e.AssignedBy,
	}
}
