package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRoleGranted              = "role.granted"
	EventTypeRoleRevoked              = "role.revoked"
	EventTypeRoleCreated              = "role.created"
	EventTypeRoleUpdated              = "role.updated"
	EventTypeRoleDeleted              = "role.deleted"
	EventTypeRolePermissionsChanged   = "role.permissions_changed"
	EventTypePermissionCreated        = "permission.created"
	EventTypeOwnerAssigned            = "ownership.assigned"
	EventTypeOwnerRemoved             = "ownership.removed"
	EventTypeOrganizationBootstrapped = "organization.bootstrap"
)

// AuditedTypes are the event types written to the audit log.
var AuditedTypes = []string{
	EventTypeRoleGranted,
	EventTypeRoleRevoked,
	EventTypeRoleCreated,
	EventTypeRoleUpdated,
	EventTypeRoleDeleted,
	EventTypeRolePermissionsChanged,
	EventTypePermissionCreated,
	EventTypeOwnerAssigned,
	EventTypeOwnerRemoved,
	EventTypeOrganizationBootstrapped,
}

// DomainEvent is a mutation of authorization state. OrganizationID is empty
// for catalog changes, which are not tenant-scoped.
type DomainEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	ActorID        string `json:"actor_id"`
	ResourceType   string `json:"resource_type"`
	ResourceID     string `json:"resource_id"`
}

func newDomainEvent(eventType, orgID, actorID, resourceType, resourceID string, data map[string]interface{}) *DomainEvent {
	return &DomainEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		OrganizationID: orgID,
		ActorID:        actorID,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
	}
}

func NewRoleGrantedEvent(orgID, actorID, assignmentID, profileID, roleID string, isPrimary bool, expiresAt *time.Time) *DomainEvent {
	data := map[string]interface{}{
		"profile_id": profileID,
		"role_id":    roleID,
		"is_primary": isPrimary,
	}
	if expiresAt != nil {
		data["expires_at"] = expiresAt.UTC().Format(time.RFC3339)
	}
	return newDomainEvent(EventTypeRoleGranted, orgID, actorID, "role_assignment", assignmentID, data)
}

func NewRoleRevokedEvent(orgID, actorID, assignmentID, profileID string, at time.Time) *DomainEvent {
	return newDomainEvent(EventTypeRoleRevoked, orgID, actorID, "role_assignment", assignmentID, map[string]interface{}{
		"profile_id": profileID,
		"expires_at": at.UTC().Format(time.RFC3339),
	})
}

func NewRoleCatalogEvent(eventType, actorID, roleID string, data map[string]interface{}) *DomainEvent {
	return newDomainEvent(eventType, "", actorID, "role", roleID, data)
}

func NewPermissionCreatedEvent(actorID, permissionID, key string) *DomainEvent {
	return newDomainEvent(EventTypePermissionCreated, "", actorID, "permission", permissionID, map[string]interface{}{
		"key": key,
	})
}

func NewOwnerAssignedEvent(orgID, actorID, objectType, objectID, userID, relationship string, replaced []string) *DomainEvent {
	data := map[string]interface{}{
		"object_type":  objectType,
		"user_id":      userID,
		"relationship": relationship,
	}
	if len(replaced) > 0 {
		data["replaced_user_ids"] = replaced
	}
	return newDomainEvent(EventTypeOwnerAssigned, orgID, actorID, objectType, objectID, data)
}

func NewOwnerRemovedEvent(orgID, actorID, objectType, objectID, userID, relationship string) *DomainEvent {
	return newDomainEvent(EventTypeOwnerRemoved, orgID, actorID, objectType, objectID, map[string]interface{}{
		"object_type":  objectType,
		"user_id":      userID,
		"relationship": relationship,
	})
}

func NewOrganizationBootstrappedEvent(orgID, adminProfileID string, roles []string) *DomainEvent {
	return newDomainEvent(EventTypeOrganizationBootstrapped, orgID, "system:seed", "organization", orgID, map[string]interface{}{
		"admin_profile_id": adminProfileID,
		"roles":            roles,
	})
}
