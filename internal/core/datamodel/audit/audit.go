package audit

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID             string            `gorm:"primaryKey;column:id"`
	OrganizationID string            `gorm:"column:organization_id;not null;index:idx_audit_logs_org_created"`
	ActorID        string            `gorm:"column:actor_id"`
	Action         string            `gorm:"column:action;not null"`
	ResourceType   string            `gorm:"column:resource_type;not null"`
	ResourceID     string            `gorm:"column:resource_id"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null;index:idx_audit_logs_org_created"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
