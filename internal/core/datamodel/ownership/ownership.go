package ownership

import "time"

// ObjectOwnership is an RCAI entry. Removal is soft (RemovedAt) so the
// history of who was accountable stays queryable.
type ObjectOwnership struct {
	ID             string     `gorm:"primaryKey;column:id"`
	OrganizationID string     `gorm:"column:organization_id;not null;index:idx_object_ownership_object;uniqueIndex:idx_object_ownership_single_accountable,where:relationship = 'accountable' AND removed_at IS NULL;uniqueIndex:idx_object_ownership_active_entry,where:removed_at IS NULL"`
	ObjectType     string     `gorm:"column:object_type;not null;index:idx_object_ownership_object;uniqueIndex:idx_object_ownership_single_accountable,where:relationship = 'accountable' AND removed_at IS NULL;uniqueIndex:idx_object_ownership_active_entry,where:removed_at IS NULL"`
	ObjectID       string     `gorm:"column:object_id;not null;index:idx_object_ownership_object;uniqueIndex:idx_object_ownership_single_accountable,where:relationship = 'accountable' AND removed_at IS NULL;uniqueIndex:idx_object_ownership_active_entry,where:removed_at IS NULL"`
	UserID         string     `gorm:"column:user_id;not null;uniqueIndex:idx_object_ownership_active_entry,where:removed_at IS NULL"`
	Relationship   string     `gorm:"column:relationship;not null;uniqueIndex:idx_object_ownership_active_entry,where:removed_at IS NULL"`
	AssignedAt     time.Time  `gorm:"column:assigned_at;not null"`
	AssignedBy     string     `gorm:"column:assigned_by"`
	RemovedAt      *time.Time `gorm:"column:removed_at"`
	RemovedBy      string     `gorm:"column:removed_by"`
}

func (ObjectOwnership) TableName() string {
	return "object_ownership"
}
