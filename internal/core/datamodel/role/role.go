package role

import "time"

type Role struct {
	ID           string     `gorm:"primaryKey;column:id"`
	Name         string     `gorm:"column:name;uniqueIndex;not null"`
	Category     string     `gorm:"column:category"`
	Description  string     `gorm:"column:description"`
	IsSystemRole bool       `gorm:"column:is_system_role;default:false"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          string    `gorm:"primaryKey;column:id"`
	Key         string    `gorm:"column:permission_key;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	RoleID       string    `gorm:"primaryKey;column:role_id"`
	PermissionID string    `gorm:"primaryKey;column:permission_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// RoleAssignment rows are never deleted; revocation sets ExpiresAt.
// idx_role_assignments_single_primary allows one flagged row per user and
// organization.
type RoleAssignment struct {
	ID             string     `gorm:"primaryKey;column:id"`
	UserID         string     `gorm:"column:user_id;not null;index:idx_role_assignments_user_org;uniqueIndex:idx_role_assignments_single_primary,where:is_primary = true"`
	RoleID         string     `gorm:"column:role_id;not null"`
	OrganizationID string     `gorm:"column:organization_id;not null;index:idx_role_assignments_user_org;uniqueIndex:idx_role_assignments_single_primary,where:is_primary = true"`
	IsPrimary      bool       `gorm:"column:is_primary;not null;default:false"`
	GrantedAt      time.Time  `gorm:"column:granted_at;not null"`
	GrantedBy      string     `gorm:"column:granted_by"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`

	RoleName string `gorm:"->;-:migration;column:role_name"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}
