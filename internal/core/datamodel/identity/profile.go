package identity

import "time"

// UserProfile is one row of user_profiles. A profile belongs to exactly one
// organization; auth_id is null for profiles created before auth provider
// ids were recorded.
type UserProfile struct {
	ID             string    `db:"id" gorm:"primaryKey;column:id"`
	AuthID         *string   `db:"auth_id" gorm:"column:auth_id;uniqueIndex"`
	OrganizationID string    `db:"organization_id" gorm:"column:organization_id;index;not null"`
	Email          string    `db:"email" gorm:"column:email"`
	DisplayName    string    `db:"display_name" gorm:"column:display_name"`
	IsActive       bool      `db:"is_active" gorm:"column:is_active;not null"`
	CreatedAt      time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
