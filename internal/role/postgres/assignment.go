package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/database"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"gorm.io/gorm"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) role.AssignmentRepositoryAPI {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) ListActive(ctx context.Context, profileID string, filter tenant.Filter, now time.Time) ([]*roleDatamodel.RoleAssignment, error) {
	q := r.db.WithContext(ctx).
		Table("role_assignments AS ra").
		Select("ra.*, r.name AS role_name").
		Joins("JOIN roles r ON r.id = ra.role_id AND r.deleted_at IS NULL").
		Where("ra.user_id = ?", profileID).
		Where("(ra.expires_at IS NULL OR ra.expires_at > ?)", now)
	q = filter.ApplyColumn(q, "ra.organization_id")

	var rows []*roleDatamodel.RoleAssignment
	err := q.Order("ra.is_primary DESC, ra.granted_at DESC").Find(&rows).Error
	return rows, err
}

func (r *AssignmentRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*roleDatamodel.RoleAssignment, error) {
	var row roleDatamodel.RoleAssignment
	err := scope.Apply(r.db.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *AssignmentRepository) Grant(ctx context.Context, row *roleDatamodel.RoleAssignment) error {
	scope, err := tenant.NewScope(row.OrganizationID)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.IsPrimary {
			demote := scope.Apply(tx.Model(&roleDatamodel.RoleAssignment{})).
				Where("user_id = ? AND is_primary = ?", row.UserID, true).
				Update("is_primary", false)
			if demote.Error != nil {
				return demote.Error
			}
		}
		return tx.Create(row).Error
	})
	if database.IsUniqueViolation(err) {
		return internal.ErrConcurrencyConflict.WithCause(err)
	}
	return err
}

func (r *AssignmentRepository) Expire(ctx context.Context, scope tenant.Scope, id string, at time.Time) (bool, error) {
	res := scope.Apply(r.db.WithContext(ctx).Model(&roleDatamodel.RoleAssignment{})).
		Where("id = ?", id).
		Where("(expires_at IS NULL OR expires_at > ?)", at).
		Update("expires_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
