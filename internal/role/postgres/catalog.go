package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/database"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) role.CatalogRepositoryAPI {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListRoles(ctx context.Context, includeDeleted bool) ([]*roleDatamodel.Role, error) {
	q := r.db.WithContext(ctx)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var roles []*roleDatamodel.Role
	err := q.Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *CatalogRepository) GetRoleByID(ctx context.Context, id string) (*roleDatamodel.Role, error) {
	return r.firstRole(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetRoleByName includes soft-deleted roles; their names stay reserved.
func (r *CatalogRepository) GetRoleByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	return r.firstRole(r.db.WithContext(ctx).Where("name = ?", name))
}

func (r *CatalogRepository) firstRole(q *gorm.DB) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CreateRole inserts the role and its grants in one transaction; a failed
// grant leaves no role row behind.
func (r *CatalogRepository) CreateRole(ctx context.Context, row *roleDatamodel.Role, permissionIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return internal.ErrDuplicateRole.WithCause(err)
			}
			return err
		}
		return insertGrants(tx, row.ID, permissionIDs)
	})
}

func (r *CatalogRepository) UpdateRole(ctx context.Context, row *roleDatamodel.Role) error {
	err := r.db.WithContext(ctx).Save(row).Error
	if database.IsUniqueViolation(err) {
		return internal.ErrDuplicateRole.WithCause(err)
	}
	return err
}

func (r *CatalogRepository) SoftDeleteRole(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&roleDatamodel.Role{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

func (r *CatalogRepository) ListPermissions(ctx context.Context) ([]*roleDatamodel.Permission, error) {
	var perms []*roleDatamodel.Permission
	err := r.db.WithContext(ctx).Order("permission_key ASC").Find(&perms).Error
	return perms, err
}

func (r *CatalogRepository) GetPermissionsByKeys(ctx context.Context, keys []string) ([]*roleDatamodel.Permission, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var perms []*roleDatamodel.Permission
	err := r.db.WithContext(ctx).Where("permission_key IN ?", keys).Order("permission_key ASC").Find(&perms).Error
	return perms, err
}

func (r *CatalogRepository) CreatePermission(ctx context.Context, row *roleDatamodel.Permission) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if database.IsUniqueViolation(err) {
		return internal.ErrDuplicatePermission.WithCause(err)
	}
	return err
}

func (r *CatalogRepository) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return insertGrants(tx, roleID, permissionIDs)
	})
}

func insertGrants(tx *gorm.DB, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]roleDatamodel.RolePermission, len(permissionIDs))
	for i, id := range permissionIDs {
		rows[i] = roleDatamodel.RolePermission{RoleID: roleID, PermissionID: id}
	}
	return tx.Create(&rows).Error
}

func (r *CatalogRepository) RolePermissionKeys(ctx context.Context, roleID string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("rp.role_id = ?", roleID).
		Order("p.permission_key ASC").
		Pluck("p.permission_key", &keys).Error
	return keys, err
}

func (r *CatalogRepository) PermissionKeysForRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var keys []string
	err := r.db.WithContext(ctx).
		Table("role_permissions AS rp").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Joins("JOIN roles r ON r.id = rp.role_id AND r.deleted_at IS NULL").
		Where("rp.role_id IN ?", roleIDs).
		Distinct("p.permission_key").
		Order("p.permission_key ASC").
		Pluck("p.permission_key", &keys).Error
	return keys, err
}
