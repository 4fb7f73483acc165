package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/database"
	ownershipDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/ownership"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"gorm.io/gorm"
)

const accountable = "accountable"

type OwnershipRepository struct {
	db *gorm.DB
}

func NewOwnershipRepository(db *gorm.DB) ownership.RepositoryAPI {
	return &OwnershipRepository{db: db}
}

func (r *OwnershipRepository) active(db *gorm.DB, scope tenant.Scope, objectType, objectID string) *gorm.DB {
	return scope.Apply(db).
		Where("object_type = ? AND object_id = ? AND removed_at IS NULL", objectType, objectID)
}

func (r *OwnershipRepository) ListActive(ctx context.Context, scope tenant.Scope, objectType, objectID string) ([]*ownershipDatamodel.ObjectOwnership, error) {
	var rows []*ownershipDatamodel.ObjectOwnership
	err := r.active(r.db.WithContext(ctx), scope, objectType, objectID).
		Order("assigned_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *OwnershipRepository) ListActiveForUser(ctx context.Context, scope tenant.Scope, objectType, objectID, userID string) ([]*ownershipDatamodel.ObjectOwnership, error) {
	var rows []*ownershipDatamodel.ObjectOwnership
	err := r.active(r.db.WithContext(ctx), scope, objectType, objectID).
		Where("user_id = ?", userID).
		Order("relationship ASC").
		Find(&rows).Error
	return rows, err
}

func (r *OwnershipRepository) Insert(ctx context.Context, row *ownershipDatamodel.ObjectOwnership) ([]string, error) {
	scope, err := tenant.NewScope(row.OrganizationID)
	if err != nil {
		return nil, err
	}

	var replaced []string
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.Relationship == accountable {
			var current []string
			err := r.active(tx.Model(&ownershipDatamodel.ObjectOwnership{}), scope, row.ObjectType, row.ObjectID).
				Where("relationship = ?", accountable).
				Pluck("user_id", &current).Error
			if err != nil {
				return err
			}
			if len(current) > 0 {
				err = r.active(tx.Model(&ownershipDatamodel.ObjectOwnership{}), scope, row.ObjectType, row.ObjectID).
					Where("relationship = ?", accountable).
					Updates(map[string]interface{}{"removed_at": row.AssignedAt, "removed_by": row.AssignedBy}).Error
				if err != nil {
					return err
				}
			}
			replaced = current
		}
		return tx.Create(row).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, internal.ErrConcurrencyConflict.WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

func (r *OwnershipRepository) Remove(ctx context.Context, scope tenant.Scope, objectType, objectID, userID, relationship string, at time.Time, by string) (bool, error) {
	res := r.active(r.db.WithContext(ctx).Model(&ownershipDatamodel.ObjectOwnership{}), scope, objectType, objectID).
		Where("user_id = ? AND relationship = ?", userID, relationship).
		Updates(map[string]interface{}{"removed_at": at, "removed_by": by})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
