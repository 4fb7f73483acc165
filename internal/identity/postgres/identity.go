package postgres

import (
	"context"
	"database/sql"
	"errors"

	identityDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/identity"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/jmoiron/sqlx"
)

const selectProfile = `SELECT id, auth_id, organization_id, email, display_name, is_active, created_at, updated_at FROM user_profiles`

type IdentityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) identity.RepositoryAPI {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) FindByAuthID(ctx context.Context, authID string) (*identityDatamodel.UserProfile, error) {
	return r.getOne(ctx, selectProfile+` WHERE auth_id = $1`, authID)
}

func (r *IdentityRepository) FindByID(ctx context.Context, profileID string) (*identityDatamodel.UserProfile, error) {
	return r.getOne(ctx, selectProfile+` WHERE id = $1`, profileID)
}

func (r *IdentityRepository) ListByOrganization(ctx context.Context, scope tenant.Scope) ([]*identityDatamodel.UserProfile, error) {
	var rows []*identityDatamodel.UserProfile
	err := r.db.SelectContext(ctx, &rows, selectProfile+` WHERE organization_id = $1 ORDER BY display_name ASC, id ASC`, scope.OrganizationID())
	return rows, err
}

func (r *IdentityRepository) Insert(ctx context.Context, row *identityDatamodel.UserProfile) (bool, error) {
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO user_profiles (id, auth_id, organization_id, email, display_name, is_active, created_at, updated_at)
		VALUES (:id, :auth_id, :organization_id, :email, :display_name, :is_active, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING`, row)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *IdentityRepository) getOne(ctx context.Context, query string, args ...interface{}) (*identityDatamodel.UserProfile, error) {
	var row identityDatamodel.UserProfile
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
