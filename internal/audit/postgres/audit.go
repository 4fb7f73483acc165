package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/workforce-authz/internal/audit"
	auditDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/audit"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, row *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *AuditRepository) List(ctx context.Context, filter tenant.Filter, q audit.Query) ([]*auditDatamodel.AuditLog, error) {
	db := filter.Apply(r.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{}))
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.ResourceType != "" {
		db = db.Where("resource_type = ?", q.ResourceType)
	}
	if q.ResourceID != "" {
		db = db.Where("resource_id = ?", q.ResourceID)
	}
	if q.ActorID != "" {
		db = db.Where("actor_id = ?", q.ActorID)
	}
	if q.Since != nil {
		db = db.Where("created_at >= ?", q.Since.UTC())
	}

	var rows []*auditDatamodel.AuditLog
	err := db.Order("created_at DESC, id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error
	return rows, err
}

func (r *AuditRepository) Get(ctx context.Context, scope tenant.Scope, id string) (*auditDatamodel.AuditLog, error) {
	var row auditDatamodel.AuditLog
	err := scope.Apply(r.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{})).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *AuditRepository) ByActorBetween(ctx context.Context, scope tenant.Scope, actorID string, from, to time.Time, excludeID string, limit int) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := scope.Apply(r.db.WithContext(ctx).Model(&auditDatamodel.AuditLog{})).
		Where("actor_id = ?", actorID).
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Where("id <> ?", excludeID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
