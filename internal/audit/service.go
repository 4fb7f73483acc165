package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"

	auditDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/audit"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/ids"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"gorm.io/datatypes"
)

type RepositoryAPI interface {
	Insert(ctx context.Context, row *auditDatamodel.AuditLog) error
	List(ctx context.Context, filter tenant.Filter, q Query) ([]*auditDatamodel.AuditLog, error)
	// Get returns nil when no entry with id exists in the scope.
	Get(ctx context.Context, scope tenant.Scope, id string) (*auditDatamodel.AuditLog, error)
	// ByActorBetween lists the actor's entries created in [from, to],
	// oldest first, leaving out excludeID.
	ByActorBetween(ctx context.Context, scope tenant.Scope, actorID string, from, to time.Time, excludeID string, limit int) ([]*auditDatamodel.AuditLog, error)
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Subscribe registers Record for every audited event type.
func (s *Service) Subscribe(bus Subscriber) {
	for _, eventType := range events.AuditedTypes {
		bus.Subscribe(eventType, s.Record)
	}
}

// Record writes one domain event to the audit log.
func (s *Service) Record(ctx context.Context, event events.Event) error {
	domain, ok := event.(*events.DomainEvent)
	if !ok {
		return fmt.Errorf("audit: unsupported event %T", event)
	}

	row := &auditDatamodel.AuditLog{
		ID:             ids.New(),
		OrganizationID: domain.OrganizationID,
		ActorID:        domain.ActorID,
		Action:         domain.EventType(),
		ResourceType:   domain.ResourceType,
		ResourceID:     domain.ResourceID,
		CreatedAt:      domain.OccurredAt().UTC(),
	}
	if data, ok := domain.Payload().(map[string]interface{}); ok && len(data) > 0 {
		row.Metadata = datatypes.JSONMap(data)
	}
	row.Metadata = withEventID(row.Metadata, domain.EventID())

	if err := s.repo.Insert(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit log",
			"event_type", domain.EventType(),
			"event_id", domain.EventID(),
			"error", err)
		return err
	}
	return nil
}

func withEventID(m datatypes.JSONMap, id string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range m {
		out[k] = v
	}
	out["event_id"] = id
	return out
}

// List returns the organization's audit entries, newest first.
func (s *Service) List(ctx context.Context, scope tenant.Scope, q Query) ([]*Entry, error) {
	rows, err := s.repo.List(ctx, tenant.In(scope), q.normalized())
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, EntryFromDataModel(row))
	}
	return out, nil
}

// Get returns one entry of the organization with the same actor's entries
// recorded within RelatedWindow of it. Entries of other organizations are
// reported as not found.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, id string) (*Detail, error) {
	if scope.IsZero() {
		return nil, internal.ErrOrganizationRequired
	}
	row, err := s.repo.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrResourceNotFound
	}

	detail := &Detail{Entry: EntryFromDataModel(row), Related: []*Entry{}}
	if row.ActorID == "" {
		return detail, nil
	}
	related, err := s.repo.ByActorBetween(ctx, scope, row.ActorID,
		row.CreatedAt.Add(-RelatedWindow), row.CreatedAt.Add(RelatedWindow), row.ID, RelatedLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range related {
		detail.Related = append(detail.Related, EntryFromDataModel(r))
	}
	return detail, nil
}
