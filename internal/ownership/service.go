package ownership

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/core/conflict"
	ownershipDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/ownership"
	"github.com/frahmantamala/workforce-authz/internal/core/events"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ids"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

// RepositoryAPI reads and writes active (not removed) ownership entries.
type RepositoryAPI interface {
	ListActive(ctx context.Context, scope tenant.Scope, objectType, objectID string) ([]*ownershipDatamodel.ObjectOwnership, error)
	ListActiveForUser(ctx context.Context, scope tenant.Scope, objectType, objectID, userID string) ([]*ownershipDatamodel.ObjectOwnership, error)
	// Insert writes row. For an accountable row it first removes the
	// object's current accountable entry in the same transaction and
	// returns the users it replaced.
	Insert(ctx context.Context, row *ownershipDatamodel.ObjectOwnership) ([]string, error)
	// Remove soft-removes one active entry and reports whether it existed.
	Remove(ctx context.Context, scope tenant.Scope, objectType, objectID, userID, relationship string, at time.Time, by string) (bool, error)
}

type ProfileLookup interface {
	ProfileInScope(ctx context.Context, scope tenant.Scope, profileID string) (*identity.Profile, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type AssignRequest struct {
	Object       ObjectRef
	UserID       string
	Relationship Relationship
	AssignedBy   string
}

type Service struct {
	repo      RepositoryAPI
	profiles  ProfileLookup
	publisher EventPublisher
	clock     clock.Clock
	retry     conflict.Policy
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, profiles ProfileLookup, publisher EventPublisher, clk clock.Clock, retry conflict.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		profiles:  profiles,
		publisher: publisher,
		clock:     clk,
		retry:     retry,
		logger:    logger,
	}
}

func (s *Service) GetOwners(ctx context.Context, scope tenant.Scope, ref ObjectRef) (Owners, error) {
	rows, err := s.repo.ListActive(ctx, scope, string(ref.Type), ref.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list owners", "object_type", ref.Type, "object_id", ref.ID, "error", err)
		return nil, err
	}
	owners := Owners{}
	for _, row := range rows {
		rel := Relationship(row.Relationship)
		owners[rel] = append(owners[rel], row.UserID)
	}
	for rel := range owners {
		sort.Strings(owners[rel])
	}
	return owners, nil
}

// Assign records that the user holds relationship on the object. Assigning
// an Accountable owner replaces the previous one atomically. Assigning a
// relationship the user already holds changes nothing.
func (s *Service) Assign(ctx context.Context, scope tenant.Scope, req AssignRequest) (*Entry, error) {
	if _, err := ParseRelationship(string(req.Relationship)); err != nil {
		return nil, err
	}
	if _, err := ParseObjectType(string(req.Object.Type)); err != nil {
		return nil, err
	}
	if _, err := s.profiles.ProfileInScope(ctx, scope, req.UserID); err != nil {
		return nil, err
	}

	var (
		entry    *Entry
		replaced []string
		created  bool
	)
	err := s.retry.Do(ctx, "ownership.assign", func(ctx context.Context) error {
		current, err := s.repo.ListActiveForUser(ctx, scope, string(req.Object.Type), req.Object.ID, req.UserID)
		if err != nil {
			return err
		}
		for _, row := range current {
			if Relationship(row.Relationship) == req.Relationship {
				entry, created = EntryFromDataModel(row), false
				return nil
			}
		}

		candidate := &Entry{
			ID:             ids.New(),
			OrganizationID: scope.OrganizationID(),
			Object:         req.Object,
			UserID:         req.UserID,
			Relationship:   req.Relationship,
			AssignedAt:     s.clock.Now(),
			AssignedBy:     req.AssignedBy,
		}
		replaced, err = s.repo.Insert(ctx, candidate.ToDataModel())
		if err != nil {
			return err
		}
		entry, created = candidate, true
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to assign owner",
			"object_type", req.Object.Type,
			"object_id", req.Object.ID,
			"user_id", req.UserID,
			"relationship", req.Relationship,
			"error", err)
		return nil, err
	}
	if !created {
		return entry, nil
	}

	s.logger.InfoContext(ctx, "owner assigned",
		"object_type", req.Object.Type,
		"object_id", req.Object.ID,
		"user_id", req.UserID,
		"relationship", req.Relationship,
		"replaced", replaced)
	s.publish(ctx, events.NewOwnerAssignedEvent(scope.OrganizationID(), req.AssignedBy, string(req.Object.Type), req.Object.ID, req.UserID, string(req.Relationship), replaced))
	return entry, nil
}

// Unassign ends one active relationship. The entry stays in history.
func (s *Service) Unassign(ctx context.Context, scope tenant.Scope, ref ObjectRef, userID string, rel Relationship, actorID string) error {
	if _, err := ParseRelationship(string(rel)); err != nil {
		return err
	}
	removed, err := s.repo.Remove(ctx, scope, string(ref.Type), ref.ID, userID, string(rel), s.clock.Now(), actorID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to remove owner", "object_type", ref.Type, "object_id", ref.ID, "error", err)
		return err
	}
	if !removed {
		return internal.ErrResourceNotFound
	}
	s.logger.InfoContext(ctx, "owner removed", "object_type", ref.Type, "object_id", ref.ID, "user_id", userID, "relationship", rel)
	s.publish(ctx, events.NewOwnerRemovedEvent(scope.OrganizationID(), actorID, string(ref.Type), ref.ID, userID, string(rel)))
	return nil
}

// EffectivePermissionsFromOwnership is the union of the policy grants of
// every relationship the user holds on the object.
func (s *Service) EffectivePermissionsFromOwnership(ctx context.Context, scope tenant.Scope, ref ObjectRef, userID string) (permission.Set, error) {
	rows, err := s.repo.ListActiveForUser(ctx, scope, string(ref.Type), ref.ID, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load ownership", "object_type", ref.Type, "object_id", ref.ID, "error", err)
		return nil, err
	}
	rels := make([]Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, Relationship(row.Relationship))
	}
	return PermissionsFor(ref.Type, rels...), nil
}

// Relationships lists what the user holds on the object, for explanations.
func (s *Service) Relationships(ctx context.Context, scope tenant.Scope, ref ObjectRef, userID string) ([]Relationship, error) {
	rows, err := s.repo.ListActiveForUser(ctx, scope, string(ref.Type), ref.ID, userID)
	if err != nil {
		return nil, err
	}
	rels := make([]Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, Relationship(row.Relationship))
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })
	return rels, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event", "event_type", event.EventType(), "error", err)
	}
}
