package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/workforce-authz/internal"
	identityDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/identity"
	"github.com/frahmantamala/workforce-authz/internal/core/metrics"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
)

// RepositoryAPI returns nil, nil when a profile does not exist.
type RepositoryAPI interface {
	FindByAuthID(ctx context.Context, authID string) (*identityDatamodel.UserProfile, error)
	FindByID(ctx context.Context, profileID string) (*identityDatamodel.UserProfile, error)
	ListByOrganization(ctx context.Context, scope tenant.Scope) ([]*identityDatamodel.UserProfile, error)
	// Insert adds row unless a profile with the same id exists. It reports
	// whether a row was written.
	Insert(ctx context.Context, row *identityDatamodel.UserProfile) (bool, error)
}

type Service struct {
	repo           RepositoryAPI
	legacyFallback bool
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, legacyFallback bool, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		legacyFallback: legacyFallback,
		logger:         logger,
	}
}

func (s *Service) Resolve(ctx context.Context, authID string) (Resolution, error) {
	authID = strings.TrimSpace(authID)
	if authID == "" {
		return Unmapped{RawID: authID}, nil
	}

	row, err := s.repo.FindByAuthID(ctx, authID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to look up auth id", "error", err)
		return nil, err
	}
	if row == nil {
		return Unmapped{RawID: authID}, nil
	}
	return Mapped{ProfileID: row.ID, OrganizationID: row.OrganizationID, IsActive: row.IsActive}, nil
}

// ResolveCaller turns a verified auth id into a Caller. An unmapped id is
// retried as a profile id when the legacy fallback is enabled; each use of
// the fallback is logged so the remaining legacy accounts can be migrated.
func (s *Service) ResolveCaller(ctx context.Context, authID string) (Caller, error) {
	res, err := s.Resolve(ctx, authID)
	if err != nil {
		return Caller{}, err
	}

	var (
		caller   Caller
		isActive bool
	)
	switch r := res.(type) {
	case Mapped:
		caller = Caller{AuthID: authID, ProfileID: r.ProfileID, OrganizationID: r.OrganizationID}
		isActive = r.IsActive
	case Unmapped:
		if !s.legacyFallback || r.RawID == "" {
			return Caller{}, internal.ErrUnknownIdentity
		}
		s.logger.WarnContext(ctx, "legacy identity fallback: treating auth id as profile id", "raw_id", r.RawID)
		metrics.LegacyIdentityFallbacks.Inc()

		row, err := s.repo.FindByID(ctx, r.RawID)
		if err != nil {
			return Caller{}, err
		}
		if row == nil {
			return Caller{}, internal.ErrUnknownIdentity
		}
		caller = Caller{AuthID: authID, ProfileID: row.ID, OrganizationID: row.OrganizationID, Legacy: true}
		isActive = row.IsActive
	}

	if !isActive {
		s.logger.WarnContext(ctx, "inactive profile attempted access", "profile_id", caller.ProfileID)
		return Caller{}, internal.ErrUserInactive
	}
	return caller, nil
}

// ProfileInScope loads a profile that must belong to scope's organization.
// A profile of another organization yields ErrCrossTenantAccess, which
// renders the same as a missing one.
func (s *Service) ProfileInScope(ctx context.Context, scope tenant.Scope, profileID string) (*Profile, error) {
	row, err := s.repo.FindByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrResourceNotFound
	}
	if !scope.Contains(row.OrganizationID) {
		s.logger.WarnContext(ctx, "cross-tenant profile reference denied",
			"caller_organization_id", scope.OrganizationID(),
			"target_organization_id", row.OrganizationID,
			"profile_id", profileID)
		return nil, internal.ErrCrossTenantAccess
	}
	return FromDataModel(row), nil
}

func (s *Service) ListProfiles(ctx context.Context, scope tenant.Scope) ([]*Profile, error) {
	rows, err := s.repo.ListByOrganization(ctx, scope)
	if err != nil {
		return nil, err
	}
	profiles := make([]*Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, FromDataModel(row))
	}
	return profiles, nil
}

// EnsureProfile creates the profile when it is missing. An existing profile
// with the same id must already belong to scope's organization.
func (s *Service) EnsureProfile(ctx context.Context, scope tenant.Scope, profileID, authID, email string) (*Profile, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, internal.NewValidationFieldError("profile_id", "profile_id is required", internal.ErrCodeValidationFailed)
	}
	row := &identityDatamodel.UserProfile{
		ID:             profileID,
		OrganizationID: scope.OrganizationID(),
		Email:          email,
		DisplayName:    email,
		IsActive:       true,
	}
	if authID = strings.TrimSpace(authID); authID != "" {
		row.AuthID = &authID
	}
	created, err := s.repo.Insert(ctx, row)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert profile", "profile_id", profileID, "error", err)
		return nil, err
	}
	if created {
		s.logger.InfoContext(ctx, "profile created", "profile_id", profileID, "organization_id", scope.OrganizationID())
	}
	return s.ProfileInScope(ctx, scope, profileID)
}
