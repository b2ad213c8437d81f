package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	"github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Node        *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	FeatureRepo featuredomain.Repository
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	node        *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	featureRepo featuredomain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("environment.service"),
		node:        p.Node,
		clock:       p.Clock,
		repo:        p.Repo,
		featureRepo: p.FeatureRepo,
	}
}

// newAPIKey derives the opaque environment key clients present in
// X-Environment-Key.
func newAPIKey() string {
	return "env." + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Environment, error) {
	if req.ProjectID == 0 {
		return nil, domain.ErrInvalidProject
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now(ctx)
	env := &domain.Environment{
		ID:        s.node.Generate(),
		ProjectID: req.ProjectID,
		Name:      name,
		APIKey:    newAPIKey(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, env); err != nil {
			return err
		}
		// New environments get one default state per existing feature,
		// mirroring the fan-out done on feature creation.
		features, err := s.featureRepo.ListByProject(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}
		for _, f := range features {
			state := &featuredomain.FeatureState{
				ID:            s.node.Generate(),
				FeatureID:     f.ID,
				EnvironmentID: env.ID,
				Enabled:       f.DefaultEnabled,
				Value:         f.InitialValue,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.featureRepo.CreateState(ctx, tx, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to create environment", zap.Error(err))
		return nil, err
	}
	return env, nil
}

func (s *service) Get(ctx context.Context, projectID, id snowflake.ID) (*domain.Environment, error) {
	env, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, domain.ErrNotFound
	}
	return env, nil
}

func (s *service) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Environment, error) {
	env, err := s.repo.FindByAPIKey(ctx, s.db, apiKey)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, domain.ErrNotFound
	}
	return env, nil
}

func (s *service) ListByProject(ctx context.Context, projectID snowflake.ID) ([]domain.Environment, error) {
	return s.repo.ListByProject(ctx, s.db, projectID)
}

func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Environment, error) {
	env, err := s.Get(ctx, req.ProjectID, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		env.Name = name
	}
	env.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, env); err != nil {
		s.log.Error("failed to update environment", zap.Error(err))
		return nil, err
	}
	return env, nil
}

func (s *service) Delete(ctx context.Context, projectID, id snowflake.ID) error {
	env, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return err
	}
	if env == nil {
		return domain.ErrNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, projectID, id)
	})
}

func (s *service) GetOrCreateIdentity(ctx context.Context, environmentID snowflake.ID, identifier string) (*domain.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.ErrInvalidIdentifier
	}

	identity, err := s.repo.FindIdentity(ctx, s.db, environmentID, identifier)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		return identity, nil
	}

	identity = &domain.Identity{
		ID:            s.node.Generate(),
		EnvironmentID: environmentID,
		Identifier:    identifier,
		CreatedAt:     s.clock.Now(ctx),
	}
	if err := s.repo.CreateIdentity(ctx, s.db, identity); err != nil {
		// Concurrent first-sight of the same identifier: the unique
		// index wins, re-read the row the other writer created.
		existing, findErr := s.repo.FindIdentity(ctx, s.db, environmentID, identifier)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return identity, nil
}

func (s *service) ListIdentities(ctx context.Context, req domain.ListIdentitiesRequest) (*domain.ListIdentitiesResponse, error) {
	if req.EnvironmentID == 0 {
		return nil, domain.ErrNotFound
	}
	// The cursor fixes the ordering at id desc; accepting sort
	// parameters on continuation pages would reorder mid-listing.
	if req.PageToken != "" && (req.SortBy != "" || req.OrderBy != "") {
		return nil, domain.ErrInvalidSort
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListIdentities(ctx, s.db, req, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item domain.Identity) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	return &domain.ListIdentitiesResponse{Identities: items, PageInfo: *pageInfo}, nil
}

func (s *service) ListTraits(ctx context.Context, identityID snowflake.ID) ([]domain.Trait, error) {
	return s.repo.ListTraits(ctx, s.db, identityID)
}

func (s *service) UpsertTrait(ctx context.Context, req domain.TraitRequest) (*domain.Trait, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, domain.ErrInvalidTraitKey
	}

	identity, err := s.GetOrCreateIdentity(ctx, req.EnvironmentID, req.Identifier)
	if err != nil {
		return nil, err
	}

	value := flagvalue.Infer(req.Value)
	var result *domain.Trait
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindTraitForUpdate(ctx, tx, identity.ID, key)
		if err != nil {
			return err
		}

		// nil value is a delete; deleting an absent trait is a no-op.
		if value.IsNull() {
			if existing == nil {
				return nil
			}
			return s.repo.DeleteTrait(ctx, tx, existing.ID)
		}

		now := s.clock.Now(ctx)
		if existing != nil {
			existing.Value = value
			existing.UpdatedAt = now
			result = existing
			return s.repo.UpdateTrait(ctx, tx, existing)
		}
		result = &domain.Trait{
			ID:         s.node.Generate(),
			IdentityID: identity.ID,
			Key:        key,
			Value:      value,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.repo.CreateTrait(ctx, tx, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) IncrementTrait(ctx context.Context, req domain.IncrementRequest) (*domain.Trait, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, domain.ErrInvalidTraitKey
	}

	identity, err := s.GetOrCreateIdentity(ctx, req.EnvironmentID, req.Identifier)
	if err != nil {
		return nil, err
	}

	var result *domain.Trait
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindTraitForUpdate(ctx, tx, identity.ID, key)
		if err != nil {
			return err
		}

		now := s.clock.Now(ctx)
		if existing == nil {
			result = &domain.Trait{
				ID:         s.node.Generate(),
				IdentityID: identity.ID,
				Key:        key,
				Value:      flagvalue.Integer(req.IncrementBy),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			return s.repo.CreateTrait(ctx, tx, result)
		}
		if existing.Value.Type != flagvalue.TypeInteger {
			return domain.ErrTraitNotInteger
		}
		existing.Value = flagvalue.Integer(existing.Value.Int + req.IncrementBy)
		existing.UpdatedAt = now
		result = existing
		return s.repo.UpdateTrait(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) BulkUpsertTraits(ctx context.Context, environmentID snowflake.ID, items []domain.TraitRequest) []domain.BulkTraitResult {
	results := make([]domain.BulkTraitResult, 0, len(items))
	for _, item := range items {
		item.EnvironmentID = environmentID
		trait, err := s.UpsertTrait(ctx, item)
		res := domain.BulkTraitResult{Key: item.Key, Trait: trait, Err: err}
		if err == nil && trait == nil {
			res.Deleted = true
		}
		if err != nil {
			s.log.Warn("bulk trait item failed",
				zap.String("trait_key", item.Key),
				zap.Error(err))
		}
		results = append(results, res)
	}
	return results
}
