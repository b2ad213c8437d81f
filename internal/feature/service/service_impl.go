package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	"github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Node    *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	EnvRepo envdomain.Repository
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	node    *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	envRepo envdomain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("feature.service"),
		node:    p.Node,
		clock:   p.Clock,
		repo:    p.Repo,
		envRepo: p.EnvRepo,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Feature, error) {
	if req.ProjectID == 0 {
		return nil, domain.ErrInvalidProject
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.KindFlag
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	// Uniqueness is case-insensitive within the project.
	existing, err := s.repo.FindByName(ctx, s.db, req.ProjectID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	now := s.clock.Now(ctx)
	feature := &domain.Feature{
		ID:             s.node.Generate(),
		ProjectID:      req.ProjectID,
		Name:           name,
		Kind:           kind,
		Description:    req.Description,
		DefaultEnabled: req.DefaultEnabled,
		InitialValue:   flagvalue.Infer(req.InitialValue),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, feature); err != nil {
			return err
		}
		// Every environment in the project gets a default state row,
		// seeded from the feature's default enabled flag and initial
		// value. The resolution engine relies on this baseline existing.
		environments, err := s.envRepo.ListByProject(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}
		for _, env := range environments {
			state := &domain.FeatureState{
				ID:            s.node.Generate(),
				FeatureID:     feature.ID,
				EnvironmentID: env.ID,
				Enabled:       feature.DefaultEnabled,
				Value:         feature.InitialValue,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.CreateState(ctx, tx, state); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to create feature", zap.Error(err))
		return nil, err
	}
	return feature, nil
}

func (s *service) Get(ctx context.Context, projectID, id snowflake.ID) (*domain.Feature, error) {
	f, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (s *service) ListByProject(ctx context.Context, projectID snowflake.ID) ([]domain.Feature, error) {
	return s.repo.ListByProject(ctx, s.db, projectID)
}

func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Feature, error) {
	f, err := s.Get(ctx, req.ProjectID, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if !strings.EqualFold(name, f.Name) {
			existing, err := s.repo.FindByName(ctx, s.db, req.ProjectID, name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, domain.ErrDuplicateName
			}
		}
		f.Name = name
	}
	if req.Description != nil {
		f.Description = req.Description
	}
	if req.Kind != nil {
		if !req.Kind.Valid() {
			return nil, domain.ErrInvalidKind
		}
		f.Kind = *req.Kind
	}
	f.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, f); err != nil {
		s.log.Error("failed to update feature", zap.Error(err))
		return nil, err
	}
	return f, nil
}

// Delete removes the feature with its states and segment overrides in
// one transaction, the inverse of the creation fan-out.
func (s *service) Delete(ctx context.Context, projectID, id snowflake.ID) error {
	f, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return err
	}
	if f == nil {
		return domain.ErrNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteStatesByFeature(ctx, tx, id); err != nil {
			return err
		}
		if err := s.repo.DeleteFeatureSegmentsByFeature(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, projectID, id)
	})
}

func (s *service) SetEnvironmentState(ctx context.Context, req domain.SetStateRequest) (*domain.FeatureState, error) {
	state, err := s.repo.FindEnvironmentState(ctx, s.db, req.FeatureID, req.EnvironmentID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrStateNotFound
	}
	state.Enabled = req.Enabled
	state.Value = flagvalue.Infer(req.Value)
	state.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.UpdateState(ctx, s.db, state); err != nil {
		s.log.Error("failed to update environment state", zap.Error(err))
		return nil, err
	}
	return state, nil
}

func (s *service) SetIdentityState(ctx context.Context, req domain.SetStateRequest) (*domain.FeatureState, error) {
	identity, err := s.envRepo.FindIdentityByID(ctx, s.db, req.IdentityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, envdomain.ErrIdentityNotFound
	}

	now := s.clock.Now(ctx)
	state, err := s.repo.FindIdentityState(ctx, s.db, req.FeatureID, req.IdentityID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		state.Enabled = req.Enabled
		state.Value = flagvalue.Infer(req.Value)
		state.UpdatedAt = now
		if err := s.repo.UpdateState(ctx, s.db, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	identityID := req.IdentityID
	state = &domain.FeatureState{
		ID:            s.node.Generate(),
		FeatureID:     req.FeatureID,
		EnvironmentID: identity.EnvironmentID,
		IdentityID:    &identityID,
		Enabled:       req.Enabled,
		Value:         flagvalue.Infer(req.Value),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateState(ctx, s.db, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *service) RemoveIdentityState(ctx context.Context, featureID, identityID snowflake.ID) error {
	state, err := s.repo.FindIdentityState(ctx, s.db, featureID, identityID)
	if err != nil {
		return err
	}
	if state == nil {
		return domain.ErrStateNotFound
	}
	return s.repo.DeleteState(ctx, s.db, state.ID)
}

func (s *service) CreateFeatureSegment(ctx context.Context, req domain.FeatureSegmentRequest) (*domain.FeatureSegment, error) {
	if req.EnvironmentID == 0 {
		return nil, domain.ErrInvalidEnvironment
	}

	// Priority collisions within (feature, environment) are rejected so
	// the engine's ordering stays total.
	siblings, err := s.repo.ListFeatureSegments(ctx, s.db, req.FeatureID, req.EnvironmentID)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.Priority == req.Priority {
			return nil, domain.ErrDuplicatePriority
		}
	}

	fs := &domain.FeatureSegment{
		ID:            s.node.Generate(),
		FeatureID:     req.FeatureID,
		SegmentID:     req.SegmentID,
		EnvironmentID: req.EnvironmentID,
		Enabled:       req.Enabled,
		Value:         flagvalue.Infer(req.Value),
		Priority:      req.Priority,
		CreatedAt:     s.clock.Now(ctx),
	}
	if err := s.repo.CreateFeatureSegment(ctx, s.db, fs); err != nil {
		s.log.Error("failed to create feature segment", zap.Error(err))
		return nil, err
	}
	return fs, nil
}

func (s *service) ListFeatureSegments(ctx context.Context, featureID, environmentID snowflake.ID) ([]domain.FeatureSegment, error) {
	return s.repo.ListFeatureSegments(ctx, s.db, featureID, environmentID)
}

func (s *service) DeleteFeatureSegment(ctx context.Context, id snowflake.ID) error {
	fs, err := s.repo.FindFeatureSegment(ctx, s.db, id)
	if err != nil {
		return err
	}
	if fs == nil {
		return domain.ErrSegmentNotFound
	}
	return s.repo.DeleteFeatureSegment(ctx, s.db, id)
}
