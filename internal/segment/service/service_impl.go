package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	"github.com/flagforgelabs/flagforge/internal/segment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Node  *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	node  *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("segment.service"),
		node:  p.Node,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Segment, error) {
	if req.ProjectID == 0 {
		return nil, domain.ErrInvalidProject
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	rules, err := s.buildRules(req.Rules)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	seg := &domain.Segment{
		ID:          s.node.Generate(),
		ProjectID:   req.ProjectID,
		Name:        name,
		Description: req.Description,
		Rules:       rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, seg)
	})
	if err != nil {
		s.log.Error("failed to create segment", zap.Error(err))
		return nil, err
	}
	return seg, nil
}

// buildRules validates the incoming tree and assigns IDs. Conditions
// other than percentage splits must name a trait property; split
// conditions must not.
func (s *service) buildRules(inputs []domain.RuleInput) ([]domain.SegmentRule, error) {
	rules := make([]domain.SegmentRule, 0, len(inputs))
	for _, in := range inputs {
		if !in.Type.Valid() {
			return nil, domain.ErrInvalidRuleType
		}
		rule := domain.SegmentRule{
			ID:   s.node.Generate(),
			Type: in.Type,
		}
		for _, cond := range in.Conditions {
			if !cond.Operator.Valid() {
				return nil, domain.ErrInvalidOperator
			}
			if cond.Operator != domain.OperatorPercentageSplit && strings.TrimSpace(cond.Property) == "" {
				return nil, domain.ErrInvalidCondition
			}
			rule.Conditions = append(rule.Conditions, domain.Condition{
				ID:       s.node.Generate(),
				RuleID:   rule.ID,
				Operator: cond.Operator,
				Property: strings.TrimSpace(cond.Property),
				Value:    cond.Value,
			})
		}
		nested, err := s.buildRules(in.Rules)
		if err != nil {
			return nil, err
		}
		rule.Rules = nested
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s *service) Get(ctx context.Context, projectID, id snowflake.ID) (*domain.Segment, error) {
	seg, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, domain.ErrNotFound
	}
	return seg, nil
}

func (s *service) ListByProject(ctx context.Context, projectID snowflake.ID) ([]domain.Segment, error) {
	return s.repo.ListByProject(ctx, s.db, projectID)
}

func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Segment, error) {
	seg, err := s.Get(ctx, req.ProjectID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		seg.Name = name
	}
	if req.Description != nil {
		seg.Description = req.Description
	}

	var rules []domain.SegmentRule
	if req.Rules != nil {
		rules, err = s.buildRules(req.Rules)
		if err != nil {
			return nil, err
		}
		seg.Rules = rules
	}
	seg.UpdatedAt = s.clock.Now(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, seg); err != nil {
			return err
		}
		if req.Rules != nil {
			return s.repo.ReplaceRules(ctx, tx, seg)
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to update segment", zap.Error(err))
		return nil, err
	}
	return seg, nil
}

func (s *service) Delete(ctx context.Context, projectID, id snowflake.ID) error {
	seg, err := s.repo.FindByID(ctx, s.db, projectID, id)
	if err != nil {
		return err
	}
	if seg == nil {
		return domain.ErrNotFound
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, projectID, id)
	})
}
