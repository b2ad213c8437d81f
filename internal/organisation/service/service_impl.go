package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	"github.com/flagforgelabs/flagforge/internal/organisation/domain"
	"github.com/gosimple/slug"
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
		log:   p.Log.Named("organisation.service"),
		node:  p.Node,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Create(ctx context.Context, name string) (*domain.Organisation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	now := s.clock.Now(ctx)
	org := &domain.Organisation{
		ID:        s.node.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The snowflake suffix keeps slugs unique without a retry loop.
	org.Slug = slug.Make(name) + "-" + org.ID.String()
	if err := s.repo.Create(ctx, s.db, org); err != nil {
		s.log.Error("failed to create organisation", zap.Error(err))
		return nil, err
	}
	return org, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Organisation, error) {
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) List(ctx context.Context) ([]domain.Organisation, error) {
	return s.repo.List(ctx, s.db)
}

func (s *service) Update(ctx context.Context, id snowflake.ID, name string) (*domain.Organisation, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	org.Name = name
	org.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) Delete(ctx context.Context, id snowflake.ID) error {
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if org == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}
