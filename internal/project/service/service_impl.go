package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	orgdomain "github.com/flagforgelabs/flagforge/internal/organisation/domain"
	"github.com/flagforgelabs/flagforge/internal/project/domain"
	"github.com/gosimple/slug"
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
	OrgRepo orgdomain.Repository
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	node    *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	orgRepo orgdomain.Repository
}

func New(p ServiceParam) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("project.service"),
		node:    p.Node,
		clock:   p.Clock,
		repo:    p.Repo,
		orgRepo: p.OrgRepo,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Project, error) {
	if req.OrganisationID == 0 {
		return nil, domain.ErrInvalidOrganisation
	}
	org, err := s.orgRepo.FindByID(ctx, s.db, req.OrganisationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, orgdomain.ErrNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now(ctx)
	project := &domain.Project{
		ID:                s.node.Generate(),
		OrganisationID:    req.OrganisationID,
		Name:              name,
		HideDisabledFlags: req.HideDisabledFlags,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	project.Slug = slug.Make(name) + "-" + project.ID.String()
	if err := s.repo.Create(ctx, s.db, project); err != nil {
		s.log.Error("failed to create project", zap.Error(err))
		return nil, err
	}
	return project, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	p, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *service) ListByOrganisation(ctx context.Context, organisationID snowflake.ID) ([]domain.Project, error) {
	return s.repo.ListByOrganisation(ctx, s.db, organisationID)
}

func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Project, error) {
	p, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		p.Name = name
	}
	if req.HideDisabledFlags != nil {
		p.HideDisabledFlags = *req.HideDisabledFlags
	}
	p.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		s.log.Error("failed to update project", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id snowflake.ID) error {
	p, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}
