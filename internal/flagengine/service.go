package flagengine

import (
	"context"
	"time"

	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the collaborator-facing surface of the engine: it loads a
// snapshot (cache first), loads identity-side data fresh, and resolves.
type Service interface {
	// GetFlags resolves pure environment defaults.
	GetFlags(ctx context.Context, env *envdomain.Environment) ([]ResolvedFlag, error)
	// GetIdentityFlags resolves flags for one identity, creating the
	// identity on first sight, and returns its traits alongside.
	GetIdentityFlags(ctx context.Context, env *envdomain.Environment, identifier string) (*IdentityFlags, error)
	// InvalidateEnvironment is the write hook: admin mutations to an
	// environment's flag configuration must call it.
	InvalidateEnvironment(ctx context.Context, apiKey string)
}

type IdentityFlags struct {
	Identity *envdomain.Identity `json:"identity"`
	Flags    []ResolvedFlag      `json:"flags"`
	Traits   []envdomain.Trait   `json:"traits"`
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cache       SnapshotCache
	Metrics     *Metrics
	EnvSvc      envdomain.Service
	EnvRepo     envdomain.Repository
	ProjectRepo projectdomain.Repository
	FeatureRepo featuredomain.Repository
	SegmentRepo segmentdomain.Repository
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	cache       SnapshotCache
	metrics     *Metrics
	envSvc      envdomain.Service
	envRepo     envdomain.Repository
	projectRepo projectdomain.Repository
	featureRepo featuredomain.Repository
	segmentRepo segmentdomain.Repository
}

func NewService(p ServiceParam) Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("flagengine.service"),
		cache:       p.Cache,
		metrics:     p.Metrics,
		envSvc:      p.EnvSvc,
		envRepo:     p.EnvRepo,
		projectRepo: p.ProjectRepo,
		featureRepo: p.FeatureRepo,
		segmentRepo: p.SegmentRepo,
	}
}

func (s *service) GetFlags(ctx context.Context, env *envdomain.Environment) ([]ResolvedFlag, error) {
	start := time.Now()
	snap, err := s.snapshot(ctx, env)
	if err != nil {
		return nil, err
	}
	flags := Resolve(snap, ResolveInput{}, s.log)
	s.metrics.Resolutions.WithLabelValues("environment").Inc()
	s.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	return flags, nil
}

func (s *service) GetIdentityFlags(ctx context.Context, env *envdomain.Environment, identifier string) (*IdentityFlags, error) {
	start := time.Now()
	snap, err := s.snapshot(ctx, env)
	if err != nil {
		return nil, err
	}

	identity, err := s.envSvc.GetOrCreateIdentity(ctx, env.ID, identifier)
	if err != nil {
		return nil, err
	}
	traits, err := s.envRepo.ListTraits(ctx, s.db, identity.ID)
	if err != nil {
		return nil, err
	}
	identityStates, err := s.featureRepo.ListIdentityStates(ctx, s.db, identity.ID)
	if err != nil {
		return nil, err
	}

	flags := Resolve(snap, ResolveInput{
		Identity:       identity,
		Traits:         envdomain.TraitMap(traits),
		IdentityStates: identityStates,
	}, s.log)

	s.metrics.Resolutions.WithLabelValues("identity").Inc()
	s.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	return &IdentityFlags{Identity: identity, Flags: flags, Traits: traits}, nil
}

func (s *service) InvalidateEnvironment(ctx context.Context, apiKey string) {
	s.cache.Invalidate(ctx, apiKey)
}

func (s *service) snapshot(ctx context.Context, env *envdomain.Environment) (*Snapshot, error) {
	if snap, ok := s.cache.Get(ctx, env.APIKey); ok {
		s.metrics.CacheHits.WithLabelValues("hit").Inc()
		return snap, nil
	}
	s.metrics.CacheHits.WithLabelValues("miss").Inc()

	snap, err := s.buildSnapshot(ctx, env)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, env.APIKey, snap)
	return snap, nil
}

func (s *service) buildSnapshot(ctx context.Context, env *envdomain.Environment) (*Snapshot, error) {
	project, err := s.projectRepo.FindByID(ctx, s.db, env.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrNotFound
	}

	features, err := s.featureRepo.ListByProject(ctx, s.db, env.ProjectID)
	if err != nil {
		return nil, err
	}
	defaults, err := s.featureRepo.ListEnvironmentStates(ctx, s.db, env.ID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.featureRepo.ListFeatureSegmentsByEnvironment(ctx, s.db, env.ID)
	if err != nil {
		return nil, err
	}
	segments, err := s.segmentRepo.ListByProject(ctx, s.db, env.ProjectID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Environment:       *env,
		HideDisabledFlags: project.HideDisabledFlags,
		Features:          features,
		Defaults:          make(map[snowflake.ID]featuredomain.FeatureState, len(defaults)),
		FeatureSegments:   overrides,
		Segments:          make(map[snowflake.ID]segmentdomain.Segment, len(segments)),
	}
	for _, state := range defaults {
		snap.Defaults[state.FeatureID] = state
	}
	for _, seg := range segments {
		snap.Segments[seg.ID] = seg
	}
	return snap, nil
}
