package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/config"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagengine"
	orgdomain "github.com/flagforgelabs/flagforge/internal/organisation/domain"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

type Server struct {
	log        *zap.Logger
	db         *gorm.DB
	orgSvc     orgdomain.Service
	projectSvc projectdomain.Service
	envSvc     envdomain.Service
	featureSvc featuredomain.Service
	segmentSvc segmentdomain.Service
	engineSvc  flagengine.Service
}

type ServerParam struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	OrgSvc     orgdomain.Service
	ProjectSvc projectdomain.Service
	EnvSvc     envdomain.Service
	FeatureSvc featuredomain.Service
	SegmentSvc segmentdomain.Service
	EngineSvc  flagengine.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		log:        p.Log.Named("server"),
		db:         p.DB,
		orgSvc:     p.OrgSvc,
		projectSvc: p.ProjectSvc,
		envSvc:     p.EnvSvc,
		featureSvc: p.FeatureSvc,
		segmentSvc: p.SegmentSvc,
		engineSvc:  p.EngineSvc,
	}
}

func NewEngine(s *Server, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.RequestID(), s.RequestLogger())

	r.GET("/healthz", s.Liveness)
	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")

	sdk := api.Group("", s.EnvironmentKeyRequired())
	sdk.GET("/flags/", s.GetFlags)
	sdk.GET("/identities/", s.GetIdentityFlags)
	sdk.POST("/traits/", s.UpsertTrait)
	sdk.POST("/traits/increment-value/", s.IncrementTrait)
	sdk.PUT("/traits/bulk/", s.BulkUpsertTraits)

	admin := api.Group("/admin")
	admin.GET("/organisations", s.ListOrganisations)
	admin.POST("/organisations", s.CreateOrganisation)
	admin.GET("/organisations/:orgID", s.GetOrganisation)
	admin.PUT("/organisations/:orgID", s.UpdateOrganisation)
	admin.DELETE("/organisations/:orgID", s.DeleteOrganisation)

	admin.GET("/organisations/:orgID/projects", s.ListProjects)
	admin.POST("/organisations/:orgID/projects", s.CreateProject)
	admin.GET("/projects/:projectID", s.GetProject)
	admin.PUT("/projects/:projectID", s.UpdateProject)
	admin.DELETE("/projects/:projectID", s.DeleteProject)

	admin.GET("/projects/:projectID/environments", s.ListEnvironments)
	admin.POST("/projects/:projectID/environments", s.CreateEnvironment)
	admin.GET("/projects/:projectID/environments/:envID", s.GetEnvironment)
	admin.PUT("/projects/:projectID/environments/:envID", s.UpdateEnvironment)
	admin.DELETE("/projects/:projectID/environments/:envID", s.DeleteEnvironment)
	admin.GET("/projects/:projectID/environments/:envID/identities", s.ListIdentities)

	admin.GET("/projects/:projectID/features", s.ListFeatures)
	admin.POST("/projects/:projectID/features", s.CreateFeature)
	admin.GET("/projects/:projectID/features/:featureID", s.GetFeature)
	admin.PUT("/projects/:projectID/features/:featureID", s.UpdateFeature)
	admin.DELETE("/projects/:projectID/features/:featureID", s.DeleteFeature)
	admin.PUT("/projects/:projectID/features/:featureID/state", s.SetEnvironmentState)
	admin.PUT("/projects/:projectID/features/:featureID/identity-state", s.SetIdentityState)
	admin.DELETE("/projects/:projectID/features/:featureID/identity-state/:identityID", s.RemoveIdentityState)
	admin.GET("/projects/:projectID/features/:featureID/feature-segments", s.ListFeatureSegments)
	admin.POST("/projects/:projectID/features/:featureID/feature-segments", s.CreateFeatureSegment)
	admin.DELETE("/projects/:projectID/features/:featureID/feature-segments/:featureSegmentID", s.DeleteFeatureSegment)

	admin.GET("/projects/:projectID/segments", s.ListSegments)
	admin.POST("/projects/:projectID/segments", s.CreateSegment)
	admin.GET("/projects/:projectID/segments/:segmentID", s.GetSegment)
	admin.PUT("/projects/:projectID/segments/:segmentID", s.UpdateSegment)
	admin.DELETE("/projects/:projectID/segments/:segmentID", s.DeleteSegment)

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: engine}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// invalidateProject drops the cached snapshot of every environment in
// the project. Segment and feature mutations fan out to all of them.
func (s *Server) invalidateProject(ctx context.Context, projectID snowflake.ID) {
	envs, err := s.envSvc.ListByProject(ctx, projectID)
	if err != nil {
		s.log.Warn("cache invalidation skipped", zap.Error(err))
		return
	}
	for _, env := range envs {
		s.engineSvc.InvalidateEnvironment(ctx, env.APIKey)
	}
}

func (s *Server) invalidateEnvironmentByID(c *gin.Context, projectID, envID snowflake.ID) {
	env, err := s.envSvc.Get(c.Request.Context(), projectID, envID)
	if err != nil {
		s.log.Warn("cache invalidation skipped", zap.Error(err))
		return
	}
	s.engineSvc.InvalidateEnvironment(c.Request.Context(), env.APIKey)
}
