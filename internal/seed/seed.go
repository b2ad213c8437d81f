package seed

import (
	"context"

	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	orgdomain "github.com/flagforgelabs/flagforge/internal/organisation/domain"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Param struct {
	fx.In

	Log        *zap.Logger
	OrgSvc     orgdomain.Service
	ProjectSvc projectdomain.Service
	EnvSvc     envdomain.Service
	FeatureSvc featuredomain.Service
	SegmentSvc segmentdomain.Service
}

// Run seeds a demo organisation with one project, two environments, a
// feature and a segment override. It is a no-op when any organisation
// already exists.
func Run(p Param) error {
	ctx := context.Background()
	log := p.Log.Named("seed")

	existing, err := p.OrgSvc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("organisations present, skipping demo seed")
		return nil
	}

	org, err := p.OrgSvc.Create(ctx, "Demo Org")
	if err != nil {
		return err
	}
	project, err := p.ProjectSvc.Create(ctx, projectdomain.CreateRequest{
		OrganisationID: org.ID,
		Name:           "Demo Project",
	})
	if err != nil {
		return err
	}

	dev, err := p.EnvSvc.Create(ctx, envdomain.CreateRequest{
		ProjectID: project.ID,
		Name:      "development",
	})
	if err != nil {
		return err
	}
	prod, err := p.EnvSvc.Create(ctx, envdomain.CreateRequest{
		ProjectID: project.ID,
		Name:      "production",
	})
	if err != nil {
		return err
	}

	feature, err := p.FeatureSvc.Create(ctx, featuredomain.CreateRequest{
		ProjectID:    project.ID,
		Name:         "banner_message",
		Kind:         featuredomain.KindConfig,
		InitialValue: "Welcome to FlagForge",
	})
	if err != nil {
		return err
	}

	segment, err := p.SegmentSvc.Create(ctx, segmentdomain.CreateRequest{
		ProjectID: project.ID,
		Name:      "beta testers",
		Rules: []segmentdomain.RuleInput{{
			Type: segmentdomain.RuleAll,
			Conditions: []segmentdomain.ConditionInput{{
				Operator: segmentdomain.OperatorEqual,
				Property: "beta",
				Value:    "true",
			}},
		}},
	})
	if err != nil {
		return err
	}

	enabled := true
	if _, err := p.FeatureSvc.CreateFeatureSegment(ctx, featuredomain.FeatureSegmentRequest{
		FeatureID:     feature.ID,
		SegmentID:     segment.ID,
		EnvironmentID: dev.ID,
		Enabled:       &enabled,
		Value:         "Welcome, beta tester",
	}); err != nil {
		return err
	}

	log.Info("demo data seeded",
		zap.String("development_key", dev.APIKey),
		zap.String("production_key", prod.APIKey))
	return nil
}
