package migration

import (
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	orgdomain "github.com/flagforgelabs/flagforge/internal/organisation/domain"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

func Run(conn *gorm.DB) error {
	if conn.Dialector.Name() != "postgres" {
		return autoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

// autoMigrate covers sqlite and mysql deployments, which are intended
// for development only. Partial indexes from the postgres schema are
// approximated with plain unique indexes.
func autoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&orgdomain.Organisation{},
		&projectdomain.Project{},
		&envdomain.Environment{},
		&envdomain.Identity{},
		&envdomain.Trait{},
		&featuredomain.Feature{},
		&featuredomain.FeatureState{},
		&featuredomain.FeatureSegment{},
		&segmentdomain.Segment{},
		&segmentdomain.SegmentRule{},
		&segmentdomain.Condition{},
	); err != nil {
		return err
	}

	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_identities_env_identifier ON identities(environment_id, identifier)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_traits_identity_key ON traits(identity_id, key)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_feature_segments_priority ON feature_segments(feature_id, environment_id, priority)",
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
