package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, feature *Feature) error
	FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*Feature, error)
	FindByName(ctx context.Context, db *gorm.DB, projectID snowflake.ID, name string) (*Feature, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]Feature, error)
	Update(ctx context.Context, db *gorm.DB, feature *Feature) error
	Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error

	CreateState(ctx context.Context, db *gorm.DB, state *FeatureState) error
	FindEnvironmentState(ctx context.Context, db *gorm.DB, featureID, environmentID snowflake.ID) (*FeatureState, error)
	FindIdentityState(ctx context.Context, db *gorm.DB, featureID, identityID snowflake.ID) (*FeatureState, error)
	ListEnvironmentStates(ctx context.Context, db *gorm.DB, environmentID snowflake.ID) ([]FeatureState, error)
	ListIdentityStates(ctx context.Context, db *gorm.DB, identityID snowflake.ID) ([]FeatureState, error)
	UpdateState(ctx context.Context, db *gorm.DB, state *FeatureState) error
	DeleteState(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteStatesByFeature(ctx context.Context, db *gorm.DB, featureID snowflake.ID) error

	CreateFeatureSegment(ctx context.Context, db *gorm.DB, fs *FeatureSegment) error
	FindFeatureSegment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeatureSegment, error)
	ListFeatureSegments(ctx context.Context, db *gorm.DB, featureID, environmentID snowflake.ID) ([]FeatureSegment, error)
	ListFeatureSegmentsByEnvironment(ctx context.Context, db *gorm.DB, environmentID snowflake.ID) ([]FeatureSegment, error)
	DeleteFeatureSegment(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteFeatureSegmentsByFeature(ctx context.Context, db *gorm.DB, featureID snowflake.ID) error
}
