package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, env *Environment) error
	FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*Environment, error)
	FindByAPIKey(ctx context.Context, db *gorm.DB, apiKey string) (*Environment, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]Environment, error)
	Update(ctx context.Context, db *gorm.DB, env *Environment) error
	Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error

	FindIdentity(ctx context.Context, db *gorm.DB, environmentID snowflake.ID, identifier string) (*Identity, error)
	FindIdentityByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Identity, error)
	CreateIdentity(ctx context.Context, db *gorm.DB, identity *Identity) error
	ListIdentities(ctx context.Context, db *gorm.DB, filter ListIdentitiesRequest, page pagination.Pagination) ([]Identity, error)

	ListTraits(ctx context.Context, db *gorm.DB, identityID snowflake.ID) ([]Trait, error)
	// FindTraitForUpdate locks the (identity, key) row for the duration
	// of the surrounding transaction so upsert's read-modify-write is
	// atomic against concurrent writers.
	FindTraitForUpdate(ctx context.Context, db *gorm.DB, identityID snowflake.ID, key string) (*Trait, error)
	CreateTrait(ctx context.Context, db *gorm.DB, trait *Trait) error
	UpdateTrait(ctx context.Context, db *gorm.DB, trait *Trait) error
	DeleteTrait(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
