package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/environment/domain"
	"github.com/flagforgelabs/flagforge/pkg/db/option"
	"github.com/flagforgelabs/flagforge/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const traitColumns = `id, identity_id, key, value_type, value_int, value_str, value_bool, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, env *domain.Environment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO environments (id, project_id, name, api_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		env.ID,
		env.ProjectID,
		env.Name,
		env.APIKey,
		env.CreatedAt,
		env.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*domain.Environment, error) {
	var e domain.Environment
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, name, api_key, created_at, updated_at
		 FROM environments WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) FindByAPIKey(ctx context.Context, db *gorm.DB, apiKey string) (*domain.Environment, error) {
	var e domain.Environment
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, name, api_key, created_at, updated_at
		 FROM environments WHERE api_key = ? LIMIT 1`,
		apiKey,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.Environment, error) {
	var items []domain.Environment
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, name, api_key, created_at, updated_at
		 FROM environments WHERE project_id = ? ORDER BY id ASC`,
		projectID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, env *domain.Environment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE environments SET name = ?, updated_at = ? WHERE project_id = ? AND id = ?`,
		env.Name,
		env.UpdatedAt,
		env.ProjectID,
		env.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM environments WHERE project_id = ? AND id = ?`,
		projectID,
		id,
	).Error
}

func (r *repo) FindIdentity(ctx context.Context, db *gorm.DB, environmentID snowflake.ID, identifier string) (*domain.Identity, error) {
	var i domain.Identity
	err := db.WithContext(ctx).Raw(
		`SELECT id, environment_id, identifier, created_at
		 FROM identities WHERE environment_id = ? AND identifier = ? LIMIT 1`,
		environmentID,
		identifier,
	).Scan(&i).Error
	if err != nil {
		return nil, err
	}
	if i.ID == 0 {
		return nil, nil
	}
	return &i, nil
}

func (r *repo) FindIdentityByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Identity, error) {
	var i domain.Identity
	err := db.WithContext(ctx).Raw(
		`SELECT id, environment_id, identifier, created_at FROM identities WHERE id = ?`,
		id,
	).Scan(&i).Error
	if err != nil {
		return nil, err
	}
	if i.ID == 0 {
		return nil, nil
	}
	return &i, nil
}

func (r *repo) CreateIdentity(ctx context.Context, db *gorm.DB, identity *domain.Identity) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO identities (id, environment_id, identifier, created_at)
		 VALUES (?, ?, ?, ?)`,
		identity.ID,
		identity.EnvironmentID,
		identity.Identifier,
		identity.CreatedAt,
	).Error
}

func (r *repo) ListIdentities(ctx context.Context, db *gorm.DB, filter domain.ListIdentitiesRequest, page pagination.Pagination) ([]domain.Identity, error) {
	var items []domain.Identity
	stmt := db.WithContext(ctx).
		Model(&domain.Identity{}).
		Where("environment_id = ?", filter.EnvironmentID)

	if filter.Q != "" {
		stmt = stmt.Where("identifier LIKE ?", "%"+filter.Q+"%")
	}

	if page.PageToken == "" {
		stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
			"created_at": true,
			"identifier": true,
		})).Apply(stmt)
	}

	stmt = option.ApplyPagination(page).Apply(stmt)
	if page.PageToken != "" || page.PageSize > 0 {
		stmt = stmt.Order("id desc")
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListTraits(ctx context.Context, db *gorm.DB, identityID snowflake.ID) ([]domain.Trait, error) {
	var items []domain.Trait
	err := db.WithContext(ctx).Raw(
		`SELECT `+traitColumns+` FROM traits WHERE identity_id = ? ORDER BY key ASC`,
		identityID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindTraitForUpdate(ctx context.Context, db *gorm.DB, identityID snowflake.ID, key string) (*domain.Trait, error) {
	var t domain.Trait
	stmt := db.WithContext(ctx).Model(&domain.Trait{}).
		Where("identity_id = ? AND key = ?", identityID, key)
	// sqlite has no row locks and serializes writers itself.
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := stmt.Limit(1).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) CreateTrait(ctx context.Context, db *gorm.DB, trait *domain.Trait) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO traits (`+traitColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trait.ID,
		trait.IdentityID,
		trait.Key,
		trait.Value.Type,
		trait.Value.Int,
		trait.Value.Str,
		trait.Value.Bool,
		trait.CreatedAt,
		trait.UpdatedAt,
	).Error
}

func (r *repo) UpdateTrait(ctx context.Context, db *gorm.DB, trait *domain.Trait) error {
	return db.WithContext(ctx).Exec(
		`UPDATE traits
		 SET value_type = ?, value_int = ?, value_str = ?, value_bool = ?, updated_at = ?
		 WHERE id = ?`,
		trait.Value.Type,
		trait.Value.Int,
		trait.Value.Str,
		trait.Value.Bool,
		trait.UpdatedAt,
		trait.ID,
	).Error
}

func (r *repo) DeleteTrait(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM traits WHERE id = ?`, id).Error
}
