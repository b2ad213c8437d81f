package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/project/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const projectColumns = `id, organisation_id, name, slug, hide_disabled_flags, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.OrganisationID,
		project.Name,
		project.Slug,
		project.HideDisabledFlags,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var p domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByOrganisation(ctx context.Context, db *gorm.DB, organisationID snowflake.ID) ([]domain.Project, error) {
	var items []domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT `+projectColumns+` FROM projects WHERE organisation_id = ? ORDER BY id ASC`,
		organisationID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects SET name = ?, slug = ?, hide_disabled_flags = ?, updated_at = ?
		 WHERE id = ?`,
		project.Name,
		project.Slug,
		project.HideDisabledFlags,
		project.UpdatedAt,
		project.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM projects WHERE id = ?`, id).Error
}
