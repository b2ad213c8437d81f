package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/organisation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, org *domain.Organisation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO organisations (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organisation, error) {
	var o domain.Organisation
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM organisations WHERE id = ?`,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Organisation, error) {
	var items []domain.Organisation
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at, updated_at FROM organisations ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, org *domain.Organisation) error {
	return db.WithContext(ctx).Exec(
		`UPDATE organisations SET name = ?, slug = ?, updated_at = ? WHERE id = ?`,
		org.Name,
		org.Slug,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM organisations WHERE id = ?`, id).Error
}
