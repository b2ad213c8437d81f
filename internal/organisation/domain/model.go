package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("organisation_not_found")
)

// Organisation is the tenancy root; projects hang off it.
type Organisation struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	Name      string       `gorm:"column:name" json:"name"`
	Slug      string       `gorm:"column:slug;uniqueIndex" json:"slug"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Organisation) TableName() string { return "organisations" }

type Service interface {
	Create(ctx context.Context, name string) (*Organisation, error)
	Get(ctx context.Context, id snowflake.ID) (*Organisation, error)
	List(ctx context.Context) ([]Organisation, error)
	Update(ctx context.Context, id snowflake.ID, name string) (*Organisation, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, org *Organisation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organisation, error)
	List(ctx context.Context, db *gorm.DB) ([]Organisation, error)
	Update(ctx context.Context, db *gorm.DB, org *Organisation) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
