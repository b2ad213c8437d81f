package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrganisation = errors.New("invalid_organisation")
	ErrInvalidName         = errors.New("invalid_name")
	ErrNotFound            = errors.New("project_not_found")
)

// Project owns features, environments and segments. HideDisabledFlags
// controls whether resolved FLAG entries with enabled=false are
// excluded from SDK responses; CONFIG entries are never filtered.
type Project struct {
	ID                snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	OrganisationID    snowflake.ID `gorm:"column:organisation_id;index" json:"organisation_id"`
	Name              string       `gorm:"column:name" json:"name"`
	Slug              string       `gorm:"column:slug;uniqueIndex" json:"slug"`
	HideDisabledFlags bool         `gorm:"column:hide_disabled_flags" json:"hide_disabled_flags"`
	CreatedAt         time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Project, error)
	Get(ctx context.Context, id snowflake.ID) (*Project, error)
	ListByOrganisation(ctx context.Context, organisationID snowflake.ID) ([]Project, error)
	Update(ctx context.Context, req UpdateRequest) (*Project, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	OrganisationID    snowflake.ID `json:"organisation_id"`
	Name              string       `json:"name"`
	HideDisabledFlags bool         `json:"hide_disabled_flags"`
}

type UpdateRequest struct {
	ID                snowflake.ID `json:"-"`
	Name              *string      `json:"name,omitempty"`
	HideDisabledFlags *bool        `json:"hide_disabled_flags,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	ListByOrganisation(ctx context.Context, db *gorm.DB, organisationID snowflake.ID) ([]Project, error)
	Update(ctx context.Context, db *gorm.DB, project *Project) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
