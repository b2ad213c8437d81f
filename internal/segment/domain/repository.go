package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists segments with their full rule trees. Create and
// ReplaceRules write the tree rows; the Find methods return segments
// with trees assembled.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, segment *Segment) error
	FindByID(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) (*Segment, error)
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]Segment, error)
	Update(ctx context.Context, db *gorm.DB, segment *Segment) error
	ReplaceRules(ctx context.Context, db *gorm.DB, segment *Segment) error
	Delete(ctx context.Context, db *gorm.DB, projectID, id snowflake.ID) error
}
