package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	"gorm.io/datatypes"
)

// Kind distinguishes boolean flags from remote-config entries. CONFIG
// entries are never hidden by the project's hide-disabled setting.
type Kind string

const (
	KindFlag   Kind = "FLAG"
	KindConfig Kind = "CONFIG"
)

func (k Kind) Valid() bool {
	return k == KindFlag || k == KindConfig
}

// Feature belongs to a project. Its name is unique per project,
// case-insensitively. Creating a feature fans out one environment
// default FeatureState per existing environment.
type Feature struct {
	ID             snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	ProjectID      snowflake.ID    `gorm:"column:project_id;index" json:"project_id"`
	Name           string          `gorm:"column:name" json:"name"`
	Kind           Kind            `gorm:"column:kind" json:"kind"`
	Description    *string         `gorm:"column:description" json:"description,omitempty"`
	DefaultEnabled bool            `gorm:"column:default_enabled" json:"default_enabled"`
	InitialValue   flagvalue.Value `gorm:"embedded;embeddedPrefix:initial_value_" json:"initial_value"`
	Metadata       datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Feature) TableName() string { return "features" }

// FeatureState is a stored enabled/value pair for a feature at one
// scope. IdentityID nil means the environment default; set, it is an
// identity-specific override. Segment overrides live on FeatureSegment.
type FeatureState struct {
	ID            snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	FeatureID     snowflake.ID    `gorm:"column:feature_id;index" json:"feature_id"`
	EnvironmentID snowflake.ID    `gorm:"column:environment_id;index" json:"environment_id"`
	IdentityID    *snowflake.ID   `gorm:"column:identity_id;index" json:"identity_id,omitempty"`
	Enabled       bool            `gorm:"column:enabled" json:"enabled"`
	Value         flagvalue.Value `gorm:"embedded;embeddedPrefix:value_" json:"value"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (FeatureState) TableName() string { return "feature_states" }

// FeatureSegment overrides a feature's state for identities matching a
// segment within one environment. Lower priority wins; priority is
// unique within (feature, environment). Enabled nil or a null Value
// means that half of the override is absent and the baseline shows
// through.
type FeatureSegment struct {
	ID            snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	FeatureID     snowflake.ID    `gorm:"column:feature_id;index" json:"feature_id"`
	SegmentID     snowflake.ID    `gorm:"column:segment_id;index" json:"segment_id"`
	EnvironmentID snowflake.ID    `gorm:"column:environment_id;index" json:"environment_id"`
	Enabled       *bool           `gorm:"column:enabled" json:"enabled,omitempty"`
	Value         flagvalue.Value `gorm:"embedded;embeddedPrefix:value_" json:"value"`
	Priority      int             `gorm:"column:priority" json:"priority"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (FeatureSegment) TableName() string { return "feature_segments" }

func (fs FeatureSegment) HasValueOverride() bool {
	return !fs.Value.IsNull()
}
