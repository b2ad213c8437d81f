package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
)

// Environment is a deployment-scoped container within a project,
// addressed by SDK clients through its opaque API key.
type Environment struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	ProjectID snowflake.ID `gorm:"column:project_id;index" json:"project_id"`
	Name      string       `gorm:"column:name" json:"name"`
	APIKey    string       `gorm:"column:api_key;uniqueIndex" json:"api_key"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Environment) TableName() string { return "environments" }

// Identity is an SDK-tracked entity within one environment. The
// identifier is caller-supplied and unique per environment only.
type Identity struct {
	ID            snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	EnvironmentID snowflake.ID `gorm:"column:environment_id;index" json:"environment_id"`
	Identifier    string       `gorm:"column:identifier" json:"identifier"`
	CreatedAt     time.Time    `gorm:"column:created_at" json:"created_at"`
}

func (Identity) TableName() string { return "identities" }

// Trait is a typed key/value attribute on an identity. (identity, key)
// is unique; writing a duplicate key updates the existing row.
type Trait struct {
	ID         snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	IdentityID snowflake.ID    `gorm:"column:identity_id;index" json:"identity_id"`
	Key        string          `gorm:"column:key" json:"trait_key"`
	Value      flagvalue.Value `gorm:"embedded;embeddedPrefix:value_" json:"trait_value"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Trait) TableName() string { return "traits" }

// TraitMap flattens traits into the key → value mapping consumed by
// segment matching.
func TraitMap(traits []Trait) map[string]flagvalue.Value {
	out := make(map[string]flagvalue.Value, len(traits))
	for _, t := range traits {
		out[t.Key] = t.Value
	}
	return out
}
