package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidProject     = errors.New("invalid_project")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidKind        = errors.New("invalid_kind")
	ErrDuplicateName      = errors.New("duplicate_feature_name")
	ErrNotFound           = errors.New("feature_not_found")
	ErrStateNotFound      = errors.New("feature_state_not_found")
	ErrSegmentNotFound    = errors.New("segment_not_found")
	ErrDuplicatePriority  = errors.New("duplicate_priority")
	ErrInvalidEnvironment = errors.New("invalid_environment")
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Feature, error)
	Get(ctx context.Context, projectID, id snowflake.ID) (*Feature, error)
	ListByProject(ctx context.Context, projectID snowflake.ID) ([]Feature, error)
	Update(ctx context.Context, req UpdateRequest) (*Feature, error)
	Delete(ctx context.Context, projectID, id snowflake.ID) error

	// SetEnvironmentState updates the environment default for a feature.
	SetEnvironmentState(ctx context.Context, req SetStateRequest) (*FeatureState, error)
	// SetIdentityState creates or updates an identity override.
	SetIdentityState(ctx context.Context, req SetStateRequest) (*FeatureState, error)
	RemoveIdentityState(ctx context.Context, featureID, identityID snowflake.ID) error

	CreateFeatureSegment(ctx context.Context, req FeatureSegmentRequest) (*FeatureSegment, error)
	ListFeatureSegments(ctx context.Context, featureID, environmentID snowflake.ID) ([]FeatureSegment, error)
	DeleteFeatureSegment(ctx context.Context, id snowflake.ID) error
}

type CreateRequest struct {
	ProjectID      snowflake.ID `json:"project_id"`
	Name           string       `json:"name"`
	Kind           Kind         `json:"kind"`
	Description    *string      `json:"description"`
	DefaultEnabled bool         `json:"default_enabled"`
	// InitialValue is inferred onto the typed value union; only native
	// booleans and integers receive a typed tag.
	InitialValue any            `json:"initial_value"`
	Metadata     map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ProjectID   snowflake.ID `json:"-"`
	ID          snowflake.ID `json:"-"`
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Kind        *Kind        `json:"kind,omitempty"`
}

type SetStateRequest struct {
	FeatureID     snowflake.ID `json:"-"`
	EnvironmentID snowflake.ID `json:"environment_id"`
	IdentityID    snowflake.ID `json:"identity_id"`
	Enabled       bool         `json:"enabled"`
	Value         any          `json:"value"`
}

type FeatureSegmentRequest struct {
	FeatureID     snowflake.ID `json:"-"`
	SegmentID     snowflake.ID `json:"segment_id"`
	EnvironmentID snowflake.ID `json:"environment_id"`
	Enabled       *bool        `json:"enabled"`
	Value         any          `json:"value"`
	Priority      int          `json:"priority"`
}
