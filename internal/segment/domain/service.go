package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidProject   = errors.New("invalid_project")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRuleType  = errors.New("invalid_rule_type")
	ErrInvalidOperator  = errors.New("invalid_operator")
	ErrInvalidCondition = errors.New("invalid_condition")
	ErrNotFound         = errors.New("segment_not_found")
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Segment, error)
	Get(ctx context.Context, projectID, id snowflake.ID) (*Segment, error)
	ListByProject(ctx context.Context, projectID snowflake.ID) ([]Segment, error)
	Update(ctx context.Context, req UpdateRequest) (*Segment, error)
	Delete(ctx context.Context, projectID, id snowflake.ID) error
}

type CreateRequest struct {
	ProjectID   snowflake.ID `json:"project_id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Rules       []RuleInput  `json:"rules"`
}

type UpdateRequest struct {
	ProjectID   snowflake.ID `json:"-"`
	ID          snowflake.ID `json:"-"`
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Rules       []RuleInput  `json:"rules,omitempty"`
}

// RuleInput mirrors the persisted rule tree for create/update payloads.
type RuleInput struct {
	Type       RuleType         `json:"type"`
	Rules      []RuleInput      `json:"rules,omitempty"`
	Conditions []ConditionInput `json:"conditions,omitempty"`
}

type ConditionInput struct {
	Operator Operator `json:"operator"`
	Property string   `json:"property"`
	Value    string   `json:"value"`
}
