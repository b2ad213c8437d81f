package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RuleType is the boolean combinator applied over a rule's direct
// children (conditions and nested rules).
type RuleType string

const (
	RuleAll  RuleType = "ALL"
	RuleAny  RuleType = "ANY"
	RuleNone RuleType = "NONE"
)

// Operator is the closed set of condition operators. Evaluation is
// exhaustive over these; anything else fails closed.
type Operator string

const (
	OperatorEqual                Operator = "EQUAL"
	OperatorNotEqual             Operator = "NOT_EQUAL"
	OperatorGreaterThan          Operator = "GREATER_THAN"
	OperatorGreaterThanInclusive Operator = "GREATER_THAN_INCLUSIVE"
	OperatorLessThan             Operator = "LESS_THAN"
	OperatorLessThanInclusive    Operator = "LESS_THAN_INCLUSIVE"
	OperatorContains             Operator = "CONTAINS"
	OperatorNotContains          Operator = "NOT_CONTAINS"
	OperatorRegex                Operator = "REGEX"
	OperatorPercentageSplit      Operator = "PERCENTAGE_SPLIT"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEqual, OperatorNotEqual,
		OperatorGreaterThan, OperatorGreaterThanInclusive,
		OperatorLessThan, OperatorLessThanInclusive,
		OperatorContains, OperatorNotContains,
		OperatorRegex, OperatorPercentageSplit:
		return true
	}
	return false
}

func (t RuleType) Valid() bool {
	return t == RuleAll || t == RuleAny || t == RuleNone
}

// Segment is a named identity cohort scoped to a project. Its rules
// form a recursive tree; a segment with no rules matches everyone.
type Segment struct {
	ID          snowflake.ID  `gorm:"column:id;primaryKey" json:"id"`
	ProjectID   snowflake.ID  `gorm:"column:project_id;index" json:"project_id"`
	Name        string        `gorm:"column:name" json:"name"`
	Description *string       `gorm:"column:description" json:"description,omitempty"`
	Rules       []SegmentRule `gorm:"-" json:"rules"`
	CreatedAt   time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Segment) TableName() string { return "segments" }

// SegmentRule combines direct conditions and nested rules under one
// combinator. ParentID is nil for root rules.
type SegmentRule struct {
	ID         snowflake.ID  `gorm:"column:id;primaryKey" json:"id"`
	SegmentID  snowflake.ID  `gorm:"column:segment_id;index" json:"segment_id"`
	ParentID   *snowflake.ID `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Type       RuleType      `gorm:"column:type" json:"type"`
	Rules      []SegmentRule `gorm:"-" json:"rules,omitempty"`
	Conditions []Condition   `gorm:"-" json:"conditions,omitempty"`
}

func (SegmentRule) TableName() string { return "segment_rules" }

// Condition compares one trait against a stored comparison value. The
// comparison value is persisted as text and coerced to the trait's tag
// at evaluation time. Property is empty for percentage splits.
type Condition struct {
	ID       snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	RuleID   snowflake.ID `gorm:"column:rule_id;index" json:"rule_id"`
	Operator Operator     `gorm:"column:operator" json:"operator"`
	Property string       `gorm:"column:property" json:"property"`
	Value    string       `gorm:"column:value" json:"value"`
}

func (Condition) TableName() string { return "segment_conditions" }
