package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/flagforgelabs/flagforge/internal/bucket"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
)

// EvalContext carries the identity-side inputs for segment matching.
// Identifier seeds percentage splits; Traits is the identity's current
// trait map.
type EvalContext struct {
	Identifier string
	Traits     map[string]flagvalue.Value
}

// Matches reports whether the identity described by ctx belongs to the
// segment. Every root rule must hold; a segment with zero rules matches
// every identity. Evaluation never fails: malformed conditions, missing
// traits and type mismatches all resolve to false at the condition
// level.
func (s Segment) Matches(ctx EvalContext) bool {
	for _, rule := range s.Rules {
		if !rule.Evaluate(s.ID.String(), ctx) {
			return false
		}
	}
	return true
}

// Evaluate applies the rule's combinator over its direct conditions and
// nested rules. Truth table for empty children: ALL and NONE hold, ANY
// does not.
func (r SegmentRule) Evaluate(splitSeed string, ctx EvalContext) bool {
	results := make([]bool, 0, len(r.Conditions)+len(r.Rules))
	for _, c := range r.Conditions {
		results = append(results, c.Evaluate(splitSeed, ctx))
	}
	for _, nested := range r.Rules {
		results = append(results, nested.Evaluate(splitSeed, ctx))
	}

	switch r.Type {
	case RuleAll:
		for _, ok := range results {
			if !ok {
				return false
			}
		}
		return true
	case RuleAny:
		for _, ok := range results {
			if ok {
				return true
			}
		}
		return false
	case RuleNone:
		for _, ok := range results {
			if ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Evaluate resolves a single condition against the identity. A missing
// trait key is false for every operator except PERCENTAGE_SPLIT, which
// ignores the property and buckets the identifier directly.
func (c Condition) Evaluate(splitSeed string, ctx EvalContext) bool {
	if c.Operator == OperatorPercentageSplit {
		return c.evaluateSplit(splitSeed, ctx.Identifier)
	}

	trait, ok := ctx.Traits[c.Property]
	if !ok || trait.IsNull() {
		return false
	}

	switch c.Operator {
	case OperatorEqual:
		other, err := flagvalue.ParseAs(trait.Type, c.Value)
		if err != nil {
			return false
		}
		return trait.Equal(other)
	case OperatorNotEqual:
		other, err := flagvalue.ParseAs(trait.Type, c.Value)
		if err != nil {
			return false
		}
		return !trait.Equal(other)
	case OperatorGreaterThan:
		return c.compare(trait, func(cmp int) bool { return cmp > 0 })
	case OperatorGreaterThanInclusive:
		return c.compare(trait, func(cmp int) bool { return cmp >= 0 })
	case OperatorLessThan:
		return c.compare(trait, func(cmp int) bool { return cmp < 0 })
	case OperatorLessThanInclusive:
		return c.compare(trait, func(cmp int) bool { return cmp <= 0 })
	case OperatorContains:
		return strings.Contains(trait.String(), c.Value)
	case OperatorNotContains:
		return !strings.Contains(trait.String(), c.Value)
	case OperatorRegex:
		matched, err := regexp.MatchString(c.Value, trait.String())
		return err == nil && matched
	default:
		return false
	}
}

func (c Condition) compare(trait flagvalue.Value, hold func(int) bool) bool {
	other, err := flagvalue.ParseAs(flagvalue.TypeInteger, c.Value)
	if err != nil {
		return false
	}
	cmp, err := trait.Compare(other)
	if err != nil {
		return false
	}
	return hold(cmp)
}

func (c Condition) evaluateSplit(splitSeed, identifier string) bool {
	if identifier == "" {
		return false
	}
	percentage, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return false
	}
	return bucket.Value(splitSeed, identifier) < percentage/100
}
