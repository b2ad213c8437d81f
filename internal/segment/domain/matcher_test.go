package domain

import (
	"fmt"
	"testing"

	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	"github.com/stretchr/testify/assert"
)

func traitsOf(pairs map[string]any) map[string]flagvalue.Value {
	out := make(map[string]flagvalue.Value, len(pairs))
	for k, v := range pairs {
		out[k] = flagvalue.Infer(v)
	}
	return out
}

func ctxWith(identifier string, pairs map[string]any) EvalContext {
	return EvalContext{Identifier: identifier, Traits: traitsOf(pairs)}
}

func segmentWithCondition(op Operator, property, value string) Segment {
	return Segment{
		ID: 100,
		Rules: []SegmentRule{{
			Type:       RuleAll,
			Conditions: []Condition{{Operator: op, Property: property, Value: value}},
		}},
	}
}

func TestEmptySegmentMatchesEveryone(t *testing.T) {
	seg := Segment{ID: 1}
	assert.True(t, seg.Matches(ctxWith("user-1", nil)))
	assert.True(t, seg.Matches(EvalContext{}))
}

func TestEqualCondition(t *testing.T) {
	seg := segmentWithCondition(OperatorEqual, "plan", "pro")
	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"plan": "pro"})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"plan": "free"})))
	assert.False(t, seg.Matches(ctxWith("u", nil)))
}

func TestEqualConditionCoercesToTraitTag(t *testing.T) {
	seg := segmentWithCondition(OperatorEqual, "age", "21")
	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"age": 21})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"age": 22})))

	boolSeg := segmentWithCondition(OperatorEqual, "beta", "true")
	assert.True(t, boolSeg.Matches(ctxWith("u", map[string]any{"beta": true})))
	assert.False(t, boolSeg.Matches(ctxWith("u", map[string]any{"beta": false})))
}

func TestNotEqualFailsClosedOnMismatch(t *testing.T) {
	// Condition value cannot coerce to the trait's integer tag, so the
	// condition is false even though the values are trivially unequal.
	seg := segmentWithCondition(OperatorNotEqual, "age", "old")
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"age": 30})))

	seg = segmentWithCondition(OperatorNotEqual, "plan", "pro")
	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"plan": "free"})))
}

func TestOrderingOperators(t *testing.T) {
	cases := []struct {
		op    Operator
		trait any
		value string
		want  bool
	}{
		{OperatorGreaterThan, 10, "5", true},
		{OperatorGreaterThan, 5, "5", false},
		{OperatorGreaterThanInclusive, 5, "5", true},
		{OperatorLessThan, 3, "5", true},
		{OperatorLessThan, 5, "5", false},
		{OperatorLessThanInclusive, 5, "5", true},
	}
	for _, tc := range cases {
		seg := segmentWithCondition(tc.op, "count", tc.value)
		got := seg.Matches(ctxWith("u", map[string]any{"count": tc.trait}))
		assert.Equal(t, tc.want, got, "%s %v vs %s", tc.op, tc.trait, tc.value)
	}
}

func TestOrderingOverStringsIsTypeMismatch(t *testing.T) {
	seg := segmentWithCondition(OperatorGreaterThan, "name", "a")
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"name": "b"})))
}

func TestContainsOperators(t *testing.T) {
	seg := segmentWithCondition(OperatorContains, "email", "@example.com")
	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"email": "a@example.com"})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"email": "a@other.org"})))

	not := segmentWithCondition(OperatorNotContains, "email", "@example.com")
	assert.False(t, not.Matches(ctxWith("u", map[string]any{"email": "a@example.com"})))
	assert.True(t, not.Matches(ctxWith("u", map[string]any{"email": "a@other.org"})))
	// Missing trait is false even for the negated operator.
	assert.False(t, not.Matches(ctxWith("u", nil)))
}

func TestRegexOperator(t *testing.T) {
	seg := segmentWithCondition(OperatorRegex, "version", `^2\.\d+$`)
	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"version": "2.14"})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"version": "3.0"})))

	// Invalid pattern fails closed.
	broken := segmentWithCondition(OperatorRegex, "version", `([`)
	assert.False(t, broken.Matches(ctxWith("u", map[string]any{"version": "2.14"})))
}

func TestUnknownOperatorFailsClosed(t *testing.T) {
	seg := segmentWithCondition(Operator("BETWEEN"), "count", "5")
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"count": 5})))
}

func TestCombinators(t *testing.T) {
	pro := Condition{Operator: OperatorEqual, Property: "plan", Value: "pro"}
	beta := Condition{Operator: OperatorEqual, Property: "beta", Value: "true"}

	all := Segment{ID: 2, Rules: []SegmentRule{{Type: RuleAll, Conditions: []Condition{pro, beta}}}}
	assert.True(t, all.Matches(ctxWith("u", map[string]any{"plan": "pro", "beta": true})))
	assert.False(t, all.Matches(ctxWith("u", map[string]any{"plan": "pro", "beta": false})))

	anyRule := Segment{ID: 3, Rules: []SegmentRule{{Type: RuleAny, Conditions: []Condition{pro, beta}}}}
	assert.True(t, anyRule.Matches(ctxWith("u", map[string]any{"plan": "free", "beta": true})))
	assert.False(t, anyRule.Matches(ctxWith("u", map[string]any{"plan": "free", "beta": false})))

	none := Segment{ID: 4, Rules: []SegmentRule{{Type: RuleNone, Conditions: []Condition{pro, beta}}}}
	assert.True(t, none.Matches(ctxWith("u", map[string]any{"plan": "free", "beta": false})))
	assert.False(t, none.Matches(ctxWith("u", map[string]any{"plan": "pro", "beta": false})))
}

func TestEmptyChildrenTruthTable(t *testing.T) {
	assert.True(t, SegmentRule{Type: RuleAll}.Evaluate("1", EvalContext{}))
	assert.False(t, SegmentRule{Type: RuleAny}.Evaluate("1", EvalContext{}))
	assert.True(t, SegmentRule{Type: RuleNone}.Evaluate("1", EvalContext{}))
}

func TestNestedRules(t *testing.T) {
	// plan == pro AND (country == NO OR country == SE)
	seg := Segment{
		ID: 5,
		Rules: []SegmentRule{{
			Type: RuleAll,
			Conditions: []Condition{
				{Operator: OperatorEqual, Property: "plan", Value: "pro"},
			},
			Rules: []SegmentRule{{
				Type: RuleAny,
				Conditions: []Condition{
					{Operator: OperatorEqual, Property: "country", Value: "NO"},
					{Operator: OperatorEqual, Property: "country", Value: "SE"},
				},
			}},
		}},
	}

	assert.True(t, seg.Matches(ctxWith("u", map[string]any{"plan": "pro", "country": "SE"})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"plan": "pro", "country": "DK"})))
	assert.False(t, seg.Matches(ctxWith("u", map[string]any{"plan": "free", "country": "NO"})))
}

func TestPercentageSplitIgnoresProperty(t *testing.T) {
	full := segmentWithCondition(OperatorPercentageSplit, "", "100")
	assert.True(t, full.Matches(ctxWith("any-user", nil)))

	empty := segmentWithCondition(OperatorPercentageSplit, "", "0")
	assert.False(t, empty.Matches(ctxWith("any-user", nil)))
}

func TestPercentageSplitIsIdempotentPerIdentity(t *testing.T) {
	seg := segmentWithCondition(OperatorPercentageSplit, "", "50")
	first := seg.Matches(ctxWith("user-77", nil))
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, seg.Matches(ctxWith("user-77", nil)))
	}
}

func TestPercentageSplitFraction(t *testing.T) {
	seg := segmentWithCondition(OperatorPercentageSplit, "", "50")
	var matched int
	const n = 10000
	for i := 0; i < n; i++ {
		if seg.Matches(ctxWith(fmt.Sprintf("identity-%d", i), nil)) {
			matched++
		}
	}
	assert.InDelta(t, 0.5, float64(matched)/n, 0.02)
}

func TestPercentageSplitWithoutIdentifier(t *testing.T) {
	seg := segmentWithCondition(OperatorPercentageSplit, "", "100")
	assert.False(t, seg.Matches(EvalContext{Identifier: ""}))
}

func TestPercentageSplitMalformedValue(t *testing.T) {
	seg := segmentWithCondition(OperatorPercentageSplit, "", "half")
	assert.False(t, seg.Matches(ctxWith("user-1", nil)))
}
