package flagengine

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func boolPtr(v bool) *bool { return &v }

// fixture builds a snapshot with one feature (default disabled, value
// "env") and one "plan == pro" segment carrying an enabled/"seg"
// override at priority 0.
func fixture() *Snapshot {
	snap := &Snapshot{
		Environment: envdomain.Environment{ID: 10, ProjectID: 1, APIKey: "env.key"},
		Features: []featuredomain.Feature{
			{ID: 100, ProjectID: 1, Name: "checkout_redesign", Kind: featuredomain.KindConfig},
		},
		Defaults: map[snowflake.ID]featuredomain.FeatureState{
			100: {ID: 1000, FeatureID: 100, EnvironmentID: 10, Enabled: false, Value: flagvalue.String("env")},
		},
		FeatureSegments: []featuredomain.FeatureSegment{
			{ID: 500, FeatureID: 100, SegmentID: 50, EnvironmentID: 10,
				Enabled: boolPtr(true), Value: flagvalue.String("seg"), Priority: 0},
		},
		Segments: map[snowflake.ID]segmentdomain.Segment{
			50: {ID: 50, ProjectID: 1, Rules: []segmentdomain.SegmentRule{{
				Type: segmentdomain.RuleAll,
				Conditions: []segmentdomain.Condition{
					{Operator: segmentdomain.OperatorEqual, Property: "plan", Value: "pro"},
				},
			}}},
		},
	}
	return snap
}

func identityInput(identifier string, traits map[string]any) ResolveInput {
	in := ResolveInput{
		Identity: &envdomain.Identity{ID: 77, EnvironmentID: 10, Identifier: identifier},
		Traits:   map[string]flagvalue.Value{},
	}
	for k, v := range traits {
		in.Traits[k] = flagvalue.Infer(v)
	}
	return in
}

func TestResolveWithoutIdentityReturnsEnvironmentDefaults(t *testing.T) {
	flags := Resolve(fixture(), ResolveInput{}, zap.NewNop())
	require.Len(t, flags, 1)
	assert.False(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("env"), flags[0].Value)
	assert.Nil(t, flags[0].FeatureSegmentID)
}

func TestResolveMatchingSegmentOverrides(t *testing.T) {
	flags := Resolve(fixture(), identityInput("user-i", map[string]any{"plan": "pro"}), zap.NewNop())
	require.Len(t, flags, 1)
	assert.True(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("seg"), flags[0].Value)
	require.NotNil(t, flags[0].FeatureSegmentID)
	assert.Equal(t, snowflake.ID(500), *flags[0].FeatureSegmentID)
}

func TestResolveNonMatchingIdentityGetsDefault(t *testing.T) {
	flags := Resolve(fixture(), identityInput("user-j", map[string]any{"plan": "free"}), zap.NewNop())
	require.Len(t, flags, 1)
	assert.False(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("env"), flags[0].Value)
}

func TestResolveIdentityOverrideBeatsSegment(t *testing.T) {
	snap := fixture()
	identityID := snowflake.ID(77)
	in := identityInput("user-i", map[string]any{"plan": "pro"})
	in.IdentityStates = []featuredomain.FeatureState{
		{ID: 2000, FeatureID: 100, EnvironmentID: 10, IdentityID: &identityID,
			Enabled: false, Value: flagvalue.String("mine")},
	}

	flags := Resolve(snap, in, zap.NewNop())
	require.Len(t, flags, 1)
	assert.False(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("mine"), flags[0].Value)
	// The identity override masks the segment attribution.
	assert.Nil(t, flags[0].FeatureSegmentID)
}

func TestResolveLowestPriorityWins(t *testing.T) {
	everyone := segmentdomain.Segment{ID: 60, ProjectID: 1}

	run := func(priorityA, priorityB int) flagvalue.Value {
		snap := fixture()
		snap.Segments[60] = everyone
		snap.FeatureSegments = []featuredomain.FeatureSegment{
			{ID: 501, FeatureID: 100, SegmentID: 50, EnvironmentID: 10,
				Enabled: boolPtr(true), Value: flagvalue.String("a"), Priority: priorityA},
			{ID: 502, FeatureID: 100, SegmentID: 60, EnvironmentID: 10,
				Enabled: boolPtr(true), Value: flagvalue.String("b"), Priority: priorityB},
		}
		flags := Resolve(snap, identityInput("user-i", map[string]any{"plan": "pro"}), zap.NewNop())
		return flags[0].Value
	}

	assert.Equal(t, flagvalue.String("a"), run(0, 1))
	assert.Equal(t, flagvalue.String("b"), run(1, 0))
}

func TestResolvePriorityTieBreaksOnLowestID(t *testing.T) {
	snap := fixture()
	snap.Segments[60] = segmentdomain.Segment{ID: 60, ProjectID: 1}
	snap.FeatureSegments = []featuredomain.FeatureSegment{
		{ID: 502, FeatureID: 100, SegmentID: 60, EnvironmentID: 10,
			Enabled: boolPtr(true), Value: flagvalue.String("second"), Priority: 0},
		{ID: 501, FeatureID: 100, SegmentID: 50, EnvironmentID: 10,
			Enabled: boolPtr(true), Value: flagvalue.String("first"), Priority: 0},
	}

	flags := Resolve(snap, identityInput("user-i", map[string]any{"plan": "pro"}), zap.NewNop())
	assert.Equal(t, flagvalue.String("first"), flags[0].Value)
}

func TestResolveEmptySegmentMatchesIdentityWithoutTraits(t *testing.T) {
	snap := fixture()
	snap.Segments[50] = segmentdomain.Segment{ID: 50, ProjectID: 1}

	flags := Resolve(snap, identityInput("user-k", nil), zap.NewNop())
	require.Len(t, flags, 1)
	assert.True(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("seg"), flags[0].Value)
}

func TestResolvePartialOverrideKeepsBaselineHalf(t *testing.T) {
	snap := fixture()
	// Enabled-only override: value keeps the environment default.
	snap.FeatureSegments[0].Value = flagvalue.Null()

	flags := Resolve(snap, identityInput("user-i", map[string]any{"plan": "pro"}), zap.NewNop())
	require.Len(t, flags, 1)
	assert.True(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("env"), flags[0].Value)
}

func TestResolveMissingBaselineSkipsFeatureOnly(t *testing.T) {
	snap := fixture()
	snap.Features = append(snap.Features, featuredomain.Feature{
		ID: 101, ProjectID: 1, Name: "orphan", Kind: featuredomain.KindFlag,
	})

	flags := Resolve(snap, ResolveInput{}, zap.NewNop())
	require.Len(t, flags, 1)
	assert.Equal(t, snowflake.ID(100), flags[0].Feature.ID)
}

func TestResolveOrderedByFeatureID(t *testing.T) {
	snap := fixture()
	snap.Features = append(snap.Features,
		featuredomain.Feature{ID: 99, ProjectID: 1, Name: "earlier", Kind: featuredomain.KindFlag},
		featuredomain.Feature{ID: 150, ProjectID: 1, Name: "later", Kind: featuredomain.KindFlag},
	)
	snap.Defaults[99] = featuredomain.FeatureState{ID: 999, FeatureID: 99, EnvironmentID: 10, Enabled: true}
	snap.Defaults[150] = featuredomain.FeatureState{ID: 1500, FeatureID: 150, EnvironmentID: 10, Enabled: true}

	flags := Resolve(snap, ResolveInput{}, zap.NewNop())
	require.Len(t, flags, 3)
	assert.Equal(t, snowflake.ID(99), flags[0].Feature.ID)
	assert.Equal(t, snowflake.ID(100), flags[1].Feature.ID)
	assert.Equal(t, snowflake.ID(150), flags[2].Feature.ID)
}

func TestResolveHideDisabledFlags(t *testing.T) {
	snap := fixture()
	snap.HideDisabledFlags = true
	snap.Features = append(snap.Features,
		featuredomain.Feature{ID: 101, ProjectID: 1, Name: "dark_flag", Kind: featuredomain.KindFlag},
	)
	snap.Defaults[101] = featuredomain.FeatureState{ID: 1001, FeatureID: 101, EnvironmentID: 10, Enabled: false}

	// Feature 100 is CONFIG kind: disabled but never filtered. Feature
	// 101 is a disabled FLAG: hidden.
	flags := Resolve(snap, ResolveInput{}, zap.NewNop())
	require.Len(t, flags, 1)
	assert.Equal(t, snowflake.ID(100), flags[0].Feature.ID)

	// The filter applies to the resolved state: a segment that enables
	// the flag brings it back for matching identities.
	snap.FeatureSegments = append(snap.FeatureSegments, featuredomain.FeatureSegment{
		ID: 503, FeatureID: 101, SegmentID: 50, EnvironmentID: 10,
		Enabled: boolPtr(true), Priority: 0,
	})
	flags = Resolve(snap, identityInput("user-i", map[string]any{"plan": "pro"}), zap.NewNop())
	assert.Len(t, flags, 2)
}

func TestResolveSegmentsSkippedWithoutIdentity(t *testing.T) {
	// An "everyone" segment must not leak into anonymous resolution.
	snap := fixture()
	snap.Segments[50] = segmentdomain.Segment{ID: 50, ProjectID: 1}

	flags := Resolve(snap, ResolveInput{}, zap.NewNop())
	require.Len(t, flags, 1)
	assert.False(t, flags[0].Enabled)
	assert.Equal(t, flagvalue.String("env"), flags[0].Value)
}

func TestResolveEndToEndExample(t *testing.T) {
	// Feature F: default enabled=false value="env". Segment S: plan ==
	// "pro", override enabled=true value="seg" priority 0. Identity I
	// has plan=pro, identity J has plan=free.
	snap := fixture()

	proFlags := Resolve(snap, identityInput("identity-i", map[string]any{"plan": "pro"}), zap.NewNop())
	require.Len(t, proFlags, 1)
	assert.True(t, proFlags[0].Enabled)
	assert.Equal(t, "seg", proFlags[0].Value.Str)

	freeFlags := Resolve(snap, identityInput("identity-j", map[string]any{"plan": "free"}), zap.NewNop())
	require.Len(t, freeFlags, 1)
	assert.False(t, freeFlags[0].Enabled)
	assert.Equal(t, "env", freeFlags[0].Value.Str)
}
