// Package flagengine resolves effective per-identity feature state for
// an environment. Resolution is pure and stateless over an immutable
// snapshot, so any number of calls may run concurrently.
package flagengine

import (
	"errors"
	"sort"

	"github.com/bwmarrin/snowflake"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	"go.uber.org/zap"
)

// ErrMissingBaseline marks a feature without an environment default
// state. Creation invariants should make this impossible; when it does
// happen the feature is skipped and the rest of the batch resolves.
var ErrMissingBaseline = errors.New("missing_baseline")

// ResolveInput carries the identity-side request data. A nil Identity
// resolves pure environment defaults: segment and identity overrides
// are skipped entirely.
type ResolveInput struct {
	Identity       *envdomain.Identity
	Traits         map[string]flagvalue.Value
	IdentityStates []featuredomain.FeatureState
}

// Resolve computes the effective state of every feature in the
// snapshot, ordered by feature ID ascending. Precedence per feature,
// highest first: identity override, best-priority matching segment
// override, environment default. Per-feature failures degrade (the
// feature is dropped, others resolve); Resolve itself never fails.
func Resolve(snap *Snapshot, in ResolveInput, log *zap.Logger) []ResolvedFlag {
	features := make([]featuredomain.Feature, len(snap.Features))
	copy(features, snap.Features)
	sort.Slice(features, func(i, j int) bool { return features[i].ID < features[j].ID })

	var matched map[snowflake.ID]bool
	if in.Identity != nil {
		matched = matchSegments(snap, in)
	}

	identityStates := make(map[snowflake.ID]featuredomain.FeatureState, len(in.IdentityStates))
	if in.Identity != nil {
		for _, state := range in.IdentityStates {
			identityStates[state.FeatureID] = state
		}
	}

	out := make([]ResolvedFlag, 0, len(features))
	for _, f := range features {
		baseline, ok := snap.Defaults[f.ID]
		if !ok {
			log.Warn("feature has no environment default state, skipping",
				zap.Int64("feature_id", int64(f.ID)),
				zap.Int64("environment_id", int64(snap.Environment.ID)),
				zap.Error(ErrMissingBaseline))
			continue
		}

		resolved := ResolvedFlag{
			Feature: FeatureRef{ID: f.ID, Name: f.Name, Kind: f.Kind},
			Enabled: baseline.Enabled,
			Value:   baseline.Value,
		}

		if in.Identity != nil {
			if winner := bestFeatureSegment(snap.FeatureSegments, f.ID, matched); winner != nil {
				if winner.Enabled != nil {
					resolved.Enabled = *winner.Enabled
				}
				if winner.HasValueOverride() {
					resolved.Value = winner.Value
				}
				id := winner.ID
				resolved.FeatureSegmentID = &id
			}
			if override, ok := identityStates[f.ID]; ok {
				resolved.Enabled = override.Enabled
				resolved.Value = override.Value
				resolved.FeatureSegmentID = nil
			}
		}

		if snap.HideDisabledFlags && f.Kind == featuredomain.KindFlag && !resolved.Enabled {
			continue
		}
		out = append(out, resolved)
	}
	return out
}

// matchSegments evaluates the identity against every segment referenced
// by a feature override. Each segment is matched once per resolution,
// not once per feature.
func matchSegments(snap *Snapshot, in ResolveInput) map[snowflake.ID]bool {
	ctx := segmentdomain.EvalContext{
		Identifier: in.Identity.Identifier,
		Traits:     in.Traits,
	}
	matched := make(map[snowflake.ID]bool, len(snap.Segments))
	for id, seg := range snap.Segments {
		matched[id] = seg.Matches(ctx)
	}
	return matched
}

// bestFeatureSegment picks the matching override with the lowest
// priority value, ties broken by lowest ID for determinism.
func bestFeatureSegment(overrides []featuredomain.FeatureSegment, featureID snowflake.ID, matched map[snowflake.ID]bool) *featuredomain.FeatureSegment {
	var winner *featuredomain.FeatureSegment
	for i := range overrides {
		fs := &overrides[i]
		if fs.FeatureID != featureID || !matched[fs.SegmentID] {
			continue
		}
		if winner == nil ||
			fs.Priority < winner.Priority ||
			(fs.Priority == winner.Priority && fs.ID < winner.ID) {
			winner = fs
		}
	}
	return winner
}
