package flagengine

import (
	"github.com/bwmarrin/snowflake"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
)

// Snapshot is the immutable per-environment view resolution runs
// against: features with their environment defaults, segment overrides
// and the full segment rule trees. Identity-side data (traits, identity
// overrides) is not part of the snapshot; it is loaded per request and
// never cached.
type Snapshot struct {
	Environment       envdomain.Environment             `json:"environment"`
	HideDisabledFlags bool                              `json:"hide_disabled_flags"`
	Features          []featuredomain.Feature           `json:"features"`
	Defaults          map[snowflake.ID]featuredomain.FeatureState `json:"defaults"`
	FeatureSegments   []featuredomain.FeatureSegment    `json:"feature_segments"`
	Segments          map[snowflake.ID]segmentdomain.Segment `json:"segments"`
}

// FeatureRef is the feature summary embedded in resolved output.
type FeatureRef struct {
	ID   snowflake.ID       `json:"id"`
	Name string             `json:"name"`
	Kind featuredomain.Kind `json:"kind"`
}

// ResolvedFlag is one feature's effective state for the request's
// scope. FeatureSegmentID is set when a segment override supplied the
// winning state and no identity override masked it.
type ResolvedFlag struct {
	Feature          FeatureRef      `json:"feature"`
	Enabled          bool            `json:"enabled"`
	Value            flagvalue.Value `json:"value"`
	FeatureSegmentID *snowflake.ID   `json:"feature_segment_id,omitempty"`
}
