package render

import (
	"math"
	"strings"

	"github.com/haivivi/stemrender/pkg/plan"
)

// Accepted request ranges.
const (
	MaxFadeSeconds = 0.1
	MinVolumeDB    = -60.0
	MaxVolumeDB    = 6.0
)

// TrackSettings configures one instrument's stem.
type TrackSettings struct {
	Instrument string `json:"instrument" yaml:"instrument"`

	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	VolumeDB float64 `json:"volume_db" yaml:"volume_db"`
	Pan      float64 `json:"pan" yaml:"pan"`
}

// IsEnabled reports whether the track takes part in the render.
func (t TrackSettings) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Request is one render job.
type Request struct {
	ProjectName string `json:"project_name" yaml:"project_name"`

	// RunID names the output directory. A random id is assigned when empty.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	Plan *plan.Plan `json:"plan" yaml:"plan"`

	// Layers replaces per-instrument layers of Plan for this render only.
	Layers map[string]plan.Layer `json:"layers,omitempty" yaml:"layers,omitempty"`

	Tracks []TrackSettings `json:"tracks" yaml:"tracks"`

	// SelectedSamples maps instrument to a catalog asset id to prefer.
	SelectedSamples map[string]string `json:"selected_samples,omitempty" yaml:"selected_samples,omitempty"`

	// FadeSeconds is the voice-stealing fade length.
	FadeSeconds float64 `json:"fade_seconds" yaml:"fade_seconds"`
}

// Validate checks r against the accepted ranges. It does not check that any
// track is enabled; that is reported as ErrNoRenderableTracks by the engine.
func (r *Request) Validate() error {
	if !validName(r.ProjectName) {
		return invalidf("project name %q", r.ProjectName)
	}
	if r.RunID != "" && !validName(r.RunID) {
		return invalidf("run id %q", r.RunID)
	}
	if r.Plan == nil {
		return invalidf("plan is required")
	}
	if !inRange(r.FadeSeconds, 0, MaxFadeSeconds) {
		return invalidf("fade_seconds %v not in [0, %v]", r.FadeSeconds, MaxFadeSeconds)
	}
	seen := make(map[string]bool, len(r.Tracks))
	for _, t := range r.Tracks {
		if !validName(t.Instrument) {
			return invalidf("instrument name %q", t.Instrument)
		}
		if seen[t.Instrument] {
			return invalidf("duplicate track %q", t.Instrument)
		}
		seen[t.Instrument] = true
		if !inRange(t.VolumeDB, MinVolumeDB, MaxVolumeDB) {
			return invalidf("%s: volume_db %v not in [%v, %v]", t.Instrument, t.VolumeDB, MinVolumeDB, MaxVolumeDB)
		}
		if !inRange(t.Pan, -1, 1) {
			return invalidf("%s: pan %v not in [-1, 1]", t.Instrument, t.Pan)
		}
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// validName reports whether s is usable as a path segment.
func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
