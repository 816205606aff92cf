package render

import (
	"math"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/plan"
)

// Duration bounds, in seconds.
const (
	MinDuration = 1.0
	MaxDuration = 3600.0

	// Plan lengths below this are treated as absent.
	minPlanLength = 0.5

	// Seconds per bar when the plan gives no usable length.
	secondsPerBar = 2.0
)

// Timeline is the frame grid of one render.
type Timeline struct {
	SampleRate      int     `json:"sample_rate"`
	Bars            int     `json:"bars"`
	DurationSeconds float64 `json:"duration_seconds"`

	// Frames is the length of every output buffer.
	Frames int `json:"frames"`

	// StepFrames is the frame span of one step.
	StepFrames int `json:"step_frames"`
}

// ResolveTimeline derives the frame grid from p's meta, falling back to the
// note data. It never fails.
func ResolveTimeline(p *plan.Plan, sampleRate int) Timeline {
	bars := p.Meta.Bars
	if bars <= 0 {
		bars = max(1, p.MaxBarIndex()+1)
	}

	dur := p.Meta.LengthSeconds
	if !(dur >= minPlanLength && dur <= MaxDuration) {
		dur = max(MinDuration, float64(bars)*secondsPerBar)
	}
	dur = min(MaxDuration, max(MinDuration, dur))

	frames := pcm.Format{SampleRate: sampleRate, Channels: 1}.FramesInSeconds(dur)
	steps := max(1, bars*plan.StepsPerBar)
	return Timeline{
		SampleRate:      sampleRate,
		Bars:            bars,
		DurationSeconds: dur,
		Frames:          frames,
		StepFrames:      max(1, frames/steps),
	}
}

// StartFrame returns the first frame of step in bar. ok is false for events
// outside the grid or past the end of the timeline.
func (t Timeline) StartFrame(bar, step int) (frame int, ok bool) {
	if bar < 0 || step < 0 || step >= plan.StepsPerBar {
		return 0, false
	}
	pos := int64(bar)*plan.StepsPerBar + int64(step)
	if pos > math.MaxInt64/int64(t.StepFrames) {
		return 0, false
	}
	f := pos * int64(t.StepFrames)
	if f >= int64(t.Frames) {
		return 0, false
	}
	return int(f), true
}
