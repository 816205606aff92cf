// Package plan defines the quantized note-event timeline that the render
// engine consumes.
//
// A Plan holds one merged Layer (Pattern) and, optionally, per-instrument
// Layers. Each Layer maps an instrument name to its Bars; each Bar holds up
// to 8 steps of NoteEvents. Plans are produced upstream and may be partially
// malformed, so JSON decoding is lenient: bad events decode into values the
// renderer drops instead of failing the whole plan.
package plan

import (
	"maps"
	"slices"
)

// StepsPerBar is the number of quantized steps in one bar.
const StepsPerBar = 8

// DefaultVelocity is used when an event carries no usable velocity.
const DefaultVelocity = 100

// Pitch is an optional MIDI note number. The zero value is "no pitch".
type Pitch struct {
	n  int
	ok bool
}

// NewPitch returns a valid pitch for MIDI note n.
func NewPitch(n int) Pitch {
	return Pitch{n: n, ok: true}
}

// Valid reports whether p carries a note number.
func (p Pitch) Valid() bool { return p.ok }

// MIDI returns the note number. It is 0 when p is not valid.
func (p Pitch) MIDI() int { return p.n }

// NoteEvent is one hit on the step grid.
type NoteEvent struct {
	Step     int   `json:"step"`
	Note     Pitch `json:"note"`
	Velocity int   `json:"velocity"`
	Length   int   `json:"length"`
}

// Bar is one measure of StepsPerBar steps. A negative Index marks a bar
// that could not be decoded; it is never rendered.
type Bar struct {
	Index  int         `json:"index"`
	Events []NoteEvent `json:"events"`
}

// Layer maps an instrument name to its bars.
type Layer map[string][]Bar

// Meta carries the plan-level timing information.
type Meta struct {
	TempoBPM      float64  `json:"tempo_bpm,omitempty"`
	Bars          int      `json:"bars,omitempty"`
	LengthSeconds float64  `json:"length_seconds,omitempty"`
	Instruments   []string `json:"instruments,omitempty"`
}

// Plan is the full note-event timeline for one render.
type Plan struct {
	Meta    Meta             `json:"meta"`
	Layers  map[string]Layer `json:"layers,omitempty"`
	Pattern Layer            `json:"pattern,omitempty"`
}

// BarsFor returns the bars to render for instrument. The instrument's own
// layer wins over the merged pattern.
func (p *Plan) BarsFor(instrument string) []Bar {
	if l, ok := p.Layers[instrument]; ok {
		if bars, ok := l[instrument]; ok {
			return bars
		}
	}
	return p.Pattern[instrument]
}

// MaxBarIndex returns the highest bar index across the pattern and every
// per-instrument layer, or -1 if there are no bars.
func (p *Plan) MaxBarIndex() int {
	maxIdx := -1
	scan := func(l Layer) {
		for _, bars := range l {
			for _, b := range bars {
				maxIdx = max(maxIdx, b.Index)
			}
		}
	}
	scan(p.Pattern)
	for _, l := range p.Layers {
		scan(l)
	}
	return maxIdx
}

// InstrumentNames returns the sorted union of instruments named in meta,
// the pattern, and the per-instrument layers.
func (p *Plan) InstrumentNames() []string {
	set := make(map[string]struct{})
	for _, name := range p.Meta.Instruments {
		set[name] = struct{}{}
	}
	for name := range p.Pattern {
		set[name] = struct{}{}
	}
	for name := range p.Layers {
		set[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// WithOverrides returns a plan whose per-instrument layers are replaced by
// the entries of overrides. Neither p nor overrides is modified; the result
// shares unchanged bars with p.
func (p *Plan) WithOverrides(overrides map[string]Layer) *Plan {
	if len(overrides) == 0 {
		return p
	}
	out := *p
	out.Layers = make(map[string]Layer, len(p.Layers)+len(overrides))
	maps.Copy(out.Layers, p.Layers)
	maps.Copy(out.Layers, overrides)
	return &out
}
