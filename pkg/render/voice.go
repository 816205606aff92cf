package render

import (
	"cmp"
	"math"
	"slices"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/audio/resampler"
	"github.com/haivivi/stemrender/pkg/plan"
)

// Envelope timings, in seconds.
const (
	attackSeconds  = 0.01
	releaseSeconds = 0.1
)

// Voice is one instrument's sample and pitch settings.
type Voice struct {
	Instrument string

	// Sample is the normalized sample at the timeline's rate.
	Sample pcm.Mono

	// NaturalPitch is the sample's MIDI pitch, or nil if unknown.
	NaturalPitch *int

	Pitch PitchPolicy
}

// VoiceReport counts what happened to a track's note events.
type VoiceReport struct {
	Placed  int `json:"placed" yaml:"placed"`
	Dropped int `json:"dropped" yaml:"dropped"`
	Stolen  int `json:"stolen" yaml:"stolen"`
}

// RenderVoice places every event of bars into a mono buffer of tl.Frames
// frames. Bars are played in index order and events in listed order.
// Events outside the timeline are dropped. A note starting while an earlier
// one still sounds fades that tail to zero over at most fadeSeconds and
// silences the rest of it, so at most one note sounds at a time.
func RenderVoice(v Voice, bars []plan.Bar, tl Timeline, fadeSeconds float64) (pcm.Mono, VoiceReport) {
	out := pcm.NewMono(tl.Frames)
	var rep VoiceReport
	if len(v.Sample) == 0 {
		for _, b := range bars {
			rep.Dropped += len(b.Events)
		}
		return out, rep
	}

	ordered := slices.Clone(bars)
	slices.SortStableFunc(ordered, func(a, b plan.Bar) int { return cmp.Compare(a.Index, b.Index) })

	attack := max(1, int(math.Round(attackSeconds*float64(tl.SampleRate))))
	release := int(math.Round(releaseSeconds * float64(tl.SampleRate)))
	fade := int(math.Round(fadeSeconds * float64(tl.SampleRate)))
	percussive := v.Pitch.IsPercussive(v.Instrument)

	// Resampled buffers are shared by events with the same ratio.
	pitched := make(map[float64]pcm.Mono)
	lastEnd := 0

	for _, b := range ordered {
		for _, e := range b.Events {
			start, ok := tl.StartFrame(b.Index, e.Step)
			if !ok {
				rep.Dropped++
				continue
			}

			ratio := 1.0
			if !percussive && e.Note.Valid() {
				ratio = v.Pitch.Ratio(v.Instrument, v.NaturalPitch, e.Note.MIDI())
			}
			buf, ok := pitched[ratio]
			if !ok {
				buf = resampler.Linear(v.Sample, ratio)
				pitched[ratio] = buf
			}
			if len(buf) == 0 {
				rep.Dropped++
				continue
			}

			if lastEnd > start {
				stealTail(out, start, lastEnd, fade)
				rep.Stolen++
			}

			gain := float64(e.Velocity) / 127
			n := min(len(buf), tl.Frames-start)
			for i := range n {
				out[start+i] += buf[i] * gain * envelope(i, len(buf), attack, release)
			}
			lastEnd = max(lastEnd, start+len(buf))
			rep.Placed++
		}
	}
	return out, rep
}

// stealTail fades out[start:end] linearly to zero over min(fade, end-start)
// frames and zeroes whatever remains of the overlap.
func stealTail(out pcm.Mono, start, end, fade int) {
	end = min(end, len(out))
	fadeLen := min(fade, end-start)
	for k := range fadeLen {
		out[start+k] *= 1 - float64(k+1)/float64(fadeLen)
	}
	clear(out[start+max(0, fadeLen):end])
}

// envelope returns the gain of frame i of an n-frame hit: a linear ramp up
// over attack frames and down to zero over the last release frames.
func envelope(i, n, attack, release int) float64 {
	g := 1.0
	if i < attack {
		g = float64(i+1) / float64(attack)
	}
	if release > 0 {
		if tail := n - 1 - i; tail < release {
			g = min(g, float64(tail)/float64(release))
		}
	}
	return g
}
