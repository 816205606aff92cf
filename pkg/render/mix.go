package render

import (
	"math"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

// MasterCeiling is the peak level the master is normalized to.
const MasterCeiling = 0.9

// PanGains returns constant-power (left, right) gains for pan in [-1, 1].
// Out-of-range values are clamped.
func PanGains(pan float64) (left, right float64) {
	pan = min(1, max(-1, pan))
	theta := (pan + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
}

// MixStem applies the track's volume and pan to mono.
func MixStem(mono pcm.Mono, t TrackSettings) pcm.Stereo {
	gain := dbToGain(t.VolumeDB)
	l, r := PanGains(t.Pan)
	st := pcm.Stereo{L: mono.Clone(), R: mono.Clone()}
	pcm.Mono(st.L).Gain(gain * l)
	pcm.Mono(st.R).Gain(gain * r)
	return st
}

// MixMaster sums stems channel by channel and scales the result so its peak
// is MasterCeiling. Silence stays silent. All stems must be frames long.
func MixMaster(frames int, stems ...pcm.Stereo) (pcm.Stereo, error) {
	if len(stems) == 0 {
		return pcm.Stereo{}, &NoRenderableTracksError{}
	}
	master := pcm.NewStereo(frames)
	for _, st := range stems {
		master.Add(st)
	}
	if peak := master.Peak(); peak > 0 {
		master.Gain(MasterCeiling / peak)
	}
	return master, nil
}
