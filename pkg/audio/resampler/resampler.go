// Package resampler changes the length of mono sample buffers, either to
// shift pitch (Linear) or to convert between sample rates (ConvertRate).
//
// Linear is a plain linear-interpolation stretch. It is cheap and has the
// expected aliasing artifacts, which is acceptable for one-shot sample
// playback. ConvertRate uses a windowed-sinc resampler and is meant for
// bringing sample files to the working rate once at load time.
package resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

// Linear returns src played back at ratio times its original speed.
// The output has round(len(src)/ratio) frames: ratio > 1 raises pitch and
// shortens the buffer, ratio < 1 lowers pitch and lengthens it.
// A ratio of exactly 1 or a non-positive ratio returns a copy of src.
func Linear(src pcm.Mono, ratio float64) pcm.Mono {
	if ratio == 1 || ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return src.Clone()
	}
	n := int(math.Round(float64(len(src)) / ratio))
	if n <= 0 || len(src) == 0 {
		return pcm.Mono{}
	}
	out := pcm.NewMono(n)
	last := len(src) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = src[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = src[j] + (src[j+1]-src[j])*frac
	}
	return out
}

// ConvertRate converts src from one sample rate to another. Equal rates
// return a copy of src. The result always has round(len(src)*to/from)
// frames: the filter tail is flushed and the output is trimmed or padded
// with silence to that length.
func ConvertRate(src pcm.Mono, from, to int) (pcm.Mono, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", from, to)
	}
	if from == to || len(src) == 0 {
		return src.Clone(), nil
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}
	out, err := rs.Process(src)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resampler: flush: %w", err)
	}
	out = append(out, tail...)
	return fitLength(pcm.Mono(out), ConvertedLength(len(src), from, to)), nil
}

// ConvertedLength returns the number of frames n frames at rate from take
// at rate to.
func ConvertedLength(n, from, to int) int {
	return int(math.Round(float64(n) * float64(to) / float64(from)))
}

func fitLength(m pcm.Mono, n int) pcm.Mono {
	if len(m) >= n {
		return m[:n]
	}
	out := pcm.NewMono(n)
	copy(out, m)
	return out
}
