// Package pcm provides the in-memory sample buffers the render engine works
// with and the conversion to and from 16-bit signed PCM.
//
// Samples are float64 in the nominal range [-1, 1]. Values outside that range
// are legal while mixing and are clipped only when converted to 16-bit.
//
// Example usage:
//
//	f := pcm.Format{SampleRate: 44100, Channels: 2}
//	frames := f.FramesIn(2 * time.Second)
//	st := pcm.NewStereo(frames)
//	i16 := pcm.ToInt16(st.L[0])
package pcm

import (
	"fmt"
	"math"
	"time"
)

// DefaultSampleRate is the working sample rate of the render engine.
const DefaultSampleRate = 44100

// Depth is the bit depth of every encoded output.
const Depth = 16

// Format describes a 16-bit PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// StereoFormat returns the 16-bit stereo format at the given rate.
func StereoFormat(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 2}
}

// FramesIn returns the number of frames in d, rounded to the nearest frame.
func (f Format) FramesIn(d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(f.SampleRate)))
}

// FramesInSeconds returns round(seconds × rate).
func (f Format) FramesInSeconds(seconds float64) int {
	return int(math.Round(seconds * float64(f.SampleRate)))
}

// Duration returns the playback duration of the given number of frames.
func (f Format) Duration(frames int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the encoded byte rate.
func (f Format) BytesRate() int {
	return f.SampleRate * f.Channels * Depth / 8
}

// String returns a MIME-like description, e.g. "audio/L16; rate=44100; channels=2".
func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate, f.Channels)
}

// ToInt16 converts a float sample to 16-bit PCM, clipping to [-1, 1].
// Positive values scale by 32767 and negative values by 32768.
func ToInt16(s float64) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s >= 0 {
		return int16(s * 32767)
	}
	return int16(s * 32768)
}

// FromInt16 converts a 16-bit PCM sample to float.
func FromInt16(s int16) float64 {
	if s >= 0 {
		return float64(s) / 32767
	}
	return float64(s) / 32768
}

// FromInt converts a signed integer sample of the given bit depth to float.
func FromInt(s, bitDepth int) float64 {
	return float64(s) / float64(int(1)<<(bitDepth-1))
}
