// Package audio is an umbrella for the audio sub-packages used by the render
// engine:
//
//   - pcm: float sample buffers and 16-bit PCM conversion
//   - codec/wav: WAV decoding and 16-bit stereo encoding
//   - codec/mp3: MP3 decoding for sample libraries
//   - resampler: sample-rate conversion and linear pitch resampling
//
// Example usage:
//
//	import (
//	    "github.com/haivivi/stemrender/pkg/audio/codec/wav"
//	    "github.com/haivivi/stemrender/pkg/audio/pcm"
//	)
//
//	st := pcm.NewStereo(44100)
//	err := wav.Encode(w, st, 44100)
package audio
