// Package wav decodes WAV sample files into mono float buffers and encodes
// stereo buffers as 16-bit PCM WAV.
package wav

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

// ErrInvalid is returned for input that is not a decodable WAV stream.
var ErrInvalid = errors.New("wav: invalid file")

// WAVE format tags accepted by Decode.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Decode reads a PCM WAV stream and returns its samples down-mixed to mono
// (channel average) together with the file's sample rate.
func Decode(r io.ReadSeeker) (pcm.Mono, int, error) {
	d := gowav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, ErrInvalid
	}
	if f := d.WavAudioFormat; f != formatPCM && f != formatExtensible {
		return nil, 0, fmt.Errorf("%w: unsupported format tag %#x", ErrInvalid, f)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: decode: %w", err)
	}
	depth := int(d.BitDepth)
	if depth == 0 {
		depth = buf.SourceBitDepth
	}
	if depth == 0 {
		return nil, 0, fmt.Errorf("%w: unknown bit depth", ErrInvalid)
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	rate := int(d.SampleRate)
	if rate <= 0 {
		return nil, 0, fmt.Errorf("%w: sample rate %d", ErrInvalid, rate)
	}

	// 8-bit PCM is unsigned with silence at 128.
	offset := 0
	if depth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := pcm.NewMono(frames)
	for i := range out {
		var sum float64
		for c := range channels {
			sum += pcm.FromInt(buf.Data[i*channels+c]-offset, depth)
		}
		out[i] = sum / float64(channels)
	}
	return out, rate, nil
}

// Encode writes s to w as a 16-bit stereo PCM WAV file at sampleRate.
//
// The WAV header is patched after the data is written, so the file is
// assembled in memory and copied to w in one pass. w may be any writer.
func Encode(w io.Writer, s pcm.Stereo, sampleRate int) error {
	var ws writeSeeker
	enc := gowav.NewEncoder(&ws, sampleRate, pcm.Depth, 2, 1)

	data := make([]int, 2*s.Frames())
	for i, v := range s.Interleave() {
		data[i] = int(v)
	}
	err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: pcm.Depth,
	})
	if err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	if _, err := w.Write(ws.buf); err != nil {
		return fmt.Errorf("wav: write: %w", err)
	}
	return nil
}
