// Package mp3 decodes MP3 sample files into mono float buffers.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

// Decode reads an MP3 stream and returns its samples down-mixed to mono
// together with the stream's sample rate.
func Decode(r io.Reader) (pcm.Mono, int, error) {
	d, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: decode: %w", err)
	}
	// The decoder always yields 16-bit little-endian stereo.
	data, err := io.ReadAll(d)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: decode: %w", err)
	}
	return monoFromS16LEStereo(data), d.SampleRate(), nil
}

func monoFromS16LEStereo(data []byte) pcm.Mono {
	frames := len(data) / 4
	out := pcm.NewMono(frames)
	for i := range out {
		l := int16(binary.LittleEndian.Uint16(data[4*i:]))
		r := int16(binary.LittleEndian.Uint16(data[4*i+2:]))
		out[i] = (pcm.FromInt16(l) + pcm.FromInt16(r)) / 2
	}
	return out
}
