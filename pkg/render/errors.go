package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSampleUnavailable marks an instrument whose sample is missing,
	// unreadable, or decodes to nothing. It is not fatal: the instrument is
	// reported in Result.Missing and left out of the mix.
	ErrSampleUnavailable = errors.New("render: sample unavailable")

	// ErrNoRenderableTracks is returned when no enabled track produced a
	// stem. The concrete error is *NoRenderableTracksError.
	ErrNoRenderableTracks = errors.New("render: no renderable tracks")

	// ErrOutput is returned when stems or the master cannot be written.
	// The concrete error is *OutputError.
	ErrOutput = errors.New("render: output failed")

	// ErrInvalidRequest is returned for requests outside the accepted ranges.
	ErrInvalidRequest = errors.New("render: invalid request")
)

// NoRenderableTracksError lists the instruments that could not be rendered.
// Missing is empty when no track was enabled at all.
type NoRenderableTracksError struct {
	Missing []string
}

func (e *NoRenderableTracksError) Error() string {
	if len(e.Missing) == 0 {
		return "render: no renderable tracks: no tracks enabled"
	}
	return "render: no renderable tracks: missing " + strings.Join(e.Missing, ", ")
}

func (e *NoRenderableTracksError) Is(target error) bool {
	return target == ErrNoRenderableTracks
}

// OutputError reports a failed write of one output file.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("render: write %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

func (e *OutputError) Is(target error) bool {
	return target == ErrOutput
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
