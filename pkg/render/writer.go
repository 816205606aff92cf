package render

import (
	"context"
	"log/slog"
	"path"

	"github.com/haivivi/stemrender/pkg/audio/codec/wav"
	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/storage"
)

// Stem is one written stem file.
type Stem struct {
	Instrument string `json:"instrument" yaml:"instrument"`

	// Path is relative to the output store.
	Path string `json:"path" yaml:"path"`

	// Location is the store's addressable form of Path.
	Location string `json:"location" yaml:"location"`
}

// OutputWriter writes a run's stems and master as 16-bit stereo WAV files:
//
//	{project}/{run_id}/stems/{instrument}.wav
//	{project}/{run_id}/master.wav
type OutputWriter struct {
	Store      storage.FileStore
	SampleRate int
	Logger     *slog.Logger
}

// StemPath returns the store path of an instrument's stem.
func StemPath(project, runID, instrument string) string {
	return path.Join(project, runID, "stems", instrument+".wav")
}

// MasterPath returns the store path of a run's master.
func MasterPath(project, runID string) string {
	return path.Join(project, runID, "master.wav")
}

// Write stores the stems of mix and its master. On failure every file
// already written by this call is removed and an *OutputError is returned.
func (w *OutputWriter) Write(ctx context.Context, project, runID string, mix *Mix) (master Stem, stems []Stem, err error) {
	var written []string
	defer func() {
		if err != nil {
			w.removePaths(context.WithoutCancel(ctx), written)
		}
	}()

	for _, s := range mix.Stems {
		p := StemPath(project, runID, s.Instrument)
		if err := w.writeFile(ctx, p, s.Audio); err != nil {
			return Stem{}, nil, err
		}
		written = append(written, p)
		stems = append(stems, Stem{Instrument: s.Instrument, Path: p, Location: w.Store.Location(p)})
	}

	p := MasterPath(project, runID)
	if err := w.writeFile(ctx, p, mix.Master); err != nil {
		return Stem{}, nil, err
	}
	written = append(written, p)
	return Stem{Path: p, Location: w.Store.Location(p)}, stems, nil
}

// Remove deletes the files of a written run, best effort. Failures are
// logged.
func (w *OutputWriter) Remove(ctx context.Context, master Stem, stems []Stem) {
	paths := make([]string, 0, len(stems)+1)
	for _, s := range stems {
		paths = append(paths, s.Path)
	}
	if master.Path != "" {
		paths = append(paths, master.Path)
	}
	w.removePaths(ctx, paths)
}

func (w *OutputWriter) removePaths(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := w.Store.Remove(ctx, p); err != nil {
			w.logger().Warn("render: remove output", "path", p, "error", err)
		}
	}
}

func (w *OutputWriter) writeFile(ctx context.Context, p string, st pcm.Stereo) error {
	f, err := w.Store.Create(ctx, p)
	if err != nil {
		return &OutputError{Path: p, Err: err}
	}
	if err := wav.Encode(f, st, w.SampleRate); err != nil {
		storage.Abort(f, err)
		return &OutputError{Path: p, Err: err}
	}
	if err := f.Close(); err != nil {
		return &OutputError{Path: p, Err: err}
	}
	return nil
}

func (w *OutputWriter) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
