package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path"
	"strings"

	"github.com/haivivi/stemrender/pkg/audio/codec/mp3"
	"github.com/haivivi/stemrender/pkg/audio/codec/wav"
	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/audio/resampler"
	"github.com/haivivi/stemrender/pkg/catalog"
	"github.com/haivivi/stemrender/pkg/storage"
)

// Sample is a decoded asset ready for voice rendering: mono, at the working
// sample rate, with the asset's normalization gain applied.
type Sample struct {
	Asset catalog.Asset
	Data  pcm.Mono
}

// SampleResolver picks and loads the sample for a track.
type SampleResolver struct {
	Library    catalog.Library
	Store      storage.FileStore
	SampleRate int
	Logger     *slog.Logger
}

func (r *SampleResolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Resolve returns the sample for instrument. A selected asset id that
// resolves and decodes wins; otherwise the instrument's assets are tried in
// library order. If nothing loads, the error wraps ErrSampleUnavailable.
// Context errors are returned as is.
func (r *SampleResolver) Resolve(ctx context.Context, instrument, selected string) (*Sample, error) {
	log := r.logger().With("instrument", instrument)
	tried := make(map[string]bool)

	try := func(a *catalog.Asset) *Sample {
		if tried[a.ID] {
			return nil
		}
		tried[a.ID] = true
		data, err := r.Load(ctx, *a)
		if err != nil {
			log.Warn("render: skip sample", "asset", a.ID, "path", a.Path, "error", err)
			return nil
		}
		return &Sample{Asset: *a, Data: data}
	}

	if selected != "" {
		a, err := r.Library.Resolve(ctx, instrument, selected)
		switch {
		case err == nil:
			if s := try(a); s != nil {
				return s, nil
			}
		case errors.Is(err, catalog.ErrNotFound):
			log.Warn("render: selected sample not in catalog", "asset", selected)
		default:
			log.Warn("render: resolve selected sample", "asset", selected, "error", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if a, err := r.Library.FirstAvailable(ctx, instrument); err == nil {
		if s := try(a); s != nil {
			return s, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assets, err := r.Library.List(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSampleUnavailable, instrument, err)
	}
	for i := range assets {
		if s := try(&assets[i]); s != nil {
			return s, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSampleUnavailable, instrument)
}

// Load reads and decodes a's file. Files ending in .mp3 are decoded as MP3,
// everything else as WAV.
func (r *SampleResolver) Load(ctx context.Context, a catalog.Asset) (pcm.Mono, error) {
	rc, err := r.Store.Open(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.Path, err)
	}

	var (
		data pcm.Mono
		rate int
	)
	if strings.EqualFold(path.Ext(a.Path), ".mp3") {
		data, rate, err = mp3.Decode(bytes.NewReader(raw))
	} else {
		data, rate, err = wav.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty sample")
	}

	if rate != r.SampleRate {
		data, err = resampler.ConvertRate(data, rate, r.SampleRate)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, errors.New("empty sample after rate conversion")
		}
	}
	if a.GainDB != nil && *a.GainDB != 0 {
		data.Gain(dbToGain(*a.GainDB))
	}
	return data, nil
}

// dbToGain converts decibels to a linear amplitude factor.
func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}
