package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/catalog"
	"github.com/haivivi/stemrender/pkg/plan"
	"github.com/haivivi/stemrender/pkg/runs"
	"github.com/haivivi/stemrender/pkg/storage"
)

// Config configures an Engine.
type Config struct {
	// Library resolves instruments to sample assets.
	Library catalog.Library

	// Samples is where asset files are read from.
	Samples storage.FileStore

	// Output is where stems and masters are written. Required by Render.
	Output storage.FileStore

	// Runs records render runs. If nil, run ids are not reserved and
	// callers must keep them unique.
	Runs runs.Registry

	// SampleRate is the working and output rate. Defaults to 44100.
	SampleRate int

	// Workers bounds the number of tracks rendered at once. Defaults to
	// GOMAXPROCS.
	Workers int

	// Pitch is the pitch policy. Unset fields take their values from
	// DefaultPitchPolicy.
	Pitch *PitchPolicy

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Engine renders requests. It is safe for concurrent use; each call owns
// its buffers.
type Engine struct {
	library    catalog.Library
	samples    storage.FileStore
	output     storage.FileStore
	runs       runs.Registry
	sampleRate int
	workers    int
	pitch      PitchPolicy
	logger     *slog.Logger
}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Library == nil {
		return nil, errors.New("render: library is required")
	}
	if cfg.Samples == nil {
		return nil, errors.New("render: sample store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		library:    cfg.Library,
		samples:    cfg.Samples,
		output:     cfg.Output,
		runs:       cfg.Runs,
		sampleRate: cfg.SampleRate,
		workers:    cfg.Workers,
		pitch:      DefaultPitchPolicy(),
		logger:     logger,
	}
	if e.sampleRate <= 0 {
		e.sampleRate = pcm.DefaultSampleRate
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Pitch != nil {
		e.pitch = cfg.Pitch.WithDefaults()
	}
	return e, nil
}

// SampleRate returns the engine's working rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// TrackReport describes how one track rendered.
type TrackReport struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	SampleID   string `json:"sample_id,omitempty" yaml:"sample_id,omitempty"`
	Missing    bool   `json:"missing,omitempty" yaml:"missing,omitempty"`

	VoiceReport `yaml:",inline"`

	Peak float64 `json:"peak" yaml:"peak"`
}

// StemAudio is one rendered stem in memory.
type StemAudio struct {
	Instrument string
	Audio      pcm.Stereo
}

// Mix is the in-memory outcome of a render.
type Mix struct {
	Timeline Timeline
	Master   pcm.Stereo

	// Stems are in request track order.
	Stems []StemAudio

	// Missing lists enabled instruments without a usable sample, in request
	// track order.
	Missing []string

	Tracks []TrackReport
}

// Result describes a written render.
type Result struct {
	RunID           string        `json:"run_id" yaml:"run_id"`
	Master          Stem          `json:"master" yaml:"master"`
	Stems           []Stem        `json:"stems" yaml:"stems"`
	Missing         []string      `json:"missing" yaml:"missing"`
	SampleRate      int           `json:"sample_rate" yaml:"sample_rate"`
	DurationSeconds float64       `json:"duration_seconds" yaml:"duration_seconds"`
	Tracks          []TrackReport `json:"tracks" yaml:"tracks"`
}

// job carries the state of one request through the pipeline.
type job struct {
	req    Request
	plan   *plan.Plan
	tl     Timeline
	logger *slog.Logger
}

func (e *Engine) newJob(req Request) (*job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := req.Plan.WithOverrides(req.Layers)
	j := &job{
		req:    req,
		plan:   p,
		tl:     ResolveTimeline(p, e.sampleRate),
		logger: e.logger.With("project", req.ProjectName),
	}
	if req.RunID != "" {
		j.logger = j.logger.With("run_id", req.RunID)
	}
	return j, nil
}

// Mixdown renders req into memory without writing anything.
func (e *Engine) Mixdown(ctx context.Context, req Request) (*Mix, error) {
	j, err := e.newJob(req)
	if err != nil {
		return nil, err
	}
	return e.mixdown(ctx, j)
}

// Render renders req and writes its stems and master to the output store.
// An empty RunID is replaced by a random one. When a registry is configured
// the run id is reserved first and the run record is finished or failed
// with the outcome.
func (e *Engine) Render(ctx context.Context, req Request) (*Result, error) {
	if e.output == nil {
		return nil, errors.New("render: output store is required")
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	j, err := e.newJob(req)
	if err != nil {
		return nil, err
	}

	if e.runs != nil {
		if _, err := e.runs.Begin(ctx, req.ProjectName, req.RunID); err != nil {
			return nil, fmt.Errorf("render: reserve run: %w", err)
		}
	}

	res, err := e.render(ctx, j)
	if err != nil {
		if e.runs != nil {
			if _, ferr := e.runs.Fail(context.WithoutCancel(ctx), req.ProjectName, req.RunID, err); ferr != nil {
				j.logger.Warn("render: record failed run", "error", ferr)
			}
		}
		return nil, err
	}

	if e.runs != nil {
		stems := make(map[string]string, len(res.Stems))
		for _, s := range res.Stems {
			stems[s.Instrument] = s.Path
		}
		// The outputs are on disk; record them even if ctx ended meanwhile.
		rctx := context.WithoutCancel(ctx)
		_, err := e.runs.Finish(rctx, req.ProjectName, req.RunID, runs.Outputs{
			Master:          res.Master.Path,
			Stems:           stems,
			Missing:         res.Missing,
			SampleRate:      res.SampleRate,
			DurationSeconds: res.DurationSeconds,
		})
		if err != nil {
			err = fmt.Errorf("render: record run: %w", err)
			j.logger.Error("render: record run", "error", err)
			w := &OutputWriter{Store: e.output, SampleRate: e.sampleRate, Logger: j.logger}
			w.Remove(rctx, res.Master, res.Stems)
			if _, ferr := e.runs.Fail(rctx, req.ProjectName, req.RunID, err); ferr != nil {
				j.logger.Warn("render: record failed run", "error", ferr)
			}
			return nil, err
		}
	}
	return res, nil
}

func (e *Engine) render(ctx context.Context, j *job) (*Result, error) {
	start := time.Now()
	mix, err := e.mixdown(ctx, j)
	if err != nil {
		return nil, err
	}

	w := &OutputWriter{Store: e.output, SampleRate: e.sampleRate, Logger: j.logger}
	master, stems, err := w.Write(ctx, j.req.ProjectName, j.req.RunID, mix)
	if err != nil {
		j.logger.Error("render: write outputs", "error", err)
		return nil, err
	}

	j.logger.Info("render: run complete",
		"stems", len(stems),
		"missing", mix.Missing,
		"duration_seconds", mix.Timeline.DurationSeconds,
		"elapsed", time.Since(start),
	)
	return &Result{
		RunID:           j.req.RunID,
		Master:          master,
		Stems:           stems,
		Missing:         mix.Missing,
		SampleRate:      e.sampleRate,
		DurationSeconds: mix.Timeline.DurationSeconds,
		Tracks:          mix.Tracks,
	}, nil
}

type trackResult struct {
	report TrackReport
	stem   pcm.Stereo
	ok     bool
}

func (e *Engine) mixdown(ctx context.Context, j *job) (*Mix, error) {
	var tracks []TrackSettings
	for _, t := range j.req.Tracks {
		if t.IsEnabled() {
			tracks = append(tracks, t)
		}
	}
	if len(tracks) == 0 {
		return nil, &NoRenderableTracksError{}
	}

	j.logger.Debug("render: timeline",
		"bars", j.tl.Bars,
		"frames", j.tl.Frames,
		"step_frames", j.tl.StepFrames,
		"tracks", len(tracks),
	)

	resolver := &SampleResolver{
		Library:    e.library,
		Store:      e.samples,
		SampleRate: e.sampleRate,
		Logger:     j.logger,
	}
	results := make([]trackResult, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, t := range tracks {
		g.Go(func() error {
			r, err := e.renderTrack(gctx, j, resolver, t)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mix := &Mix{Timeline: j.tl}
	var stems []pcm.Stereo
	for i, r := range results {
		mix.Tracks = append(mix.Tracks, r.report)
		if !r.ok {
			mix.Missing = append(mix.Missing, tracks[i].Instrument)
			continue
		}
		mix.Stems = append(mix.Stems, StemAudio{Instrument: tracks[i].Instrument, Audio: r.stem})
		stems = append(stems, r.stem)
	}
	if len(stems) == 0 {
		j.logger.Error("render: no renderable tracks", "missing", mix.Missing)
		return nil, &NoRenderableTracksError{Missing: mix.Missing}
	}

	master, err := MixMaster(j.tl.Frames, stems...)
	if err != nil {
		return nil, err
	}
	mix.Master = master
	return mix, nil
}

func (e *Engine) renderTrack(ctx context.Context, j *job, resolver *SampleResolver, t TrackSettings) (trackResult, error) {
	log := j.logger.With("instrument", t.Instrument)
	rep := TrackReport{Instrument: t.Instrument}

	sample, err := resolver.Resolve(ctx, t.Instrument, j.req.SelectedSamples[t.Instrument])
	if err != nil {
		if errors.Is(err, ErrSampleUnavailable) {
			log.Warn("render: instrument missing", "error", err)
			rep.Missing = true
			return trackResult{report: rep}, nil
		}
		return trackResult{}, err
	}
	rep.SampleID = sample.Asset.ID

	mono, vr := RenderVoice(Voice{
		Instrument:   t.Instrument,
		Sample:       sample.Data,
		NaturalPitch: sample.Asset.NaturalPitch,
		Pitch:        e.pitch,
	}, j.plan.BarsFor(t.Instrument), j.tl, j.req.FadeSeconds)
	rep.VoiceReport = vr

	stem := MixStem(mono, t)
	rep.Peak = stem.Peak()
	log.Debug("render: track done",
		"sample", sample.Asset.ID,
		"placed", vr.Placed,
		"dropped", vr.Dropped,
		"stolen", vr.Stolen,
	)
	return trackResult{report: rep, stem: stem, ok: true}, nil
}
