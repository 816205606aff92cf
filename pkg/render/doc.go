// Package render turns a plan.Plan into per-instrument stereo stems and a
// peak-normalized stereo master using one-shot samples from a catalog.
//
// A render runs in stages:
//
//   - ResolveTimeline maps the plan's bars and length onto a frame grid.
//   - SampleResolver picks and decodes one sample per enabled track.
//   - PitchPolicy turns note numbers into playback ratios.
//   - RenderVoice places every note event into a mono buffer.
//   - MixStem and MixMaster pan, gain and sum the tracks.
//   - OutputWriter encodes the stems and master as 16-bit WAV files.
//
// Engine ties the stages together. Tracks render in parallel, each owning
// its own buffers; the master is summed once every track has finished.
//
// Example usage:
//
//	eng, err := render.New(render.Config{
//	    Library: lib,
//	    Samples: samples,
//	    Output:  out,
//	    Runs:    registry,
//	})
//	res, err := eng.Render(ctx, render.Request{
//	    ProjectName: "demo",
//	    Plan:        p,
//	    Tracks:      []render.TrackSettings{{Instrument: "kick"}},
//	})
package render
