package render

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/haivivi/stemrender/pkg/audio/codec/wav"
	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/catalog"
	"github.com/haivivi/stemrender/pkg/kv"
	"github.com/haivivi/stemrender/pkg/plan"
	"github.com/haivivi/stemrender/pkg/storage"
)

const testRate = 8000

// writeSample stores an n-frame WAV of constant value at rate.
func writeSample(t *testing.T, fs storage.FileStore, path string, n, rate int, value float64) {
	t.Helper()
	st := pcm.NewStereo(n)
	for i := range st.L {
		st.L[i], st.R[i] = value, value
	}
	w, err := fs.Create(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(w, st, rate); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeRaw(t *testing.T, fs storage.FileStore, path string, data []byte) {
	t.Helper()
	w, err := fs.Create(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	w.Write(data)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func readWAV(t *testing.T, fs storage.FileStore, path string) (pcm.Mono, int) {
	t.Helper()
	r, err := fs.Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	m, rate, err := wav.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	return m, rate
}

type fixture struct {
	samples *storage.Local
	output  *storage.Local
	lib     *catalog.KVLibrary
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	samples, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	output, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		samples: samples,
		output:  output,
		lib:     catalog.NewKVLibrary(catalog.KVLibraryConfig{Store: kv.NewMemory(), Samples: samples}),
	}
}

// addInstrument registers assets for instrument in library order.
func (f *fixture) addInstrument(t *testing.T, instrument string, assets ...catalog.Asset) {
	t.Helper()
	if err := f.lib.Replace(context.Background(), instrument, assets); err != nil {
		t.Fatal(err)
	}
}

func intp(n int) *int { return &n }

func floatp(v float64) *float64 { return &v }

func boolp(v bool) *bool { return &v }

func oneBar(instrument string, events ...plan.NoteEvent) *plan.Plan {
	return &plan.Plan{
		Meta:    plan.Meta{Bars: 1, Instruments: []string{instrument}},
		Pattern: plan.Layer{instrument: {{Index: 0, Events: events}}},
	}
}

func hit(step, note, velocity int) plan.NoteEvent {
	return plan.NoteEvent{Step: step, Note: plan.NewPitch(note), Velocity: velocity, Length: 1}
}

func energy(m []float64) float64 {
	var e float64
	for _, v := range m {
		e += v * v
	}
	return e
}

func peak(m []float64) float64 {
	var p float64
	for _, v := range m {
		p = math.Max(p, math.Abs(v))
	}
	return p
}
