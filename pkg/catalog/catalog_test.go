package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/haivivi/stemrender/pkg/kv"
	"github.com/haivivi/stemrender/pkg/storage"
)

const manifest = `
instruments:
  kick:
    - id: kick-01
      path: drums/kick/01.wav
      natural_pitch: 36
    - id: kick-02
      path: drums/kick/02.wav
      gain_db: -3.5
  bass:
    - id: bass-01
      path: bass/01.wav
      natural_pitch: 40
`

func newLibrary(t *testing.T) (*KVLibrary, *storage.Local) {
	t.Helper()
	samples, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lib := NewKVLibrary(KVLibraryConfig{Store: kv.NewMemory(), Samples: samples})

	m, err := ParseManifest(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	stats, err := Import(context.Background(), lib, m)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Instruments != 2 || stats.Assets != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	return lib, samples
}

func touch(t *testing.T, fs storage.FileStore, path string) {
	t.Helper()
	w, err := fs.Create(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("x"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	a, err := lib.Resolve(ctx, "kick", "kick-02")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Path != "drums/kick/02.wav" || a.Order != 1 || a.Instrument != "kick" {
		t.Fatalf("asset = %+v", a)
	}
	if a.GainDB == nil || *a.GainDB != -3.5 || a.NaturalPitch != nil {
		t.Fatalf("asset optional fields = %+v", a)
	}

	for _, tt := range []struct{ inst, id string }{
		{"kick", "bass-01"},
		{"snare", "kick-01"},
		{"kick", ""},
		{"kick/x", "kick-01"},
	} {
		if _, err := lib.Resolve(ctx, tt.inst, tt.id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q, %q) err = %v, want ErrNotFound", tt.inst, tt.id, err)
		}
	}
}

func TestFirstAvailable(t *testing.T) {
	lib, samples := newLibrary(t)
	ctx := context.Background()

	if _, err := lib.FirstAvailable(ctx, "kick"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no files: err = %v, want ErrNotFound", err)
	}

	touch(t, samples, "drums/kick/02.wav")
	a, err := lib.FirstAvailable(ctx, "kick")
	if err != nil || a.ID != "kick-02" {
		t.Fatalf("FirstAvailable = %+v, %v; want kick-02", a, err)
	}

	touch(t, samples, "drums/kick/01.wav")
	a, err = lib.FirstAvailable(ctx, "kick")
	if err != nil || a.ID != "kick-01" {
		t.Fatalf("FirstAvailable = %+v, %v; want kick-01", a, err)
	}
}

func TestListOrder(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	all, err := lib.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	if got, want := strings.Join(ids, ","), "bass-01,kick-01,kick-02"; got != want {
		t.Fatalf("List all = %s, want %s", got, want)
	}

	kicks, err := lib.List(ctx, "kick")
	if err != nil || len(kicks) != 2 {
		t.Fatalf("List kick = %v, %v", kicks, err)
	}
}

func TestReplaceDropsStaleEntries(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	err := lib.Replace(ctx, "kick", []Asset{{ID: "kick-09", Path: "k9.wav"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Resolve(ctx, "kick", "kick-02"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale id still resolves: %v", err)
	}
	kicks, _ := lib.List(ctx, "kick")
	if len(kicks) != 1 || kicks[0].ID != "kick-09" {
		t.Fatalf("kicks = %+v", kicks)
	}
	if bass, _ := lib.List(ctx, "bass"); len(bass) != 1 {
		t.Fatalf("bass should be untouched, got %+v", bass)
	}
}

func TestReplaceValidation(t *testing.T) {
	lib := NewKVLibrary(KVLibraryConfig{Store: kv.NewMemory()})
	ctx := context.Background()
	tests := []struct {
		name   string
		inst   string
		assets []Asset
	}{
		{"empty instrument", "", nil},
		{"slash in instrument", "a/b", nil},
		{"empty id", "kick", []Asset{{Path: "a.wav"}}},
		{"empty path", "kick", []Asset{{ID: "a"}}},
		{"duplicate id", "kick", []Asset{{ID: "a", Path: "a.wav"}, {ID: "a", Path: "b.wav"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := lib.Replace(ctx, tt.inst, tt.assets); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
