package resampler

import (
	"math"
	"testing"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

func ramp(n int) pcm.Mono {
	m := pcm.NewMono(n)
	for i := range m {
		m[i] = float64(i)
	}
	return m
}

func TestLinearLength(t *testing.T) {
	src := ramp(1000)
	tests := []struct {
		ratio float64
		want  int
	}{
		{1, 1000},
		{2, 500},
		{0.5, 2000},
		{math.Pow(2, 7.0/12), int(math.Round(1000 / math.Pow(2, 7.0/12)))},
		{3, 333},
	}
	for _, tt := range tests {
		if got := len(Linear(src, tt.ratio)); got != tt.want {
			t.Errorf("Linear(ratio=%v) len = %d, want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestLinearInterpolates(t *testing.T) {
	out := Linear(ramp(10), 0.5)
	// Positions 0, 0.5, 1, 1.5 ...
	if out[1] != 0.5 || out[2] != 1 || out[3] != 1.5 {
		t.Fatalf("out[:4] = %v", out[:4])
	}
	// Beyond the last source frame the last value is held.
	if out[len(out)-1] != 9 {
		t.Fatalf("tail = %v, want 9", out[len(out)-1])
	}
}

func TestLinearUnityCopies(t *testing.T) {
	src := ramp(4)
	out := Linear(src, 1)
	out[0] = 42
	if src[0] != 0 {
		t.Fatal("Linear(1) aliases the source")
	}
}

func TestConvertRateLength(t *testing.T) {
	src := pcm.NewMono(48000)
	for i := range src {
		src[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
	}
	out, err := ConvertRate(src, 48000, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 44100 {
		t.Fatalf("len = %d, want 44100", len(out))
	}
	if _, err := ConvertRate(src, 0, 44100); err == nil {
		t.Fatal("expected error for zero input rate")
	}
}

func TestConvertRateShortSample(t *testing.T) {
	tests := []struct {
		n, from, to int
		want        int
	}{
		{100, 22050, 44100, 200},
		{2205, 22050, 44100, 4410},
		{22050, 22050, 44100, 44100},
		{441, 44100, 8000, 80},
		{1000, 48000, 44100, 919},
	}
	for _, tt := range tests {
		src := pcm.NewMono(tt.n)
		for i := range src {
			src[i] = 0.5
		}
		out, err := ConvertRate(src, tt.from, tt.to)
		if err != nil {
			t.Fatalf("%d@%d->%d: %v", tt.n, tt.from, tt.to, err)
		}
		if len(out) != tt.want {
			t.Errorf("%d@%d->%d: len = %d, want %d", tt.n, tt.from, tt.to, len(out), tt.want)
		}
		if ConvertedLength(tt.n, tt.from, tt.to) != tt.want {
			t.Errorf("ConvertedLength(%d, %d, %d) = %d, want %d", tt.n, tt.from, tt.to, ConvertedLength(tt.n, tt.from, tt.to), tt.want)
		}
	}
}

func TestConvertRateKeepsShortOneShot(t *testing.T) {
	src := pcm.NewMono(100)
	for i := range src {
		src[i] = 0.5
	}
	out, err := ConvertRate(src, 22050, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 200 {
		t.Fatalf("len = %d, want 200", len(out))
	}
	if p := out.Peak(); p < 0.25 {
		t.Fatalf("peak = %v, want the one-shot to survive conversion", p)
	}
}
