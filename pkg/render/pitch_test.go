package render

import (
	"math"
	"strings"
	"testing"
)

func TestCompressedRatioUnison(t *testing.T) {
	for _, limit := range []float64{0.5, 12, 18, 24, 100} {
		if r := CompressedRatio(0, limit); r != 1 {
			t.Errorf("CompressedRatio(0, %v) = %v, want exactly 1", limit, r)
		}
	}
}

func TestCompressedRatioAsymptote(t *testing.T) {
	const limit = 18.0
	up := math.Exp2(limit / 12)
	down := math.Exp2(-limit / 12)
	if r := CompressedRatio(1000, limit); math.Abs(r-up) > 1e-9 || r > up {
		t.Errorf("ratio(+1000) = %v, want -> %v", r, up)
	}
	if r := CompressedRatio(-1000, limit); math.Abs(r-down) > 1e-9 || r < down {
		t.Errorf("ratio(-1000) = %v, want -> %v", r, down)
	}
}

func TestCompressedRatioMonotonic(t *testing.T) {
	prev := 0.0
	for raw := -60.0; raw <= 60; raw += 0.5 {
		r := CompressedRatio(raw, 12)
		if r <= prev {
			t.Fatalf("ratio not increasing at %v: %v <= %v", raw, r, prev)
		}
		prev = r
	}
}

func TestCompressedRatioSmallIntervals(t *testing.T) {
	// A fifth under an 18-semitone cap stays within a few cents.
	r := CompressedRatio(7, 18)
	exact := math.Exp2(7.0 / 12)
	cents := 1200 * math.Log2(exact/r)
	if cents < 0 || cents > 40 {
		t.Fatalf("fifth compressed by %v cents", cents)
	}
}

func TestPitchPolicy(t *testing.T) {
	p := DefaultPitchPolicy()

	if !p.IsPercussive("Kick") || !p.IsPercussive("hihat_open") || p.IsPercussive("lead") {
		t.Fatal("percussive keyword matching is wrong")
	}
	if r := p.Ratio("kick", intp(36), 80); r != 1 {
		t.Errorf("percussive ratio = %v, want 1", r)
	}

	tests := []struct {
		inst string
		want float64
	}{
		{"bass", 12},
		{"sub_bass", 12},
		{"warm_pad", 24},
		{"strings", 24},
		{"lead", 18},
		{"piano", 18},
	}
	for _, tt := range tests {
		if got := p.MaxSemitonesFor(tt.inst); got != tt.want {
			t.Errorf("MaxSemitonesFor(%q) = %v, want %v", tt.inst, got, tt.want)
		}
	}

	// Unknown natural pitch defaults to middle C.
	if r := p.Ratio("lead", nil, 60); r != 1 {
		t.Errorf("ratio(nil natural, 60) = %v, want 1", r)
	}
	if got, want := p.Ratio("lead", intp(48), 60), CompressedRatio(12, 18); got != want {
		t.Errorf("ratio = %v, want %v", got, want)
	}
	if got, want := p.Ratio("bass", intp(48), 60), CompressedRatio(12, 12); got != want {
		t.Errorf("bass ratio = %v, want %v", got, want)
	}
}

func TestPitchPolicyCustom(t *testing.T) {
	p := PitchPolicy{
		MaxSemitones: 6,
		Categories:   []PitchCategory{{Name: "bell", MaxSemitones: 3, Keywords: []string{"BELL"}}},
	}
	if got := p.MaxSemitonesFor("tubular_bell"); got != 3 {
		t.Errorf("bell cap = %v, want 3", got)
	}
	if got := p.MaxSemitonesFor("kick"); got != 6 {
		t.Errorf("default cap = %v, want 6", got)
	}
	if p.IsPercussive("kick") {
		t.Error("empty percussive list should exempt nothing")
	}
}

func TestPitchPolicyWordMatching(t *testing.T) {
	p := DefaultPitchPolicy()
	tests := []struct {
		inst       string
		percussive bool
		max        float64
	}{
		{"bottom_pad", false, 24},
		{"whatever_lead", false, 18},
		{"strings_ride_out", false, 24},
		{"tomato synth", false, 18},
		{"low-toms", true, 18},
		{"Ride 2", true, 18},
		{"snares", true, 18},
		{"bass_drum", true, 18},
		{"kick_bass", true, 18},
		{"808bass", false, 12},
		{"subtle_keys", false, 18},
		{"Sub-Bass", false, 12},
	}
	for _, tt := range tests {
		if got := p.IsPercussive(tt.inst); got != tt.percussive {
			t.Errorf("IsPercussive(%q) = %v, want %v", tt.inst, got, tt.percussive)
		}
		if tt.percussive {
			if r := p.Ratio(tt.inst, intp(60), 72); r != 1 {
				t.Errorf("Ratio(%q) = %v, want 1", tt.inst, r)
			}
			continue
		}
		if got := p.MaxSemitonesFor(tt.inst); got != tt.max {
			t.Errorf("MaxSemitonesFor(%q) = %v, want %v", tt.inst, got, tt.max)
		}
		if r := p.Ratio(tt.inst, intp(60), 72); r <= 1 {
			t.Errorf("Ratio(%q, +12) = %v, want a raised pitch", tt.inst, r)
		}
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bottom_pad", "bottom pad"},
		{"808Bass", "808 bass"},
		{"Hi-Hat  open", "hi hat open"},
		{"tom2", "tom 2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := strings.Join(words(tt.in), " "); got != tt.want {
			t.Errorf("words(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPitchCategoryWithoutCap(t *testing.T) {
	p := PitchPolicy{
		Categories: []PitchCategory{{Name: "lead", Keywords: []string{"lead"}}},
	}
	if got := p.MaxSemitonesFor("lead"); got != DefaultMaxSemitones {
		t.Fatalf("cap = %v, want %v", got, DefaultMaxSemitones)
	}
	limit := math.Exp2(DefaultMaxSemitones / 12)
	if r := p.Ratio("lead", intp(0), 60); r > limit {
		t.Fatalf("ratio(+60) = %v, want <= %v", r, limit)
	}

	p.MaxSemitones = 7
	if got := p.MaxSemitonesFor("lead"); got != 7 {
		t.Fatalf("cap = %v, want the policy cap 7", got)
	}
}

func TestPitchPolicyWithDefaults(t *testing.T) {
	p := PitchPolicy{MaxSemitones: 7}.WithDefaults()
	d := DefaultPitchPolicy()
	if p.MaxSemitones != 7 || p.NaturalPitch != DefaultNaturalPitch {
		t.Fatalf("policy = %+v", p)
	}
	if len(p.Percussive) != len(d.Percussive) || len(p.Categories) != len(d.Categories) {
		t.Fatalf("lists not defaulted: %+v", p)
	}
	if !p.IsPercussive("kick") || p.MaxSemitonesFor("bass") != 12 {
		t.Fatal("defaulted policy does not classify like the default")
	}

	empty := PitchPolicy{Percussive: []string{}}.WithDefaults()
	if empty.IsPercussive("kick") {
		t.Fatal("an explicit empty percussive list must stay empty")
	}
}

func TestPitchPolicyValidate(t *testing.T) {
	if err := DefaultPitchPolicy().Validate(); err != nil {
		t.Fatalf("default policy: %v", err)
	}
	bad := []PitchPolicy{
		{NaturalPitch: 128},
		{NaturalPitch: -1},
		{MaxSemitones: -3},
		{Categories: []PitchCategory{{Name: "x", MaxSemitones: -1}}},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", p)
		}
	}
}
