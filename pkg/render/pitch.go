package render

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// DefaultNaturalPitch is assumed for samples without a known pitch.
const DefaultNaturalPitch = 60

// DefaultMaxSemitones is the transposition cap for instruments that match
// no category.
const DefaultMaxSemitones = 18.0

// PitchCategory caps transposition for instruments whose name contains any
// of Keywords as a word. A non-positive MaxSemitones uses the policy cap.
type PitchCategory struct {
	Name         string   `json:"name" yaml:"name"`
	MaxSemitones float64  `json:"max_semitones" yaml:"max_semitones"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
}

// PitchPolicy maps target notes to playback ratios.
//
// Instrument names and keywords are split into lower-case words at
// separators and at letter/digit boundaries, so "bottom_pad" is the words
// bottom and pad and "808bass" is 808 and bass. A keyword matches a word
// exactly or with a plural "s". Keywords may span words ("bass drum").
// The leftmost matching word decides: "strings_ride_out" is sustained
// strings and "kick_bass" is percussive.
type PitchPolicy struct {
	NaturalPitch int     `json:"natural_pitch" yaml:"natural_pitch"`
	MaxSemitones float64 `json:"max_semitones" yaml:"max_semitones"`

	// Percussive instruments always play at their natural pitch.
	Percussive []string `json:"percussive" yaml:"percussive"`

	// Categories are checked in order; the first match wins.
	Categories []PitchCategory `json:"categories" yaml:"categories"`
}

// DefaultPitchPolicy returns the built-in policy: 12 semitones for bass-like
// instruments, 24 for sustained harmonic ones, 18 otherwise.
func DefaultPitchPolicy() PitchPolicy {
	return PitchPolicy{
		NaturalPitch: DefaultNaturalPitch,
		MaxSemitones: DefaultMaxSemitones,
		Percussive: []string{
			"kick", "snare", "hat", "hihat", "hh", "clap", "perc", "percussion",
			"tom", "cymbal", "crash", "ride", "rim", "rimshot", "shaker", "drum",
			"cowbell", "bass drum", "kick drum",
		},
		Categories: []PitchCategory{
			{Name: "bass", MaxSemitones: 12, Keywords: []string{"bass", "sub", "808"}},
			{Name: "sustain", MaxSemitones: 24, Keywords: []string{"pad", "string", "organ", "choir", "drone"}},
		},
	}
}

// WithDefaults fills the unset fields of p from DefaultPitchPolicy. Lists
// set to empty stay empty.
func (p PitchPolicy) WithDefaults() PitchPolicy {
	d := DefaultPitchPolicy()
	if p.NaturalPitch == 0 {
		p.NaturalPitch = d.NaturalPitch
	}
	if p.MaxSemitones <= 0 {
		p.MaxSemitones = d.MaxSemitones
	}
	if p.Percussive == nil {
		p.Percussive = d.Percussive
	}
	if p.Categories == nil {
		p.Categories = d.Categories
	}
	return p
}

// Validate reports out-of-range settings.
func (p PitchPolicy) Validate() error {
	if p.NaturalPitch < 0 || p.NaturalPitch > 127 {
		return fmt.Errorf("pitch: natural_pitch %d out of range [0,127]", p.NaturalPitch)
	}
	if p.MaxSemitones < 0 {
		return fmt.Errorf("pitch: max_semitones %v must not be negative", p.MaxSemitones)
	}
	for i, c := range p.Categories {
		if c.MaxSemitones < 0 {
			return fmt.Errorf("pitch: categories[%d] %q: max_semitones %v must not be negative", i, c.Name, c.MaxSemitones)
		}
	}
	return nil
}

// words splits s into lower-case words at non-alphanumeric runes and at
// letter/digit boundaries.
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev int // 0 none, 1 letter, 2 digit
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range strings.ToLower(s) {
		kind := 0
		switch {
		case unicode.IsLetter(r):
			kind = 1
		case unicode.IsDigit(r):
			kind = 2
		}
		if kind == 0 || (prev != 0 && kind != prev) {
			flush()
		}
		if kind != 0 {
			cur = append(cur, r)
		}
		prev = kind
	}
	flush()
	return out
}

// matchAt returns how many words of name the keyword matches at i, or 0.
func matchAt(name []string, i int, keyword []string) int {
	if len(keyword) == 0 || i+len(keyword) > len(name) {
		return 0
	}
	for j, k := range keyword {
		w := name[i+j]
		if w != k && w != k+"s" {
			return 0
		}
	}
	return len(keyword)
}

// classify returns whether instrument is percussive and, if not, the index
// of its category or -1.
func (p PitchPolicy) classify(instrument string) (percussive bool, category int) {
	name := words(instrument)
	for i := range name {
		best, cat := 0, -1
		perc := false
		for _, k := range p.Percussive {
			if n := matchAt(name, i, words(k)); n > best {
				best, perc, cat = n, true, -1
			}
		}
		for ci, c := range p.Categories {
			for _, k := range c.Keywords {
				if n := matchAt(name, i, words(k)); n > best {
					best, perc, cat = n, false, ci
				}
			}
		}
		if best > 0 {
			return perc, cat
		}
	}
	return false, -1
}

// IsPercussive reports whether instrument is exempt from pitch shifting.
func (p PitchPolicy) IsPercussive(instrument string) bool {
	perc, _ := p.classify(instrument)
	return perc
}

// MaxSemitonesFor returns the transposition cap for instrument.
func (p PitchPolicy) MaxSemitonesFor(instrument string) float64 {
	if _, ci := p.classify(instrument); ci >= 0 && p.Categories[ci].MaxSemitones > 0 {
		return p.Categories[ci].MaxSemitones
	}
	if p.MaxSemitones > 0 {
		return p.MaxSemitones
	}
	return DefaultMaxSemitones
}

// Ratio returns the playback speed that sounds target from a sample at
// natural (nil for unknown).
func (p PitchPolicy) Ratio(instrument string, natural *int, target int) float64 {
	if p.IsPercussive(instrument) {
		return 1
	}
	base := p.NaturalPitch
	if base == 0 {
		base = DefaultNaturalPitch
	}
	if natural != nil {
		base = *natural
	}
	return CompressedRatio(float64(target-base), p.MaxSemitonesFor(instrument))
}

// CompressedRatio returns 2^(tanh(raw/limit)·limit/12). Small intervals pass
// nearly unchanged; large ones approach ±limit semitones asymptotically.
// A non-positive limit disables compression.
func CompressedRatio(raw, limit float64) float64 {
	if raw == 0 {
		return 1
	}
	semis := raw
	if limit > 0 {
		semis = math.Tanh(raw/limit) * limit
	}
	return math.Exp2(semis / 12)
}
