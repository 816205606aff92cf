package catalog

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"
)

// Manifest is the output of the cataloguing process.
//
//	instruments:
//	  kick:
//	    - id: kick-01
//	      path: drums/kick/01.wav
//	      natural_pitch: 36
//	    - id: kick-02
//	      path: drums/kick/02.mp3
//	      gain_db: -3
type Manifest struct {
	Instruments map[string][]Asset `yaml:"instruments" json:"instruments"`
}

// ParseManifest decodes a YAML (or JSON) manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("catalog: parse manifest: %w", err)
	}
	return &m, nil
}

// ImportStats summarises an import.
type ImportStats struct {
	Instruments int `json:"instruments" yaml:"instruments"`
	Assets      int `json:"assets" yaml:"assets"`
}

// Import replaces the asset lists of every instrument named in m. Other
// instruments already in the library are left alone.
func Import(ctx context.Context, lib *KVLibrary, m *Manifest) (ImportStats, error) {
	var stats ImportStats
	for _, name := range slices.Sorted(maps.Keys(m.Instruments)) {
		assets := m.Instruments[name]
		if err := lib.Replace(ctx, name, assets); err != nil {
			return stats, err
		}
		stats.Instruments++
		stats.Assets += len(assets)
		lib.logger.Debug("catalog: imported instrument", "instrument", name, "assets", len(assets))
	}
	return stats, nil
}
