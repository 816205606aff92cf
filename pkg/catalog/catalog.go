// Package catalog is the read-only sample library the render engine draws
// from. Each instrument has an ordered list of sample assets; the order is
// the preference order used when no specific sample is selected.
//
// The catalog is produced by an external cataloguing process and imported
// from a manifest (see Import). Asset paths are relative to the sample
// storage.FileStore.
//
// # Key layout
//
//	catalog/{instrument}/{order:06d}  → msgpack-encoded Asset
//	catalog-id/{instrument}/{id}      → order (decimal string)
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when an instrument has no matching asset.
var ErrNotFound = errors.New("catalog: not found")

// Asset is one sample file for an instrument.
type Asset struct {
	ID         string `json:"id" yaml:"id" msgpack:"id"`
	Instrument string `json:"instrument" yaml:"instrument" msgpack:"instrument"`
	Path       string `json:"path" yaml:"path" msgpack:"path"`

	// NaturalPitch is the MIDI note the sample sounds at unshifted.
	NaturalPitch *int `json:"natural_pitch,omitempty" yaml:"natural_pitch,omitempty" msgpack:"natural_pitch,omitempty"`

	// GainDB is a normalization gain applied once to the decoded sample.
	GainDB *float64 `json:"gain_db,omitempty" yaml:"gain_db,omitempty" msgpack:"gain_db,omitempty"`

	// Order is the asset's position in the instrument's preference list.
	Order int `json:"order" yaml:"order" msgpack:"order"`
}

// Library looks up sample assets by instrument.
type Library interface {
	// Resolve returns the asset with the given id for instrument, or
	// ErrNotFound.
	Resolve(ctx context.Context, instrument, id string) (*Asset, error)

	// FirstAvailable returns the first asset in library order whose file
	// exists, or ErrNotFound.
	FirstAvailable(ctx context.Context, instrument string) (*Asset, error)

	// List returns the assets of instrument in library order. An empty
	// instrument lists every asset, grouped by instrument name.
	List(ctx context.Context, instrument string) ([]Asset, error)
}

// validName reports whether s can be used as an instrument name or asset id.
func validName(s string) bool {
	return s != "" && !strings.ContainsRune(s, '/')
}
