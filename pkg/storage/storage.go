// Package storage abstracts where sample files are read from and where
// rendered stems and masters are written to. Local disk and S3-compatible
// object stores are supported behind the same FileStore interface.
package storage

import (
	"context"
	"fmt"
	"io"
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Open opens the named file for reading. If the file does not exist, an
	// error wrapping os.ErrNotExist is returned.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Create opens the named file for writing. Parent directories are created
	// as needed. Data becomes visible at path only after Close returns nil;
	// a writer passed to Abort leaves any previous file untouched.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Remove deletes the named file. Removing a missing file returns nil.
	Remove(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Location returns a human-addressable location for path, such as an
	// absolute filesystem path or an s3:// URL.
	Location(path string) string
}

// Aborter is implemented by writers returned from FileStore.Create that can
// discard their data instead of committing it.
type Aborter interface {
	CloseWithError(err error) error
}

// Abort discards a writer obtained from Create. Writers that cannot abort are
// closed normally.
func Abort(w io.WriteCloser, err error) error {
	if a, ok := w.(Aborter); ok {
		return a.CloseWithError(err)
	}
	return w.Close()
}

// Spec selects and configures a FileStore backend. It is embedded in the
// render service configuration file.
type Spec struct {
	// Kind is "local" (default) or "s3".
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Dir is the root directory for local stores.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	Bucket   string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// PathStyle forces path-style addressing (MinIO and friends).
	PathStyle bool `yaml:"path_style,omitempty" json:"path_style,omitempty"`
}

// Open builds the FileStore described by spec.
func Open(spec Spec) (FileStore, error) {
	switch spec.Kind {
	case "", "local":
		if spec.Dir == "" {
			return nil, fmt.Errorf("storage: local store requires dir")
		}
		return NewLocal(spec.Dir)
	case "s3":
		if spec.Bucket == "" {
			return nil, fmt.Errorf("storage: s3 store requires bucket")
		}
		return NewS3(newS3Client(spec), spec.Bucket, spec.Prefix), nil
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", spec.Kind)
	}
}
