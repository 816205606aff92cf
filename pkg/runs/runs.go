// Package runs records render runs. A run is identified by its project name
// and run id; the registry, not the output file layout, is the source of
// truth for whether a run exists.
package runs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRunExists is returned by Begin when the run id is already recorded
	// for the project.
	ErrRunExists = errors.New("runs: run already exists")

	// ErrNotFound is returned when a run is not recorded.
	ErrNotFound = errors.New("runs: not found")
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Record describes one render run.
type Record struct {
	Project    string    `json:"project" yaml:"project" msgpack:"project"`
	RunID      string    `json:"run_id" yaml:"run_id" msgpack:"run_id"`
	Status     Status    `json:"status" yaml:"status" msgpack:"status"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at" msgpack:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty" msgpack:"finished_at,omitempty"`

	// Master and Stems are store-relative output paths.
	Master string            `json:"master,omitempty" yaml:"master,omitempty" msgpack:"master,omitempty"`
	Stems  map[string]string `json:"stems,omitempty" yaml:"stems,omitempty" msgpack:"stems,omitempty"`

	Missing         []string `json:"missing,omitempty" yaml:"missing,omitempty" msgpack:"missing,omitempty"`
	SampleRate      int      `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty" msgpack:"sample_rate,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty" msgpack:"duration_seconds,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// Outputs is the result of a completed run.
type Outputs struct {
	Master          string
	Stems           map[string]string
	Missing         []string
	SampleRate      int
	DurationSeconds float64
}

// Registry stores run records.
type Registry interface {
	// Begin records a new running run. It fails with ErrRunExists if the
	// run id is already taken for the project.
	Begin(ctx context.Context, project, runID string) (*Record, error)

	// Finish marks a run complete with its outputs.
	Finish(ctx context.Context, project, runID string, out Outputs) (*Record, error)

	// Fail marks a run failed with the cause.
	Fail(ctx context.Context, project, runID string, cause error) (*Record, error)

	// Get returns a run, or ErrNotFound.
	Get(ctx context.Context, project, runID string) (*Record, error)

	// List returns the runs of project ordered by run id. An empty project
	// lists every run.
	List(ctx context.Context, project string) ([]Record, error)
}
