package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/stemrender/pkg/kv"
)

const runSegment = "runs"

// KVRegistry is a Registry stored in a kv.Store under
// runs/{project}/{run_id}.
type KVRegistry struct {
	store kv.Store

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewKVRegistry returns a registry over store.
func NewKVRegistry(store kv.Store) *KVRegistry {
	return &KVRegistry{store: store, Now: time.Now}
}

func runKey(project, runID string) (kv.Key, error) {
	for _, s := range []string{project, runID} {
		if s == "" || strings.ContainsRune(s, kv.Separator) {
			return nil, fmt.Errorf("runs: invalid name %q", s)
		}
	}
	return kv.Key{runSegment, project, runID}, nil
}

func (r *KVRegistry) now() time.Time {
	return r.Now().UTC()
}

func (r *KVRegistry) Begin(ctx context.Context, project, runID string) (*Record, error) {
	key, err := runKey(project, runID)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Project:   project,
		RunID:     runID,
		Status:    StatusRunning,
		CreatedAt: r.now(),
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("runs: encode %s/%s: %w", project, runID, err)
	}
	ok, err := r.store.SetIfAbsent(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("runs: begin %s/%s: %w", project, runID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunExists, project, runID)
	}
	return rec, nil
}

func (r *KVRegistry) Finish(ctx context.Context, project, runID string, out Outputs) (*Record, error) {
	return r.update(ctx, project, runID, func(rec *Record) {
		rec.Status = StatusComplete
		rec.FinishedAt = r.now()
		rec.Master = out.Master
		rec.Stems = out.Stems
		rec.Missing = out.Missing
		rec.SampleRate = out.SampleRate
		rec.DurationSeconds = out.DurationSeconds
		rec.Error = ""
	})
}

func (r *KVRegistry) Fail(ctx context.Context, project, runID string, cause error) (*Record, error) {
	return r.update(ctx, project, runID, func(rec *Record) {
		rec.Status = StatusFailed
		rec.FinishedAt = r.now()
		if cause != nil {
			rec.Error = cause.Error()
		}
	})
}

func (r *KVRegistry) update(ctx context.Context, project, runID string, fn func(*Record)) (*Record, error) {
	rec, err := r.Get(ctx, project, runID)
	if err != nil {
		return nil, err
	}
	fn(rec)
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("runs: encode %s/%s: %w", project, runID, err)
	}
	key, _ := runKey(project, runID)
	if err := r.store.Set(ctx, key, data); err != nil {
		return nil, fmt.Errorf("runs: store %s/%s: %w", project, runID, err)
	}
	return rec, nil
}

func (r *KVRegistry) Get(ctx context.Context, project, runID string) (*Record, error) {
	key, err := runKey(project, runID)
	if err != nil {
		return nil, err
	}
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, project, runID)
		}
		return nil, fmt.Errorf("runs: get %s/%s: %w", project, runID, err)
	}
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("runs: decode %s/%s: %w", project, runID, err)
	}
	return &rec, nil
}

func (r *KVRegistry) List(ctx context.Context, project string) ([]Record, error) {
	prefix := kv.Key{runSegment}
	if project != "" {
		prefix = append(prefix, project)
	}
	var out []Record
	for entry, err := range r.store.List(ctx, prefix) {
		if err != nil {
			return nil, fmt.Errorf("runs: list: %w", err)
		}
		var rec Record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue // skip malformed entries
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ Registry = (*KVRegistry)(nil)
