package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/stemrender/pkg/kv"
	"github.com/haivivi/stemrender/pkg/storage"
)

const (
	assetSegment = "catalog"
	idSegment    = "catalog-id"
)

// KVLibrary is a Library stored in a kv.Store. Existence of sample files is
// checked against Samples.
type KVLibrary struct {
	store   kv.Store
	samples storage.FileStore
	logger  *slog.Logger
}

// KVLibraryConfig configures a KVLibrary.
type KVLibraryConfig struct {
	Store kv.Store

	// Samples is where asset paths are looked up. It may be nil when the
	// library is only used for import and listing.
	Samples storage.FileStore

	Logger *slog.Logger
}

// NewKVLibrary returns a library over cfg.Store.
func NewKVLibrary(cfg KVLibraryConfig) *KVLibrary {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KVLibrary{store: cfg.Store, samples: cfg.Samples, logger: logger}
}

func assetKey(instrument string, order int) kv.Key {
	return kv.Key{assetSegment, instrument, fmt.Sprintf("%06d", order)}
}

func idKey(instrument, id string) kv.Key {
	return kv.Key{idSegment, instrument, id}
}

// Replace swaps the asset list of instrument for assets, in order. The
// Order and Instrument fields of each asset are overwritten.
func (l *KVLibrary) Replace(ctx context.Context, instrument string, assets []Asset) error {
	if !validName(instrument) {
		return fmt.Errorf("catalog: invalid instrument name %q", instrument)
	}
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if !validName(a.ID) {
			return fmt.Errorf("catalog: %s: invalid asset id %q", instrument, a.ID)
		}
		if a.Path == "" {
			return fmt.Errorf("catalog: %s/%s: empty path", instrument, a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("catalog: %s: duplicate asset id %q", instrument, a.ID)
		}
		seen[a.ID] = true
	}

	if err := l.clear(ctx, instrument); err != nil {
		return err
	}
	for i, a := range assets {
		a.Instrument = instrument
		a.Order = i
		data, err := msgpack.Marshal(a)
		if err != nil {
			return fmt.Errorf("catalog: encode %s/%s: %w", instrument, a.ID, err)
		}
		if err := l.store.Set(ctx, assetKey(instrument, i), data); err != nil {
			return fmt.Errorf("catalog: store %s/%s: %w", instrument, a.ID, err)
		}
		if err := l.store.Set(ctx, idKey(instrument, a.ID), []byte(strconv.Itoa(i))); err != nil {
			return fmt.Errorf("catalog: index %s/%s: %w", instrument, a.ID, err)
		}
	}
	return nil
}

func (l *KVLibrary) clear(ctx context.Context, instrument string) error {
	for _, prefix := range []kv.Key{{assetSegment, instrument}, {idSegment, instrument}} {
		var keys []kv.Key
		for entry, err := range l.store.List(ctx, prefix) {
			if err != nil {
				return fmt.Errorf("catalog: list %s: %w", instrument, err)
			}
			keys = append(keys, entry.Key)
		}
		for _, k := range keys {
			if err := l.store.Delete(ctx, k); err != nil {
				return fmt.Errorf("catalog: delete %s: %w", k, err)
			}
		}
	}
	return nil
}

func (l *KVLibrary) Resolve(ctx context.Context, instrument, id string) (*Asset, error) {
	if !validName(instrument) || !validName(id) {
		return nil, ErrNotFound
	}
	ref, err := l.store.Get(ctx, idKey(instrument, id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: resolve %s/%s: %w", instrument, id, err)
	}
	order, err := strconv.Atoi(string(ref))
	if err != nil {
		return nil, fmt.Errorf("catalog: corrupt index for %s/%s: %w", instrument, id, err)
	}
	data, err := l.store.Get(ctx, assetKey(instrument, order))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: resolve %s/%s: %w", instrument, id, err)
	}
	var a Asset
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("catalog: decode %s/%s: %w", instrument, id, err)
	}
	return &a, nil
}

func (l *KVLibrary) FirstAvailable(ctx context.Context, instrument string) (*Asset, error) {
	assets, err := l.List(ctx, instrument)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if l.samples == nil {
			return &assets[i], nil
		}
		ok, err := l.samples.Exists(ctx, assets[i].Path)
		if err != nil {
			l.logger.Warn("catalog: check sample", "instrument", instrument, "path", assets[i].Path, "error", err)
			continue
		}
		if ok {
			return &assets[i], nil
		}
	}
	return nil, ErrNotFound
}

func (l *KVLibrary) List(ctx context.Context, instrument string) ([]Asset, error) {
	prefix := kv.Key{assetSegment}
	if instrument != "" {
		if !validName(instrument) {
			return nil, nil
		}
		prefix = append(prefix, instrument)
	}
	var assets []Asset
	for entry, err := range l.store.List(ctx, prefix) {
		if err != nil {
			return nil, fmt.Errorf("catalog: list: %w", err)
		}
		var a Asset
		if err := msgpack.Unmarshal(entry.Value, &a); err != nil {
			l.logger.Warn("catalog: skip malformed asset", "key", entry.Key.String(), "error", err)
			continue
		}
		assets = append(assets, a)
	}
	return assets, nil
}

var _ Library = (*KVLibrary)(nil)
