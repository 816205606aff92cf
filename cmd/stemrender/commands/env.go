package commands

import (
	"errors"
	"path/filepath"

	"github.com/haivivi/stemrender/cmd/stemrender/internal/config"
	"github.com/haivivi/stemrender/pkg/catalog"
	"github.com/haivivi/stemrender/pkg/kv"
	"github.com/haivivi/stemrender/pkg/render"
	"github.com/haivivi/stemrender/pkg/runs"
	"github.com/haivivi/stemrender/pkg/storage"
)

// env is everything a command needs from the selected context. Close
// releases the databases.
type env struct {
	svc      *config.RenderService
	samples  storage.FileStore
	library  *catalog.KVLibrary
	registry *runs.KVRegistry
	stores   []kv.Store
}

// openEnv opens the catalog and run databases and the sample store of the
// --context (or current) context.
func openEnv() (*env, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	svc, err := config.LoadRender(dir)
	if err != nil {
		return nil, err
	}

	e := &env{svc: svc}
	if e.samples, err = storage.Open(svc.Samples); err != nil {
		return nil, err
	}

	catalogDB, err := kv.NewBadger(kv.BadgerOptions{Dir: svc.CatalogDir, Logger: logger})
	if err != nil {
		return nil, err
	}
	e.stores = append(e.stores, catalogDB)

	// Badger holds a directory lock, so a shared directory means a shared
	// store.
	runsDB := kv.Store(catalogDB)
	if filepath.Clean(svc.RunsDir) != filepath.Clean(svc.CatalogDir) {
		db, err := kv.NewBadger(kv.BadgerOptions{Dir: svc.RunsDir, Logger: logger})
		if err != nil {
			e.Close()
			return nil, err
		}
		e.stores = append(e.stores, db)
		runsDB = db
	}

	e.library = catalog.NewKVLibrary(catalog.KVLibraryConfig{
		Store:   catalogDB,
		Samples: e.samples,
		Logger:  logger,
	})
	e.registry = runs.NewKVRegistry(runsDB)
	return e, nil
}

// engine builds a render engine writing to the context's output store.
func (e *env) engine() (*render.Engine, error) {
	output, err := storage.Open(e.svc.Output)
	if err != nil {
		return nil, err
	}
	return render.New(render.Config{
		Library:    e.library,
		Samples:    e.samples,
		Output:     output,
		Runs:       e.registry,
		SampleRate: e.svc.SampleRate,
		Workers:    e.svc.Workers,
		Pitch:      e.svc.Pitch,
		Logger:     logger,
	})
}

func (e *env) Close() error {
	var errs []error
	for _, s := range e.stores {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
