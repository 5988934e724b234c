package dev

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/contentgraph/contentgraph/internal/builder"
	"github.com/contentgraph/contentgraph/internal/gateway"
	"github.com/contentgraph/contentgraph/internal/model"
)

// debounceInterval batches bursts of file events into one rebuild.
const debounceInterval = 250 * time.Millisecond

// Reloader rebuilds the schema from the collections directory and swaps it
// into the gateway.
type Reloader struct {
	CollectionsDir string
	Builder        *builder.Builder
	Gateway        *gateway.Gateway
	Options        builder.Options
	Logger         zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Reload loads the collection set, builds a fresh schema and installs it.
// A failed rebuild leaves the currently served schema in place.
func (r *Reloader) Reload(ctx context.Context) error {
	collections, err := model.LoadDir(r.CollectionsDir)
	if err != nil {
		return err
	}

	schema, err := r.Builder.Build(ctx, collections, r.Options)
	if err != nil {
		return err
	}

	sdl, err := builder.SDL(collections, r.Options)
	if err != nil {
		return err
	}

	return r.Gateway.UpdateSchema(schema, sdl)
}

// Watch blocks, rebuilding after changes to collection definition files.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := NewWatcher(r.CollectionsDir, r.Logger, func(path string, op fsnotify.Op) {
		r.Logger.Debug().Str("path", path).Str("op", op.String()).Msg("collection file changed")
		r.scheduleReload(ctx)
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	return watcher.Start(ctx)
}

// scheduleReload debounces reloads so editor save bursts rebuild once.
func (r *Reloader) scheduleReload(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(debounceInterval, func() {
		if err := r.Reload(ctx); err != nil {
			r.Logger.Warn().Err(err).Msg("schema rebuild failed, keeping previous schema")
			return
		}
		r.Logger.Info().Msg("schema rebuilt")
	})
}
