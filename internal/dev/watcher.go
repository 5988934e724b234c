// Package dev watches collection definition files and drives schema
// rebuilds while the server runs.
package dev

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/contentgraph/contentgraph/internal/model"
)

// Watcher emits change events for the collection definition files in one
// directory. The collections directory is flat; the loader ignores
// subdirectories, so the watcher does too.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(path string, op fsnotify.Op)
	logger   zerolog.Logger
}

// NewWatcher creates a watcher over the given collections directory.
func NewWatcher(dir string, logger zerolog.Logger, onChange func(path string, op fsnotify.Op)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return &Watcher{
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start blocks, forwarding definition-file events until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if isDefinitionFile(event.Name) {
				w.onChange(event.Name, event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				w.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

// isDefinitionFile reports whether a change concerns a collection
// definition. Hidden files cover editor swap and backup artifacts.
func isDefinitionFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, model.SettingsSuffix)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
