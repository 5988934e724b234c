package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/builder"
	"github.com/contentgraph/contentgraph/internal/model"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// validate loads the collection set and runs a full schema build without
// serving or persisting anything.
func (c *Controller) validate(ctx context.Context) error {
	cfg, dir, err := c.loadConfig()
	if err != nil {
		return err
	}

	collections, err := model.LoadDir(filepath.Join(dir, cfg.Collections))
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	registry := adapter.NewRegistry()
	registry.Register("memory", adapter.NewMemory())

	schemaBuilder := builder.New(registry, policy.AllowAll(), nil, logger)
	if _, err := schemaBuilder.Build(ctx, collections, buildOptions(cfg)); err != nil {
		return fmt.Errorf("schema build failed: %w", err)
	}

	sdl, err := builder.SDL(collections, buildOptions(cfg))
	if err != nil {
		return err
	}

	fmt.Printf("Validated %d collections\n\n%s", len(collections), sdl)
	return nil
}
