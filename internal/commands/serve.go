package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/builder"
	"github.com/contentgraph/contentgraph/internal/config"
	"github.com/contentgraph/contentgraph/internal/dev"
	"github.com/contentgraph/contentgraph/internal/gateway"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// serve builds the schema from the configured collections directory and
// serves it, rebuilding when definition files change.
func (c *Controller) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, dir, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	registry := adapter.NewRegistry()
	registry.Register("memory", adapter.NewMemory())

	scaffolds := policy.NewScaffoldWriter(filepath.Join(dir, cfg.Policies), logger)
	schemaBuilder := builder.New(registry, policy.AllowAll(), scaffolds, logger)

	reloader := &dev.Reloader{
		CollectionsDir: filepath.Join(dir, cfg.Collections),
		Builder:        schemaBuilder,
		Gateway:        gateway.New(logger),
		Options:        buildOptions(cfg),
		Logger:         logger,
	}

	if err := reloader.Reload(ctx); err != nil {
		return fmt.Errorf("failed to build schema: %w", err)
	}

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: reloader.Gateway.Handler(),
	}

	errChan := make(chan error, 2)

	go func() {
		logger.Info().Str("address", cfg.Address).Msg("starting graphql gateway")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go func() {
		if err := reloader.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (c *Controller) loadConfig() (*config.Config, string, error) {
	if c.Flags != nil && c.Flags.Config != "" {
		cfg, err := config.LoadConfigFromPath(c.Flags.Config)
		if err != nil {
			return nil, "", err
		}
		return cfg, filepath.Dir(c.Flags.Config), nil
	}
	return config.LoadConfig()
}

func buildOptions(cfg *config.Config) builder.Options {
	return builder.Options{
		IgnoreMutations: cfg.GraphQL.IgnoreMutations,
		UsefulQueries:   cfg.GraphQL.UsefulQueriesEnabled(),
	}
}
