// Package container wires configuration into the services commands use.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/satishbabariya/querycraft/internal/adapters/dataset"
	"github.com/satishbabariya/querycraft/internal/adapters/telemetry"
	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/core/query/cache"
	"github.com/satishbabariya/querycraft/internal/core/query/engine"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/satishbabariya/querycraft/internal/service"
)

// Container holds all application dependencies. The dataset provider is
// opened on first use so commands that never read rows never connect.
type Container struct {
	config *config.Config

	telemetry telemetry.Telemetry
	cache     *cache.LRU[service.Analysis]
	recipes   *recipe.Catalog

	mu       sync.Mutex
	provider dataset.Provider
	previews *service.PreviewService
}

// NewContainer builds the eager parts of the container.
func NewContainer(cfg *config.Config) (*Container, error) {
	tel, err := telemetry.NewTelemetry(cfg.TelemetryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry: %w", err)
	}
	recipes, err := recipe.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	c := &Container{
		config:    cfg,
		telemetry: tel,
		recipes:   recipes,
	}
	if cfg.Cache.Size > 0 {
		c.cache = cache.NewLRU[service.Analysis](cfg.Cache.Size, cfg.Cache.TTL)
	}
	return c, nil
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Recipes returns the recipe catalog.
func (c *Container) Recipes() *recipe.Catalog {
	return c.recipes
}

// Telemetry returns the telemetry backend.
func (c *Container) Telemetry() telemetry.Telemetry {
	return c.telemetry
}

// Metrics returns the telemetry backend when it can report a snapshot.
func (c *Container) Metrics() (*telemetry.MetricsTelemetry, bool) {
	m, ok := c.telemetry.(*telemetry.MetricsTelemetry)
	return m, ok
}

// Provider opens the configured dataset provider.
func (c *Container) Provider() (dataset.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.providerLocked()
}

func (c *Container) providerLocked() (dataset.Provider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := dataset.NewProvider(c.config.DatasetOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	debug.Debug("Dataset opened", "source", p.Name())
	c.provider = p
	return p, nil
}

// PreviewService returns the preview service over the configured dataset.
func (c *Container) PreviewService() (*service.PreviewService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.previews != nil {
		return c.previews, nil
	}
	p, err := c.providerLocked()
	if err != nil {
		return nil, err
	}
	c.previews = c.newService(p)
	return c.previews, nil
}

// AnalysisService returns a service without a dataset, for commands that
// only compile, explain or lint.
func (c *Container) AnalysisService() *service.PreviewService {
	return c.newService(nil)
}

func (c *Container) newService(source dataset.Provider) *service.PreviewService {
	opts := []service.Option{
		service.WithEngine(engine.New(engine.WithPreviewCap(c.config.Preview.RowCap))),
		service.WithTelemetry(c.telemetry),
	}
	if c.cache != nil {
		opts = append(opts, service.WithCache(c.cache))
	}
	return service.NewPreviewService(source, opts...)
}

// Close releases the provider and flushes telemetry.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.provider != nil {
		errs = append(errs, c.provider.Close())
		c.provider = nil
		c.previews = nil
	}
	errs = append(errs, c.telemetry.Flush(ctx), c.telemetry.Close(ctx))
	return errors.Join(errs...)
}
