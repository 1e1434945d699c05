package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"pdxgraph/internal/blob"
	"pdxgraph/internal/config"
	"pdxgraph/internal/platform/logger"
	"pdxgraph/internal/resolver"
	"pdxgraph/internal/table"
	"pdxgraph/pkg/domain"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	source blob.Store
	out    io.Writer
}

func newApp(ctx context.Context, configPath string, out io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	source, err := blob.Open(ctx, cfg.Source.Config)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return &app{cfg: cfg, log: log, source: source, out: out}, nil
}

func (a *app) close() { a.log.Sync() }

// providers returns args when given, then the configured list, then every
// provider directory under the source prefix.
func (a *app) providers(ctx context.Context, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.Load.Providers) > 0 {
		return a.cfg.Load.Providers, nil
	}
	found, err := table.ListProviders(ctx, a.source, a.cfg.Source.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no providers under %q", a.cfg.Source.Prefix)
	}
	return found, nil
}

// tables reads and cleans one provider release.
func (a *app) tables(ctx context.Context, provider string) (table.Set, error) {
	set, err := table.LoadProvider(ctx, a.source, a.cfg.Source.Prefix, provider)
	if err != nil {
		return nil, err
	}
	return table.Clean(set), nil
}

func (a *app) catalog() (*resolver.Catalog, error) {
	path := a.cfg.Markers.CatalogPath
	if path == "" {
		a.log.Warn("no marker catalog configured, every marker will be unresolved")
		return resolver.NewCatalog(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marker catalog: %w", err)
	}
	defer f.Close()
	c, err := resolver.ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("parse marker catalog %s: %w", path, err)
	}
	a.log.Info("marker catalog loaded", "path", path, "markers", c.Len())
	return c, nil
}

// resolver builds catalog -> LRU -> redis, outermost last. The returned
// func releases the redis connection.
func (a *app) resolver(ctx context.Context) (domain.MarkerResolver, func(), error) {
	c, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	var res domain.MarkerResolver = c
	if size := a.cfg.Markers.CacheSize; size > 0 {
		cached, err := resolver.NewCached(res, size)
		if err != nil {
			return nil, nil, err
		}
		res = cached
	}
	if a.cfg.Markers.RedisURL == "" {
		return res, func() {}, nil
	}
	rdb, err := resolver.DialRedis(ctx, a.cfg.Markers.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return resolver.NewRedisCache(res, rdb, a.cfg.Markers.RedisTTL), func() { _ = rdb.Close() }, nil
}
