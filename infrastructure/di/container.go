//go:build !wireinject
// +build !wireinject

// Container wiring. This file plays the part wire_gen.go would after
// running `wire ./infrastructure/di` against wire.go's SuperSet — the
// same provider functions, called in the same dependency order, just
// typed out by hand rather than generated, since no wire binary runs
// as part of this build.
package di

import (
	"context"

	"go.uber.org/zap"

	"beliefgraph/application/ports"
	"beliefgraph/codec"
	"beliefgraph/domain/core/entities"
	"beliefgraph/driver"
	"beliefgraph/index"
	"beliefgraph/infrastructure/config"
	"beliefgraph/infrastructure/persistence/osfs"
	"beliefgraph/infrastructure/ratelimit"
	"beliefgraph/pkg/schemaver"
	"beliefgraph/store"
)

// Container holds every wired dependency a cmd/ entrypoint needs.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Registry       *codec.Registry
	Index          *index.Index
	Store          *store.Store
	FileSystem     *osfs.FS
	HomeNetwork    *entities.Node
	Cache          ports.GlobalCache
	EventPublisher ports.EventPublisher
	RewriteLock    ports.RewriteLock
	ReparseLimiter *ratelimit.PathLimiter
	GrammarChecker *schemaver.Checker
	Driver         *driver.Driver

	cacheCleanup func() error
}

// Close releases resources the container opened (badger's on-disk
// handles; dynamo/memory/eventbus have nothing to release).
func (c *Container) Close() error {
	if c.cacheCleanup != nil {
		return c.cacheCleanup()
	}
	return nil
}

// InitializeContainer builds a fully wired Container for cfg.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	registry := ProvideCodecRegistry()
	idx := ProvideIndex()
	st := ProvideStore(idx)

	fs, err := ProvideFileSystem(cfg)
	if err != nil {
		return nil, err
	}

	homeNet, err := ProvideHomeNetwork(cfg, fs)
	if err != nil {
		return nil, err
	}

	cache, cacheCleanup, err := ProvideGlobalCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := ProvideEventPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	lock := ProvideRewriteLock()
	limiter := ProvideReparseLimiter(cfg)
	grammar := ProvideGrammarChecker()

	drv := ProvideDriver(registry, idx, st, cache, publisher, fs, logger, homeNet, limiter, grammar, lock, cfg)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Registry:       registry,
		Index:          idx,
		Store:          st,
		FileSystem:     fs,
		HomeNetwork:    homeNet,
		Cache:          cache,
		EventPublisher: publisher,
		RewriteLock:    lock,
		ReparseLimiter: limiter,
		GrammarChecker: grammar,
		Driver:         drv,
		cacheCleanup:   cacheCleanup,
	}, nil
}
