//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

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

	"go.uber.org/zap"
)

// SuperSet is the provider set wire.Build assembles Container from.
// No wire_gen.go is committed in this tree, since no wire binary runs
// as part of this build; container.go is the hand-written equivalent
// and must be kept in step with this set.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCodecRegistry,
	ProvideIndex,
	ProvideStore,
	ProvideFileSystem,
	ProvideHomeNetwork,
	ProvideGlobalCache,
	ProvideEventPublisher,
	ProvideRewriteLock,
	ProvideReparseLimiter,
	ProvideGrammarChecker,
	ProvideDriver,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer builds a fully wired Container for cfg.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // wire replaces this body with real construction
}

// The blank identifiers below keep goimports from dropping types that
// only appear in wire.Build's inferred provider graph, not in this
// file's literal source.
var (
	_ = (*ports.GlobalCache)(nil)
	_ = (*entities.Node)(nil)
	_ = (*driver.Driver)(nil)
	_ = (*zap.Logger)(nil)
	_ = (*osfs.FS)(nil)
	_ = (*ratelimit.PathLimiter)(nil)
	_ = (*schemaver.Checker)(nil)
	_ = (*codec.Registry)(nil)
	_ = (*index.Index)(nil)
	_ = (*store.Store)(nil)
)
