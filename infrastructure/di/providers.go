// Package di wires the compiler's components (codec registry, identity
// index, graph store, global cache, event bus, driver) into a runnable
// Container, the way the teacher's own infrastructure/di package wires
// its command/query buses and repositories.
package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"beliefgraph/application/ports"
	"beliefgraph/codec"
	"beliefgraph/codec/frontmatter"
	"beliefgraph/codec/markdown"
	"beliefgraph/codec/structured"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/driver"
	"beliefgraph/index"
	"beliefgraph/infrastructure/config"
	"beliefgraph/infrastructure/logging"
	"beliefgraph/infrastructure/persistence/cache/badgercache"
	"beliefgraph/infrastructure/persistence/cache/dynamocache"
	"beliefgraph/infrastructure/persistence/cache/memorycache"
	"beliefgraph/infrastructure/persistence/eventbus"
	"beliefgraph/infrastructure/persistence/osfs"
	"beliefgraph/infrastructure/persistence/rewrite"
	"beliefgraph/infrastructure/ratelimit"
	"beliefgraph/pkg/schemaver"
	"beliefgraph/store"
)

// ProvideLogger builds the shared zap.Logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg)
}

// ProvideCodecRegistry wires every parsing plug-in: Markdown for
// documents with sections, and the structured-data codec (once per
// frontmatter format) for standalone YAML/JSON/TOML files.
func ProvideCodecRegistry() *codec.Registry {
	r := codec.NewRegistry()
	r.Register("md", markdown.NewFactory())
	r.Register("markdown", markdown.NewFactory())
	r.Register("yaml", structured.NewFactory(frontmatter.FormatYAML))
	r.Register("json", structured.NewFactory(frontmatter.FormatJSON))
	r.Register("toml", structured.NewFactory(frontmatter.FormatTOML))
	return r
}

// ProvideIndex constructs the Identity & Path Index.
func ProvideIndex() *index.Index {
	return index.New()
}

// ProvideStore constructs the Graph Store over idx, and seeds it with
// the three reserved system networks (spec §3.1) so the resolver can
// always resolve external-link and asset sinks without a special case.
func ProvideStore(idx *index.Index) *store.Store {
	st := store.New(idx)
	st.InsertNode(entities.NewAPINetwork())
	st.InsertNode(entities.NewExternalLinkNetwork())
	st.InsertNode(entities.NewAssetNetwork())
	return st
}

// networkMarkerFile names the sidecar this compiler uses to remember a
// root directory's home network Bid across runs, since the network's
// identity (spec §4.1) must stay stable for incremental recompilation
// to recognize previously-seen nodes.
const networkMarkerFile = ".docgraph-network"

// ProvideHomeNetwork loads or creates the home network node for
// cfg.NetworkRoot.
func ProvideHomeNetwork(cfg *config.Config, fs *osfs.FS) (*entities.Node, error) {
	marker := filepath.Join(fs.Root(), networkMarkerFile)
	if raw, err := os.ReadFile(marker); err == nil {
		bid, err := valueobjects.ParseBid(string(raw))
		if err != nil {
			return nil, fmt.Errorf("di: corrupt network marker %q: %w", marker, err)
		}
		return &entities.Node{
			Bid: bid, Kind: entities.KindNetwork, Title: filepath.Base(fs.Root()),
			HomeNet: bid, Payload: map[string]any{},
		}, nil
	}

	net, err := entities.NewNetwork(valueobjects.NilBid, filepath.Base(fs.Root()))
	if err != nil {
		return nil, fmt.Errorf("di: create home network: %w", err)
	}
	if err := os.WriteFile(marker, []byte(net.Bid.String()), 0o644); err != nil {
		return nil, fmt.Errorf("di: persist network marker: %w", err)
	}
	return net, nil
}

// ProvideFileSystem roots the driver's filesystem access at cfg.NetworkRoot.
func ProvideFileSystem(cfg *config.Config) (*osfs.FS, error) {
	return osfs.New(cfg.NetworkRoot)
}

// ProvideGlobalCache selects a ports.GlobalCache backend per
// cfg.CacheBackend. The badger/dynamo cases return a cleanup func the
// caller must invoke on shutdown; memory returns a no-op cleanup.
func ProvideGlobalCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.GlobalCache, func() error, error) {
	switch cfg.CacheBackend {
	case "memory":
		return memorycache.New(), func() error { return nil }, nil

	case "badger":
		dir := cfg.BadgerDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("di: create badger dir: %w", err)
		}
		c, err := badgercache.Open(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("di: open badger cache: %w", err)
		}
		return c, c.Close, nil

	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("di: load aws config: %w", err)
		}
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamocache.New(client, cfg.DynamoDBTable, logger), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("di: unknown cache backend %q", cfg.CacheBackend)
	}
}

// ProvideEventPublisher selects an event sink: EventBridge when the
// global cache is distributed (dynamo), an in-process bus otherwise —
// a single process compiling its own local tree has nothing else to
// publish across.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if cfg.CacheBackend != "dynamo" {
		return eventbus.NewLocal(logger), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("di: load aws config: %w", err)
	}
	client := awseventbridge.NewFromConfig(awsCfg)
	return eventbus.NewEventBridgePublisher(client, cfg.EventBusName, logger), nil
}

// ProvideRewriteLock constructs the per-path write-back lock.
func ProvideRewriteLock() ports.RewriteLock {
	return rewrite.New()
}

// ProvideReparseLimiter throttles reparse-enqueue per path to a burst
// of four requests, refilled at one per debounce window, as a backstop against reparse
// storms beyond what the watcher's own debouncing already absorbs.
func ProvideReparseLimiter(cfg *config.Config) *ratelimit.PathLimiter {
	window := time.Duration(cfg.WatchDebounceMS) * time.Millisecond
	if window <= 0 {
		window = 250 * time.Millisecond
	}
	return ratelimit.New(4, window)
}

// ProvideGrammarChecker constructs the canonical-link-grammar version
// tracker.
func ProvideGrammarChecker() *schemaver.Checker {
	return schemaver.New()
}

// ProvideDriver assembles the Compilation Driver from its dependencies.
func ProvideDriver(
	registry *codec.Registry,
	idx *index.Index,
	st *store.Store,
	cache ports.GlobalCache,
	bus ports.EventPublisher,
	fs *osfs.FS,
	logger *zap.Logger,
	homeNet *entities.Node,
	limiter *ratelimit.PathLimiter,
	grammar *schemaver.Checker,
	lock ports.RewriteLock,
	cfg *config.Config,
) *driver.Driver {
	d := driver.New(registry, idx, st, cache, bus, fs, logger, homeNet.Bid, cfg.WriteBack)
	d.SetReparseLimiter(limiter)
	d.SetGrammarChecker(grammar)
	d.SetRewriteLock(lock)
	return d
}
