// Package memorycache implements ports.GlobalCache with a process-local
// map, for single-process or test deployments that don't need the
// global cache to survive a restart.
package memorycache

import (
	"context"
	"sync"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

type pathKey struct {
	net  valueobjects.Bid
	path string
}

// Cache is a mutex-guarded in-memory GlobalCache.
type Cache struct {
	mu    sync.RWMutex
	nodes map[valueobjects.Bid]*entities.Node
	edges map[entities.EdgeKey]*entities.Edge
	paths map[pathKey]valueobjects.Bid
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{
		nodes: make(map[valueobjects.Bid]*entities.Node),
		edges: make(map[entities.EdgeKey]*entities.Edge),
		paths: make(map[pathKey]valueobjects.Bid),
	}
}

func (c *Cache) GetNode(_ context.Context, bid valueobjects.Bid) (*entities.Node, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[bid]
	return n, ok, nil
}

func (c *Cache) PutNode(_ context.Context, node *entities.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[node.Bid] = node
	if node.Path != "" {
		c.paths[pathKey{net: node.HomeNet, path: node.Path}] = node.Bid
	}
	return nil
}

func (c *Cache) DeleteNode(_ context.Context, bid valueobjects.Bid) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[bid]; ok && n.Path != "" {
		delete(c.paths, pathKey{net: n.HomeNet, path: n.Path})
	}
	delete(c.nodes, bid)
	return nil
}

func (c *Cache) GetEdge(_ context.Context, key entities.EdgeKey) (*entities.Edge, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.edges[key]
	return e, ok, nil
}

func (c *Cache) PutEdge(_ context.Context, edge *entities.Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges[edge.Key()] = edge
	return nil
}

func (c *Cache) DeleteEdge(_ context.Context, key entities.EdgeKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.edges, key)
	return nil
}

func (c *Cache) NodeByPath(_ context.Context, net valueobjects.Bid, path string) (*entities.Node, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bid, ok := c.paths[pathKey{net: net, path: path}]
	if !ok {
		return nil, false, nil
	}
	n, ok := c.nodes[bid]
	return n, ok, nil
}
