// Package badgercache implements ports.GlobalCache on top of BadgerDB,
// a disk-backed key-value store, so the identity cache survives process
// restarts without standing up a separate database service.
package badgercache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// Key prefixes, one byte each, to keep nodes/edges/path-index entries
// in disjoint keyspaces within the same Badger instance.
const (
	prefixNode = byte(0x01)
	prefixEdge = byte(0x02)
	prefixPath = byte(0x03)
)

// Cache is a BadgerDB-backed GlobalCache.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) a BadgerDB database rooted at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgercache: open %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func nodeKey(bid valueobjects.Bid) []byte {
	return append([]byte{prefixNode}, []byte(bid.String())...)
}

func edgeKey(key entities.EdgeKey) []byte {
	return []byte(fmt.Sprintf("%c%s|%s|%d", prefixEdge, key.Source.String(), key.Sink.String(), key.Kind))
}

func pathKey(net valueobjects.Bid, path string) []byte {
	return []byte(fmt.Sprintf("%c%s\x00%s", prefixPath, net.String(), path))
}

func (c *Cache) GetNode(_ context.Context, bid valueobjects.Bid) (*entities.Node, bool, error) {
	var node *entities.Node
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(bid))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			node = &entities.Node{}
			return json.Unmarshal(val, node)
		})
	})
	return node, node != nil, err
}

func (c *Cache) PutNode(_ context.Context, node *entities.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("badgercache: encode node: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(nodeKey(node.Bid), data); err != nil {
			return err
		}
		if node.Path != "" {
			return txn.Set(pathKey(node.HomeNet, node.Path), []byte(node.Bid.String()))
		}
		return nil
	})
}

func (c *Cache) DeleteNode(_ context.Context, bid valueobjects.Bid) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nodeKey(bid))
	})
}

func (c *Cache) GetEdge(_ context.Context, key entities.EdgeKey) (*entities.Edge, bool, error) {
	var edge *entities.Edge
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(edgeKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			edge = &entities.Edge{}
			return json.Unmarshal(val, edge)
		})
	})
	return edge, edge != nil, err
}

func (c *Cache) PutEdge(_ context.Context, edge *entities.Edge) error {
	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("badgercache: encode edge: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKey(edge.Key()), data)
	})
}

func (c *Cache) DeleteEdge(_ context.Context, key entities.EdgeKey) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(edgeKey(key))
	})
}

func (c *Cache) NodeByPath(ctx context.Context, net valueobjects.Bid, path string) (*entities.Node, bool, error) {
	var bid valueobjects.Bid
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pathKey(net, path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, perr := valueobjects.ParseBid(string(val))
			if perr != nil {
				return perr
			}
			bid = parsed
			found = true
			return nil
		})
	})
	if err != nil || !found {
		return nil, false, err
	}
	return c.GetNode(ctx, bid)
}
