// Package index implements the Identity & Path Index (spec §4.1): the
// bidirectional maps among the five key kinds (Bid, Bref, Id, Title,
// Path) and a node's Bid, plus the two-level collision resolution the
// resolver falls back to when an authored key is already taken.
package index

import (
	"fmt"
	"sync"

	"beliefgraph/domain/core/valueobjects"
)

// scopedKey renders a net-scoped key string for the id/title/path maps.
func scopedKey(net valueobjects.Bid, value string) string {
	return net.String() + "\x00" + value
}

// claims records which scoped keys currently resolve to a Bid, so they
// can be retracted on Remove without the caller having to remember them.
type claims struct {
	bref       valueobjects.Bref
	hasBref    bool
	id         string
	hasID      bool
	title      string
	hasTitle   bool
	path       string
	hasPath    bool
	net        valueobjects.Bid
}

// Index is the Identity & Path Index. It holds no node payload: it is a
// pure lookup table from any of the five key kinds to a Bid, maintained
// by the resolver as it assigns and reconciles identities.
type Index struct {
	mu      sync.RWMutex
	byBref  map[valueobjects.Bref]valueobjects.Bid
	byID    map[string]valueobjects.Bid
	byTitle map[string]valueobjects.Bid
	byPath  map[string]valueobjects.Bid
	claims  map[valueobjects.Bid]*claims
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		byBref:  make(map[valueobjects.Bref]valueobjects.Bid),
		byID:    make(map[string]valueobjects.Bid),
		byTitle: make(map[string]valueobjects.Bid),
		byPath:  make(map[string]valueobjects.Bid),
		claims:  make(map[valueobjects.Bid]*claims),
	}
}

func (ix *Index) claimsFor(bid valueobjects.Bid) *claims {
	c, ok := ix.claims[bid]
	if !ok {
		c = &claims{}
		ix.claims[bid] = c
	}
	return c
}

// ResolveBref looks up a node by its globally-unique Bref. Bref is never
// collision-resolved away: it is derived from the Bid itself, so a
// conflict here means two distinct nodes produced the same 48-bit
// suffix within the same network, which RegisterBref refuses to let
// happen (it reports the conflict to the caller instead of silently
// overwriting).
func (ix *Index) ResolveBref(bref valueobjects.Bref) (valueobjects.Bid, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	bid, ok := ix.byBref[bref]
	return bid, ok
}

// ResolveID looks up a node by its Id, scoped to net.
func (ix *Index) ResolveID(net valueobjects.Bid, id string) (valueobjects.Bid, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	bid, ok := ix.byID[scopedKey(net, id)]
	return bid, ok
}

// ResolveTitle looks up a node by its normalized Title, scoped to net.
// Callers should normalize with valueobjects.NormalizeTitle before
// calling, or use TitleKey and pass its Value.
func (ix *Index) ResolveTitle(net valueobjects.Bid, normalizedTitle string) (valueobjects.Bid, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	bid, ok := ix.byTitle[scopedKey(net, normalizedTitle)]
	return bid, ok
}

// ResolvePath looks up a node by its network-relative Path.
func (ix *Index) ResolvePath(net valueobjects.Bid, path string) (valueobjects.Bid, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	bid, ok := ix.byPath[scopedKey(net, path)]
	return bid, ok
}

// Resolve dispatches on key.Kind to the matching Resolve* method.
func (ix *Index) Resolve(key valueobjects.NodeKey) (valueobjects.Bid, bool) {
	switch key.Kind {
	case valueobjects.KeyBid:
		return key.Bid, !key.Bid.IsNil()
	case valueobjects.KeyBref:
		return ix.ResolveBref(key.Bref)
	case valueobjects.KeyID:
		return ix.ResolveID(key.Net, key.Value)
	case valueobjects.KeyTitle:
		return ix.ResolveTitle(key.Net, key.Value)
	case valueobjects.KeyPath:
		return ix.ResolvePath(key.Net, key.Value)
	default:
		return valueobjects.NilBid, false
	}
}

// RegisterBref claims bref for bid. A conflict (bref already claimed by
// a different bid) is an index corruption, not an ordinary collision:
// Bref is the low 48 bits of Bid, folded per-network to stay unique, so
// two different Bids colliding here means NewBid's folding broke down
// for this network. It is reported rather than panicking so the caller
// (the resolver) can surface it as an InvariantViolation for the file
// that produced the newer node.
func (ix *Index) RegisterBref(net, bid valueobjects.Bid, bref valueobjects.Bref) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if existing, ok := ix.byBref[bref]; ok && existing != bid {
		return fmt.Errorf("index: bref %s already claimed by %s", bref, existing)
	}
	ix.byBref[bref] = bid
	c := ix.claimsFor(bid)
	c.bref, c.hasBref, c.net = bref, true, net
	return nil
}

// RegisterTitle attempts to claim normalizedTitle for bid within net.
// On a collision with a different bid already holding the title (the
// document-level case: two sections produced the same anchor form), it
// returns ok=false and leaves the existing claim untouched; the caller
// falls back to addressing the new node by its Bref instead of a
// synthesized title anchor.
func (ix *Index) RegisterTitle(net, bid valueobjects.Bid, normalizedTitle string) (ok bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := scopedKey(net, normalizedTitle)
	if existing, taken := ix.byTitle[key]; taken && existing != bid {
		return false
	}
	ix.byTitle[key] = bid
	c := ix.claimsFor(bid)
	c.title, c.hasTitle, c.net = normalizedTitle, true, net
	return true
}

// RegisterID attempts to claim id for bid within net. On a collision
// with a different bid (the network-level case: two documents claim the
// same human-authored id), it returns ok=false; the caller drops the Id
// key for the newer node entirely, leaving it resolvable only by Bref,
// Bid, and Path.
func (ix *Index) RegisterID(net, bid valueobjects.Bid, id string) (ok bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := scopedKey(net, id)
	if existing, taken := ix.byID[key]; taken && existing != bid {
		return false
	}
	ix.byID[key] = bid
	c := ix.claimsFor(bid)
	c.id, c.hasID, c.net = id, true, net
	return true
}

// RegisterPath claims path for bid within net. Paths are 1:1 with files
// on disk, so a collision here (two different bids for the same path)
// is always a caller bug: the driver must remove the old node for a
// path before reparsing it under a new Bid.
func (ix *Index) RegisterPath(net, bid valueobjects.Bid, path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := scopedKey(net, path)
	if existing, taken := ix.byPath[key]; taken && existing != bid {
		return fmt.Errorf("index: path %q already claimed by %s", path, existing)
	}
	ix.byPath[key] = bid
	c := ix.claimsFor(bid)
	c.path, c.hasPath, c.net = path, true, net
	return nil
}

// Remove retracts every key currently claimed by bid.
func (ix *Index) Remove(bid valueobjects.Bid) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, ok := ix.claims[bid]
	if !ok {
		return
	}
	if c.hasBref {
		delete(ix.byBref, c.bref)
	}
	if c.hasID {
		delete(ix.byID, scopedKey(c.net, c.id))
	}
	if c.hasTitle {
		delete(ix.byTitle, scopedKey(c.net, c.title))
	}
	if c.hasPath {
		delete(ix.byPath, scopedKey(c.net, c.path))
	}
	delete(ix.claims, bid)
}

// DropID retracts only the Id claim for bid, leaving its Bref, Title and
// Path claims in place.
func (ix *Index) DropID(bid valueobjects.Bid) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	c, ok := ix.claims[bid]
	if !ok || !c.hasID {
		return
	}
	delete(ix.byID, scopedKey(c.net, c.id))
	c.hasID = false
}
