package valueobjects

import "fmt"

// KeyKind tags which of the five addressing schemes a NodeKey carries
// (spec 4.1).
type KeyKind int

const (
	KeyBid KeyKind = iota
	KeyBref
	KeyID
	KeyTitle
	KeyPath
)

func (k KeyKind) String() string {
	switch k {
	case KeyBid:
		return "bid"
	case KeyBref:
		return "bref"
	case KeyID:
		return "id"
	case KeyTitle:
		return "title"
	case KeyPath:
		return "path"
	default:
		return "unknown"
	}
}

// NodeKey is the tagged union over the five key kinds a node is
// reachable by. Net is unused for KeyBid/KeyBref, which are globally
// scoped; it scopes KeyID/KeyTitle/KeyPath to the owning network.
type NodeKey struct {
	Kind  KeyKind
	Net   Bid
	Bid   Bid
	Bref  Bref
	Value string // normalized id/title, or the network-relative path
}

// BidKey builds a Bid-kind key.
func BidKey(b Bid) NodeKey { return NodeKey{Kind: KeyBid, Bid: b} }

// BrefKey builds a Bref-kind key.
func BrefKey(r Bref) NodeKey { return NodeKey{Kind: KeyBref, Bref: r} }

// IDKey builds an Id-kind key, scoped to net. value is stored as given;
// callers resolving from link text should normalize case themselves if
// the source format is case-insensitive (ids are not anchor-normalized
// the way titles are).
func IDKey(net Bid, value string) NodeKey {
	return NodeKey{Kind: KeyID, Net: net, Value: value}
}

// TitleKey builds a Title-kind key, scoped to net, normalizing the title
// to its anchor form.
func TitleKey(net Bid, title string) NodeKey {
	return NodeKey{Kind: KeyTitle, Net: net, Value: NormalizeTitle(title)}
}

// PathKey builds a Path-kind key, scoped to net. path is expected
// pre-stripped of any #fragment.
func PathKey(net Bid, path string) NodeKey {
	return NodeKey{Kind: KeyPath, Net: net, Value: path}
}

// String renders the canonical form used in link title slots and
// diagnostics.
func (k NodeKey) String() string {
	switch k.Kind {
	case KeyBid:
		return "bid://" + k.Bid.String()
	case KeyBref:
		return "bref://" + k.Bref.String()
	case KeyID:
		return fmt.Sprintf("id://%s/%s", k.Net.String(), k.Value)
	case KeyTitle:
		return fmt.Sprintf("title://%s/%s", k.Net.String(), k.Value)
	case KeyPath:
		return fmt.Sprintf("path://%s/%s", k.Net.String(), k.Value)
	default:
		return "unknown://"
	}
}

// ResolutionOrder is the fixed order §4.1 mandates when resolving a
// link that could be expressed several ways: Bid, then Bref, then Id,
// then Title, then Path.
var ResolutionOrder = []KeyKind{KeyBid, KeyBref, KeyID, KeyTitle, KeyPath}
