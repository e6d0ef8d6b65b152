package entities

import (
	"github.com/google/uuid"

	"beliefgraph/domain/core/valueobjects"
)

// systemNamespace is the fixed UUID namespace the three reserved system
// networks (spec §3.1) are derived from, so their Bids are stable across
// builds and machines without being hardcoded magic literals.
var systemNamespace = uuid.MustParse("2c1a7e90-8b3d-4f61-9a2e-5d6c0b4f8e11")

func systemNetworkBid(name string) valueobjects.Bid {
	return valueobjects.Bid(uuid.NewSHA1(systemNamespace, []byte(name)))
}

// The three reserved system networks. Every real network points at the
// API network via a Section edge; the external-link and asset networks
// are virtual sinks materialized lazily by the resolver.
var (
	APINetworkBid          = systemNetworkBid("api-network")
	ExternalLinkNetworkBid = systemNetworkBid("external-link-network")
	AssetNetworkBid        = systemNetworkBid("asset-network")
)

// IsReservedNetwork reports whether bid names one of the three system
// networks.
func IsReservedNetwork(bid valueobjects.Bid) bool {
	return bid == APINetworkBid || bid == ExternalLinkNetworkBid || bid == AssetNetworkBid
}

// NewAPINetwork builds the singleton API network node.
func NewAPINetwork() *Node {
	return &Node{
		Bid:     APINetworkBid,
		Kind:    KindNetwork | KindAPI,
		Title:   "api",
		HomeNet: APINetworkBid,
		Payload: map[string]any{},
	}
}

// NewExternalLinkNetwork builds the singleton virtual sink network for
// every http(s):// reference.
func NewExternalLinkNetwork() *Node {
	return &Node{
		Bid:     ExternalLinkNetworkBid,
		Kind:    KindNetwork | KindExternal,
		Title:   "external-links",
		HomeNet: ExternalLinkNetworkBid,
		Payload: map[string]any{},
	}
}

// NewAssetNetwork builds the singleton virtual sink network for files
// referenced but not parsed as documents.
func NewAssetNetwork() *Node {
	return &Node{
		Bid:     AssetNetworkBid,
		Kind:    KindNetwork | KindAsset,
		Title:   "assets",
		HomeNet: AssetNetworkBid,
		Payload: map[string]any{},
	}
}

// NewNetwork constructs a new real (user) network node, homed under
// itself, whose namespace tag comes from its own freshly generated Bid.
func NewNetwork(parent valueobjects.Bid, title string) (*Node, error) {
	bid, err := valueobjects.NewBid(parent)
	if err != nil {
		return nil, err
	}
	return &Node{
		Bid:     bid,
		Kind:    KindNetwork,
		Title:   title,
		HomeNet: bid,
		Payload: map[string]any{},
	}, nil
}
