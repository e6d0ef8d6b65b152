// Package validators enforces invariant I3 (reserved namespace safety):
// user-authored sources may not assign a Bid equal to a reserved system
// network's Bid, nor an Id with the reserved "buildonomy_" prefix. Bids
// minted under a reserved network (which share its trailing namespace
// bytes but differ from its own Bid) are not detected.
package validators

import (
	"strings"

	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// ReservedIDPrefix is the prefix no user-authored id may begin with (I3).
const ReservedIDPrefix = "buildonomy_"

// NamespaceValidator checks authored Bids and Ids against the reserved
// namespace rules. It carries no state; a single instance may be shared
// across files and goroutines.
type NamespaceValidator struct{}

// NewNamespaceValidator constructs a validator.
func NewNamespaceValidator() *NamespaceValidator {
	return &NamespaceValidator{}
}

// ValidateBid rejects an authored Bid that equals one of the three
// reserved system networks' own Bids. The NamespaceTag comparison below
// hashes the whole Bid, so it also matches only that same Bid; a Bid
// whose trailing bytes carry a reserved network's namespace is accepted.
func (v *NamespaceValidator) ValidateBid(file string, bid valueobjects.Bid) diagnostics.Diagnostic {
	if entities.IsReservedNetwork(bid) {
		return diagnostics.InvariantViolation{
			File:   file,
			Kind:   diagnostics.InvariantReservedNamespace,
			Detail: "bid equals a reserved system network: " + bid.String(),
		}
	}
	for _, reserved := range []valueobjects.Bid{entities.APINetworkBid, entities.ExternalLinkNetworkBid, entities.AssetNetworkBid} {
		if valueobjects.NamespaceTag(bid) == valueobjects.NamespaceTag(reserved) {
			return diagnostics.InvariantViolation{
				File:   file,
				Kind:   diagnostics.InvariantReservedNamespace,
				Detail: "bid namespace tag collides with a reserved system network",
			}
		}
	}
	return nil
}

// ValidateID rejects an authored id carrying the reserved prefix.
func (v *NamespaceValidator) ValidateID(file, id string) diagnostics.Diagnostic {
	if strings.HasPrefix(id, ReservedIDPrefix) {
		return diagnostics.InvariantViolation{
			File:   file,
			Kind:   diagnostics.InvariantReservedNamespace,
			Detail: "id uses reserved prefix " + ReservedIDPrefix,
		}
	}
	return nil
}
