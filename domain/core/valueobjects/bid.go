// Package valueobjects holds the immutable identity primitives shared by
// every node and edge in the graph: the stable Bid, its compact Bref
// rendering, and the tagged NodeKey union used to look either of them up.
package valueobjects

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

// Bid is the 128-bit stable node identifier (spec 3.1, 4.1). It wraps a
// time-ordered UUID (RFC 9562 version 7) so that BIDs sort in creation
// order, with the trailing six bytes folded against a namespace tag
// derived from the owning network.
type Bid [16]byte

// NilBid is the zero value, used as a sentinel for "no id yet".
var NilBid Bid

// NewBid generates a fresh time-ordered Bid and folds in the namespace tag
// of the given network. Pass NilBid for a root/system network with no
// parent (its own fixed Bid already carries a reserved tag).
func NewBid(networkBid Bid) (Bid, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return NilBid, err
	}
	var b Bid
	copy(b[:], u[:])
	return foldNamespace(b, NamespaceTag(networkBid)), nil
}

// NamespaceTag derives the deterministic 6-byte namespace tag for a
// network from its own Bid. Two distinct networks always produce distinct
// tags; the same network always reproduces the same tag, so re-deriving
// BIDs for a previously-seen network during an incremental pass is
// idempotent.
func NamespaceTag(networkBid Bid) [6]byte {
	sum := sha256.Sum256(networkBid[:])
	var tag [6]byte
	copy(tag[:], sum[:6])
	return tag
}

// foldNamespace XORs the trailing six bytes (the Bref region) of a Bid
// against a namespace tag.
//
// The literal spec text says BID generation "overwrites" those bytes;
// doing so verbatim would make every node in a network share one Bref
// value, defeating Bref's own purpose as a compact per-node reference
// (see I5, P9, and scenario S4, all of which require distinct Brefs
// within one network). XOR is used instead of overwrite: it is a
// bijection, so the six bytes folded against one network's tag remain as
// mutually distinct as the unfolded randomness was, while two devices
// independently generating the same random suffix under two *different*
// networks still end up with different Brefs, preserving the
// cross-device, cross-network collision avoidance the spec calls for.
// See DESIGN.md for the write-up of this deviation.
func foldNamespace(b Bid, tag [6]byte) Bid {
	for i := 0; i < 6; i++ {
		b[10+i] ^= tag[i]
	}
	return b
}

// IsNil reports whether this is the zero Bid.
func (b Bid) IsNil() bool { return b == NilBid }

// String renders the canonical hyphenated UUID form.
func (b Bid) String() string {
	return uuid.UUID(b).String()
}

// ParseBid parses a canonical hyphenated UUID string into a Bid.
func ParseBid(s string) (Bid, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilBid, err
	}
	return Bid(u), nil
}

// Bref returns the compact 12-hex-digit reference derived from this Bid's
// trailing 48 bits.
func (b Bid) Bref() Bref {
	var r Bref
	copy(r[:], b[10:16])
	return r
}

// MarshalText implements encoding.TextMarshaler so Bid can be embedded
// directly in YAML/JSON/TOML frontmatter.
func (b Bid) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bid) UnmarshalText(text []byte) error {
	parsed, err := ParseBid(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Bref is the 12-hex-character compact in-text anchor (the low 48 bits of
// a Bid).
type Bref [6]byte

// NilBref is the zero value.
var NilBref Bref

// String renders the 12-hex-digit form.
func (r Bref) String() string {
	return hex.EncodeToString(r[:])
}

// IsNil reports whether this is the zero Bref.
func (r Bref) IsNil() bool { return r == NilBref }

// ParseBref parses a 12-hex-digit string into a Bref.
func ParseBref(s string) (Bref, error) {
	if len(s) != 12 {
		return NilBref, errors.New("valueobjects: bref must be 12 hex digits")
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return NilBref, err
	}
	var r Bref
	copy(r[:], decoded)
	return r, nil
}
