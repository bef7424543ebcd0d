// Package objkind defines the closed set of object kinds a packfile
// entry can carry, before and after delta resolution.
package objkind

import (
	"fmt"
	"strconv"
)

// Kind is the tagged type of a pack entry, as stored in the 3-bit type
// field of the object header (spec §3/§6).
type Kind int8

// The closed set of object kinds. 5 is reserved by the pack format and
// must never be produced or accepted.
const (
	Commit Kind = 1
	Tree   Kind = 2
	Blob   Kind = 3
	Tag    Kind = 4
	// OfsDelta and RefDelta are deltified kinds: they cannot escape the
	// engine. Every entry the caller sees back from Resolve has had its
	// Kind rewritten to the base's materialized kind.
	OfsDelta Kind = 6
	RefDelta Kind = 7
)

// String returns the lowercase name used when framing an object for
// hashing ("<type> <size>\0").
func (k Kind) String() string {
	switch k {
	case Commit:
		return "commit"
	case Tree:
		return "tree"
	case Blob:
		return "blob"
	case Tag:
		return "tag"
	case OfsDelta:
		return "ofs-delta"
	case RefDelta:
		return "ref-delta"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

// IsValid reports whether k is one of the 6 kinds the format allows.
func IsValid(k Kind) bool {
	switch k {
	case Commit, Tree, Blob, Tag, OfsDelta, RefDelta:
		return true
	default:
		return false
	}
}

// IsMaterialized reports whether k is one of the 4 kinds that can be
// hashed and stored directly, without further delta resolution.
func (k Kind) IsMaterialized() bool {
	switch k {
	case Commit, Tree, Blob, Tag:
		return true
	default:
		return false
	}
}

// IsDelta reports whether k is one of the 2 deltified kinds.
func (k Kind) IsDelta() bool {
	return k == OfsDelta || k == RefDelta
}

// FromString parses the lowercase name used in loose-object headers
// and commit/tag "type" lines back into a Kind.
func FromString(s string) (Kind, error) {
	switch s {
	case "commit":
		return Commit, nil
	case "tree":
		return Tree, nil
	case "blob":
		return Blob, nil
	case "tag":
		return Tag, nil
	default:
		return 0, fmt.Errorf("unknown object kind %q", s)
	}
}

// Frame returns the "<type> <size>\0" prefix that precedes an object's
// bytes before hashing, as defined in spec §3's SHA-1 invariant.
func Frame(k Kind, size int) []byte {
	return []byte(k.String() + " " + strconv.Itoa(size) + "\x00")
}
