package pack

import "github.com/nivl-labs/packengine/objkind"

// Entry is the parser's unit of work: one object's worth of metadata
// and bytes inside a packfile (spec §3).
//
//nolint:govet // field order favors readability over alignment, matching ginternals.PackIndex
type Entry struct {
	// Offset is the byte position of this entry's first header byte
	// within the pack buffer. It's what an OFS_DELTA in a later entry
	// subtracts its distance from.
	Offset uint64

	// Kind is the entry's kind. It starts out as whatever the header
	// declared (including OfsDelta/RefDelta) and is rewritten to the
	// base's materialized kind once resolution completes.
	Kind objkind.Kind

	// Size is the inflated payload length declared in the entry's
	// variable-length header.
	Size uint64

	// Payload holds the inflated bytes. For a still-deltified entry
	// this is the delta instruction stream, not the final object; once
	// resolved it holds the materialized bytes. Release sets it to nil.
	Payload []byte

	// CRC32 is computed over the entry's on-wire bytes (header plus
	// compressed payload), regardless of whether the caller asked for
	// it — it's needed to build an index later.
	CRC32 uint32

	// SHA1 is the object's content hash. It's the zero value until the
	// entry is materialized.
	SHA1 [20]byte

	// BaseOffset is set only for OFS_DELTA entries: the absolute byte
	// position of the base entry in the same pack.
	BaseOffset uint64

	// BaseSHA1 is set only for REF_DELTA entries: the identifier of a
	// base object that may live in this pack or in the object store.
	BaseSHA1 [20]byte

	resolved bool
}

// Resolved reports whether this entry has been rewritten to its
// materialized kind and bytes.
func (e *Entry) Resolved() bool {
	return e.resolved
}

// Release nils out Payload once SHA1 has been set, for callers under
// memory pressure who don't need the bytes kept around after they've
// been consumed (spec §3's lifecycle note). It's a no-op if the entry
// hasn't been materialized yet.
func (e *Entry) Release() {
	if e.SHA1 != ([20]byte{}) {
		e.Payload = nil
	}
}
