// Package packstore provides the ObjectStore collaborator the pack
// engine resolves REF_DELTA bases against and persists built packs
// to.
package packstore

import (
	"errors"

	"github.com/nivl-labs/packengine/objkind"
)

// ErrObjectNotFound is returned by Retrieve when no object with the
// given id is known to the store.
var ErrObjectNotFound = errors.New("packstore: object not found")

//go:generate mockgen -package mockpackstore -destination mockpackstore/object_store.go github.com/nivl-labs/packengine/packstore ObjectStore

// ObjectStore is the lookup/persist collaborator described in spec §6.
// It answers whether an object already lives in some pack (so the
// builder can dedup against it), retrieves an object's materialized
// kind and bytes by id, and persists a freshly built pack.
type ObjectStore interface {
	// FindPacked reports whether oid is already present in a pack this
	// store knows about, without paying the cost of decompressing it.
	FindPacked(oid [20]byte) bool

	// Retrieve returns the materialized kind and bytes for oid. hint is
	// the kind the caller expects (or 0 if unknown); implementations may
	// use it to skip a type check but must still return the object's
	// actual kind.
	Retrieve(oid [20]byte, hint objkind.Kind) (objkind.Kind, []byte, error)

	// PersistPack writes a complete, checksummed pack produced by
	// pack.Builder to durable storage.
	PersistPack(data []byte) error
}
