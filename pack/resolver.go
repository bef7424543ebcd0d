package pack

import (
	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/internal/cache"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/nivl-labs/packengine/packstore"
	"golang.org/x/xerrors"
)

// Resolver rewrites a parsed pack's delta entries in place into
// materialized objects (spec §4.3).
type Resolver struct {
	entries []*Entry
	store   packstore.ObjectStore
	hasher  codec.Hasher

	// cache memoizes (kind, payload) for bases fetched from store, so a
	// REF_DELTA base referenced by many entries is only retrieved once.
	// Bounded via engineconfig.ResolverCacheSize.
	cache *cache.LRU

	byOffset map[uint64]*Entry
	bySHA1   map[[20]byte]*Entry

	// resolving tracks offsets currently on the active resolveEntry
	// call stack, so a REF_DELTA chain that loops back on an entry
	// still being resolved is caught as ErrCyclicDelta instead of
	// recursing forever.
	resolving map[uint64]bool
}

type storeBase struct {
	kind    objkind.Kind
	payload []byte
}

// NewResolver returns a Resolver over entries, using store for
// REF_DELTA bases not found in the same pack and cache to memoize
// store lookups across entries.
func NewResolver(entries []*Entry, store packstore.ObjectStore, hasher codec.Hasher, cache *cache.LRU) *Resolver {
	byOffset := make(map[uint64]*Entry, len(entries))
	bySHA1 := make(map[[20]byte]*Entry, len(entries))
	for _, e := range entries {
		byOffset[e.Offset] = e
		if e.Kind.IsMaterialized() {
			e.resolved = true
			bySHA1[e.SHA1] = e
		}
	}
	return &Resolver{
		entries:   entries,
		store:     store,
		hasher:    hasher,
		cache:     cache,
		byOffset:  byOffset,
		bySHA1:    bySHA1,
		resolving: make(map[uint64]bool),
	}
}

// Resolve walks every entry, rewriting OFS_DELTA/REF_DELTA entries to
// their materialized kind, payload, and SHA-1.
func (r *Resolver) Resolve() error {
	for _, e := range r.entries {
		if e.resolved {
			continue
		}
		if err := r.resolveEntry(e); err != nil {
			return err
		}
	}
	return nil
}

// resolveEntry materializes e. OFS_DELTA bases are found directly by
// offset (spec's offset-monotonicity invariant — e.base_offset <
// e.offset — means this can never cycle). REF_DELTA bases are looked
// up by SHA-1 among already-materialized entries first; if none
// match, every other still-unresolved entry in the pack is tried as a
// candidate (a REF_DELTA may legitimately target another delta
// elsewhere in the same pack), and only once no pack-local candidate
// pans out does it fall back to the object store. r.resolving guards
// this candidate search against a REF_DELTA cycle: if resolving a
// candidate requires resolving e again, e.Offset is still marked
// resolving and ErrCyclicDelta is returned immediately instead of
// recursing forever.
func (r *Resolver) resolveEntry(e *Entry) error {
	if e.resolved {
		return nil
	}
	if r.resolving[e.Offset] {
		return xerrors.Errorf("resolving offset %d: %w", e.Offset, ErrCyclicDelta)
	}
	r.resolving[e.Offset] = true
	defer delete(r.resolving, e.Offset)

	switch e.Kind {
	case objkind.OfsDelta:
		base, ok := r.byOffset[e.BaseOffset]
		if !ok {
			return xerrors.Errorf("resolving offset %d: %w", e.Offset, ErrDanglingOffsetDelta)
		}
		if err := r.resolveEntry(base); err != nil {
			return err
		}
		return r.materialize(e, base.Kind, base.Payload)

	case objkind.RefDelta:
		if base, ok := r.bySHA1[e.BaseSHA1]; ok {
			return r.materialize(e, base.Kind, base.Payload)
		}

		for _, cand := range r.entries {
			if cand == e || cand.resolved {
				continue
			}
			if err := r.resolveEntry(cand); err != nil {
				if xerrors.Is(err, ErrCyclicDelta) {
					return err
				}
				continue
			}
			if cand.SHA1 == e.BaseSHA1 {
				return r.materialize(e, cand.Kind, cand.Payload)
			}
		}

		b, err := r.fetchFromStore(e.BaseSHA1)
		if err != nil {
			return xerrors.Errorf("resolving offset %d: %w", e.Offset, err)
		}
		return r.materialize(e, b.kind, b.payload)

	default:
		e.resolved = true
		return nil
	}
}

// materialize applies e's delta payload against (baseKind, basePayload)
// and rewrites e in place to the resulting materialized object.
func (r *Resolver) materialize(e *Entry, baseKind objkind.Kind, basePayload []byte) error {
	payload, err := ApplyDelta(basePayload, e.Payload)
	if err != nil {
		return xerrors.Errorf("applying delta at offset %d: %w", e.Offset, err)
	}
	e.Kind = baseKind
	e.Payload = payload
	e.SHA1 = r.hasher.Sum(append(objkind.Frame(baseKind, len(payload)), payload...))
	e.resolved = true
	r.bySHA1[e.SHA1] = e
	return nil
}

// fetchFromStore retrieves a REF_DELTA base by SHA-1 from the object
// store, consulting/populating the memoization cache first.
func (r *Resolver) fetchFromStore(sha1 [20]byte) (storeBase, error) {
	if r.cache != nil {
		if v, ok := r.cache.Get(sha1); ok {
			if b, valid := v.(storeBase); valid {
				return b, nil
			}
		}
	}

	kind, payload, err := r.store.Retrieve(sha1, 0)
	if err != nil {
		return storeBase{}, &MissingBaseError{SHA1: sha1}
	}
	b := storeBase{kind: kind, payload: payload}
	if r.cache != nil {
		r.cache.Add(sha1, b)
	}
	return b, nil
}
