package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/internal/packwire"
	"github.com/nivl-labs/packengine/internal/readutil"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/nivl-labs/packengine/packstore"
	"golang.org/x/xerrors"
)

// Builder assembles a new version-2 pack from a set of root commits
// (spec §4.5). It never emits delta entries: every object goes in as
// a full materialized kind, trading pack size for simplicity.
//
// A Builder is single-shot: construct it, call Build once, discard it.
type Builder struct {
	store  packstore.ObjectStore
	codec  codec.Codec
	hasher codec.Hasher
}

// NewBuilder returns a Builder that reads source objects from store
// and compresses/hashes with codec/hasher.
func NewBuilder(store packstore.ObjectStore, c codec.Codec, hasher codec.Hasher) *Builder {
	return &Builder{store: store, codec: c, hasher: hasher}
}

type emission struct {
	kind    objkind.Kind
	payload []byte
}

// Build walks every tree and blob reachable from roots (in caller
// order) and returns a checksummed pack. Each root commit is always
// emitted; trees and blobs already present in a pack the store knows
// about are left out.
func (b *Builder) Build(roots [][20]byte) ([]byte, error) {
	visited := make(map[[20]byte]bool)
	var emissions []emission

	for _, root := range roots {
		if visited[root] {
			continue
		}
		visited[root] = true

		kind, payload, err := b.store.Retrieve(root, objkind.Commit)
		if err != nil {
			return nil, xerrors.Errorf("retrieving root commit %x: %w", root, err)
		}
		if kind != objkind.Commit {
			return nil, xerrors.Errorf("root %x is a %s, not a commit", root, kind)
		}
		emissions = append(emissions, emission{kind: objkind.Commit, payload: payload})

		treeID, err := extractTreeID(payload)
		if err != nil {
			return nil, xerrors.Errorf("commit %x: %w", root, err)
		}
		emissions, err = b.walkTree(treeID, visited, emissions)
		if err != nil {
			return nil, xerrors.Errorf("walking tree of commit %x: %w", root, err)
		}
	}

	return b.frame(emissions)
}

// walkTree implements spec §4.5 step 3: skip already-visited or
// already-packed trees, recurse into subtrees, emit blobs before the
// tree itself (post-order) so a reader never needs a forward
// reference, even though the pack format doesn't require it.
func (b *Builder) walkTree(treeID [20]byte, visited map[[20]byte]bool, emissions []emission) ([]emission, error) {
	if visited[treeID] {
		return emissions, nil
	}
	visited[treeID] = true

	if b.store.FindPacked(treeID) {
		return emissions, nil
	}

	kind, payload, err := b.store.Retrieve(treeID, objkind.Tree)
	if err != nil {
		return nil, xerrors.Errorf("retrieving tree %x: %w", treeID, err)
	}
	if kind != objkind.Tree {
		return nil, xerrors.Errorf("object %x is a %s, not a tree", treeID, kind)
	}

	entries, err := parseTreeEntries(payload)
	if err != nil {
		return nil, xerrors.Errorf("tree %x: %w", treeID, err)
	}

	for _, e := range entries {
		switch e.mode {
		case modeDirectory:
			emissions, err = b.walkTree(e.id, visited, emissions)
			if err != nil {
				return nil, err
			}
		case modeGitLink:
			// Submodule commit: not part of this repository's object
			// graph, never fetched.
			continue
		default:
			if visited[e.id] {
				continue
			}
			visited[e.id] = true
			if b.store.FindPacked(e.id) {
				continue
			}
			bKind, bPayload, err := b.store.Retrieve(e.id, objkind.Blob)
			if err != nil {
				return nil, xerrors.Errorf("retrieving blob %x: %w", e.id, err)
			}
			if bKind != objkind.Blob {
				return nil, xerrors.Errorf("object %x is a %s, not a blob", e.id, bKind)
			}
			emissions = append(emissions, emission{kind: objkind.Blob, payload: bPayload})
		}
	}

	return append(emissions, emission{kind: objkind.Tree, payload: payload}), nil
}

// frame implements spec §4.5 steps 4-5: per-object typed-size header
// plus deflated payload, then the 12-byte pack header and trailing
// SHA-1 checksum.
func (b *Builder) frame(emissions []emission) ([]byte, error) {
	var body []byte
	for _, em := range emissions {
		body = append(body, packwire.AppendObjectHeader(em.kind, uint64(len(em.payload)))...)
		deflated, err := b.codec.Deflate(em.payload)
		if err != nil {
			return nil, xerrors.Errorf("deflating a %s object: %w", em.kind, err)
		}
		body = append(body, deflated...)
	}

	out := make([]byte, 0, headerSize+len(body)+checksumSize)
	out = append(out, packMagic[:]...)
	var versionBuf, countBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], 2)
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(emissions)))
	out = append(out, versionBuf[:]...)
	out = append(out, countBuf[:]...)
	out = append(out, body...)

	sum := b.hasher.Sum(out)
	out = append(out, sum[:]...)
	return out, nil
}

// treeObjectMode mirrors the small subset of git tree entry modes the
// builder cares about, grounded on ginternals/object/tree.go's
// TreeObjectMode.
type treeObjectMode int32

const (
	modeFile       treeObjectMode = 0o100644
	modeExecutable treeObjectMode = 0o100755
	modeDirectory  treeObjectMode = 0o040000
	modeSymLink    treeObjectMode = 0o120000
	modeGitLink    treeObjectMode = 0o160000
)

type treeEntry struct {
	mode treeObjectMode
	id   [20]byte
}

// parseTreeEntries parses a tree object's inflated payload: repeated
// "{octal_mode} {path}\0{20-byte sha}" records, back to back. Path
// names aren't needed by the builder, so they're skipped rather than
// collected.
func parseTreeEntries(data []byte) ([]treeEntry, error) {
	var entries []treeEntry
	offset := 0
	for offset < len(data) {
		modeBytes := readutil.ReadTo(data[offset:], ' ')
		if modeBytes == nil {
			return nil, xerrors.New("malformed tree entry: missing mode")
		}
		offset += len(modeBytes) + 1

		mode, err := parseOctalMode(modeBytes)
		if err != nil {
			return nil, err
		}

		nameBytes := readutil.ReadTo(data[offset:], 0)
		if nameBytes == nil {
			return nil, xerrors.New("malformed tree entry: missing name")
		}
		offset += len(nameBytes) + 1

		if offset+20 > len(data) {
			return nil, xerrors.New("malformed tree entry: truncated id")
		}
		var id [20]byte
		copy(id[:], data[offset:offset+20])
		offset += 20

		entries = append(entries, treeEntry{mode: treeObjectMode(mode), id: id})
	}
	return entries, nil
}

func parseOctalMode(b []byte) (int32, error) {
	var v int32
	for _, c := range b {
		if c < '0' || c > '7' {
			return 0, xerrors.New("malformed tree entry: invalid octal mode")
		}
		v = v*8 + int32(c-'0')
	}
	return v, nil
}

// extractTreeID reads the "tree <40 hex chars>" line a commit object
// always starts with, grounded on ginternals/object/commit.go's
// NewCommitFromObject.
func extractTreeID(commitPayload []byte) ([20]byte, error) {
	var id [20]byte
	line := readutil.ReadTo(commitPayload, '\n')
	if line == nil {
		return id, xerrors.New("malformed commit: no first line")
	}
	parts := bytes.SplitN(line, []byte{' '}, 2)
	if len(parts) != 2 || string(parts[0]) != "tree" {
		return id, xerrors.New("malformed commit: first line is not a tree header")
	}
	if len(parts[1]) != 40 {
		return id, xerrors.New("malformed commit: tree id is not 40 hex chars")
	}
	decoded, err := hex.DecodeString(string(parts[1]))
	if err != nil {
		return id, xerrors.Errorf("malformed commit: tree id is not hex: %w", err)
	}
	copy(id[:], decoded)
	return id, nil
}
