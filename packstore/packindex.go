package packstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/nivl-labs/packengine/internal/readutil"
)

const (
	idxLayer1Size   = 1024
	idxLayer3Entry  = 4
	idxLayer4Entry  = 4
	idxOidSize      = 20
	idxFooterSize   = 40
)

func idxHeader() []byte {
	return []byte{255, 't', 'O', 'c', 0, 0, 0, 2}
}

// packIndex is a parsed .idx (version 2) file: a map from object id to
// its byte offset inside the companion .pack file. Reading .idx files
// stays in scope (see SPEC_FULL.md §3/§5.7) even though the engine
// never writes one of its own: FindPacked/Retrieve need to answer for
// objects already sitting in a prior pack.
type packIndex struct {
	mu sync.Mutex

	r          readutil.BufferedReader
	hashOffset map[[20]byte]uint64

	parseError error
	parsed     bool
}

// newPackIndex validates the header of r and returns a lazily-parsed
// index. Parsing the rest happens on first lookup.
func newPackIndex(r readutil.BufferedReader) (*packIndex, error) {
	header := make([]byte, len(idxHeader()))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("could not read index header: %w", err)
	}
	if !bytes.Equal(header, idxHeader()) {
		return nil, fmt.Errorf("invalid index header: %w", ErrInvalidIndexMagic)
	}
	return &packIndex{r: r}, nil
}

// ErrInvalidIndexMagic is returned when a .idx file doesn't start with
// the expected version-2 magic bytes.
var ErrInvalidIndexMagic = fmt.Errorf("packstore: invalid or unsupported index magic")

// offsetOf returns the byte offset of oid within the companion
// packfile, or ok=false if the index doesn't contain it.
func (idx *packIndex) offsetOf(oid [20]byte) (offset uint64, ok bool, err error) {
	if err := idx.parse(); err != nil {
		return 0, false, err
	}
	offset, ok = idx.hashOffset[oid]
	return offset, ok, nil
}

// parse reads layers 2-5 of the index into an in-memory oid->offset
// map. Adapted from the teacher's PackIndex.parse, specialized to a
// fixed 20-byte SHA-1 oid instead of a pluggable githash.Hash.
func (idx *packIndex) parse() (err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.parsed {
		return nil
	}
	if idx.parseError != nil {
		return idx.parseError
	}
	defer func() {
		if err != nil {
			idx.parseError = err
		}
	}()

	buf4 := make([]byte, 4)
	buf8 := make([]byte, 8)
	bufOid := make([]byte, idxOidSize)

	if _, err = idx.r.Discard(255 * 4); err != nil {
		return fmt.Errorf("could not skip to last layer1 entry: %w", err)
	}
	if _, err = io.ReadFull(idx.r, buf4); err != nil {
		return fmt.Errorf("could not read object count: %w", err)
	}
	objectCount := int(binary.BigEndian.Uint32(buf4))

	oids := make([][20]byte, 0, objectCount)
	for i := 0; i < objectCount; i++ {
		if _, err = io.ReadFull(idx.r, bufOid); err != nil {
			return fmt.Errorf("could not read oid %d in layer2: %w", i, err)
		}
		var oid [20]byte
		copy(oid[:], bufOid)
		oids = append(oids, oid)
	}

	// Layer3 (CRC32 per object) isn't needed to answer offset lookups.
	if _, err = idx.r.Discard(objectCount * idxLayer3Entry); err != nil {
		return fmt.Errorf("could not skip layer3: %w", err)
	}

	idx.hashOffset = make(map[[20]byte]uint64, objectCount)

	type deferredLayer5 struct {
		oid            [20]byte
		relativeOffset uint64
	}
	var layer5 []deferredLayer5

	for _, oid := range oids {
		if _, err = io.ReadFull(idx.r, buf4); err != nil {
			return fmt.Errorf("could not read layer4 offset for %x: %w", oid, err)
		}
		entry := binary.BigEndian.Uint32(buf4)
		msb := entry>>31 == 1
		offset := uint64(entry & 0x7fffffff)
		if msb {
			layer5 = append(layer5, deferredLayer5{oid: oid, relativeOffset: offset})
			continue
		}
		idx.hashOffset[oid] = offset
	}

	sort.Slice(layer5, func(i, j int) bool { return layer5[i].relativeOffset < layer5[j].relativeOffset })
	expected := uint64(0)
	for _, d := range layer5 {
		if d.relativeOffset != expected {
			return fmt.Errorf("layer5 offsets out of order for %x", d.oid)
		}
		if _, err = io.ReadFull(idx.r, buf8); err != nil {
			return fmt.Errorf("could not read layer5 offset for %x: %w", d.oid, err)
		}
		idx.hashOffset[d.oid] = binary.BigEndian.Uint64(buf8)
		expected += idxLayer4Entry // layer5 entries are addressed 4 bytes apart in layer4's relative-offset space
	}

	idx.parsed = true
	return nil
}
