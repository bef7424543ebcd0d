package packstore

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/internal/errutil"
	"github.com/nivl-labs/packengine/internal/packwire"
	"github.com/nivl-labs/packengine/internal/readutil"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/spf13/afero"
)

// FileStore is an ObjectStore rooted at a directory laid out the way
// the teacher's backend expects: loose objects under
// objects/xx/yyyy..., packs under objects/pack/*.pack with a
// companion *.idx, adapted from backend/objects.go and
// backend/fsbackend/objects.go.
type FileStore struct {
	fs    afero.Fs
	root  string
	codec codec.Codec

	packs []*openPack
}

type openPack struct {
	path string
	idx  *packIndex
}

// NewFileStore returns a FileStore rooted at root on fs, using c to
// inflate loose objects and packed entries it reads back. It eagerly
// opens (but lazily parses) every *.idx file under objects/pack so
// FindPacked/Retrieve can answer for objects already sitting in a
// prior pack.
func NewFileStore(fs afero.Fs, root string, c codec.Codec) (*FileStore, error) {
	s := &FileStore{fs: fs, root: root, codec: c}
	packDir := filepath.Join(root, "objects", "pack")

	entries, err := afero.ReadDir(fs, packDir)
	if err != nil {
		if osIsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("could not list %s: %w", packDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".idx" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		idxPath := filepath.Join(packDir, name)
		packPath := idxPath[:len(idxPath)-len(".idx")] + ".pack"

		f, err := fs.Open(idxPath)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", idxPath, err)
		}
		idx, err := newPackIndex(bufio.NewReader(f))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("could not read index %s: %w", idxPath, err)
		}
		s.packs = append(s.packs, &openPack{path: packPath, idx: idx})
	}

	return s, nil
}

// osIsNotExist exists so this file doesn't need to import "os" just
// to call os.IsNotExist on an afero error.
func osIsNotExist(err error) bool {
	type notExister interface{ IsNotExist() bool }
	if ne, ok := err.(notExister); ok {
		return ne.IsNotExist()
	}
	return afero.IsNotExist(err)
}

func (s *FileStore) loosePath(oid [20]byte) string {
	sha := hex.EncodeToString(oid[:])
	return filepath.Join(s.root, "objects", sha[:2], sha[2:])
}

// FindPacked implements ObjectStore.
func (s *FileStore) FindPacked(oid [20]byte) bool {
	for _, p := range s.packs {
		if _, ok, err := p.idx.offsetOf(oid); err == nil && ok {
			return true
		}
	}
	return false
}

// Retrieve implements ObjectStore, checking loose objects first and
// then each open pack's index in load order.
func (s *FileStore) Retrieve(oid [20]byte, _ objkind.Kind) (objkind.Kind, []byte, error) {
	kind, payload, err := s.looseObject(oid)
	if err == nil {
		return kind, payload, nil
	}
	if !afero.IsNotExist(err) {
		return 0, nil, fmt.Errorf("loose object %x: %w", oid, err)
	}

	for _, p := range s.packs {
		offset, ok, ierr := p.idx.offsetOf(oid)
		if ierr != nil {
			return 0, nil, fmt.Errorf("reading index for %s: %w", p.path, ierr)
		}
		if !ok {
			continue
		}
		data, rerr := afero.ReadFile(s.fs, p.path)
		if rerr != nil {
			return 0, nil, fmt.Errorf("could not read pack %s: %w", p.path, rerr)
		}
		return s.objectAtOffset(data, p.path, offset, make(map[uint64]bool))
	}

	return 0, nil, ErrObjectNotFound
}

// looseObject reads and inflates a single-object file, expecting the
// "<kind> <size>\0<payload>" framing used by loose objects.
func (s *FileStore) looseObject(oid [20]byte) (kind objkind.Kind, payload []byte, err error) {
	p := s.loosePath(oid)
	f, err := s.fs.Open(p)
	if err != nil {
		return 0, nil, err
	}
	defer errutil.Close(f, &err)

	zr, err := zlib.NewReader(f)
	if err != nil {
		return 0, nil, fmt.Errorf("could not decompress loose object %s: %w", p, err)
	}
	defer errutil.Close(zr, &err)

	buf, err := io.ReadAll(zr)
	if err != nil {
		return 0, nil, fmt.Errorf("could not read loose object %s: %w", p, err)
	}

	kindBytes := readutil.ReadTo(buf, ' ')
	if kindBytes == nil {
		return 0, nil, fmt.Errorf("malformed loose object %s: missing kind", p)
	}
	pos := len(kindBytes) + 1

	k, err := objkind.FromString(string(kindBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("loose object %s: %w", p, err)
	}

	sizeBytes := readutil.ReadTo(buf[pos:], 0)
	if sizeBytes == nil {
		return 0, nil, fmt.Errorf("malformed loose object %s: missing size", p)
	}
	size, err := strconv.Atoi(string(sizeBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("malformed loose object %s: invalid size: %w", p, err)
	}
	pos += len(sizeBytes) + 1

	content := buf[pos:]
	if len(content) != size {
		return 0, nil, fmt.Errorf("loose object %s declares size %d, has %d", p, size, len(content))
	}
	return k, content, nil
}

// objectAtOffset reads the entry at offset within data (the full bytes
// of packPath) and, if it's a delta, walks its base chain until it
// hits a materialized object, applying each delta on the way back out.
// OFS_DELTA bases are resolved locally by offset; REF_DELTA bases fall
// back to Retrieve, which may hop into a loose object, another pack,
// or come back here. visited guards against an offset chain looping
// on itself.
func (s *FileStore) objectAtOffset(data []byte, packPath string, offset uint64, visited map[uint64]bool) (objkind.Kind, []byte, error) {
	if visited[offset] {
		return 0, nil, fmt.Errorf("%s: cyclic delta chain at offset %d", packPath, offset)
	}
	visited[offset] = true

	if offset >= uint64(len(data)) {
		return 0, nil, fmt.Errorf("index points past end of %s at offset %d", packPath, offset)
	}

	headerR := bytes.NewReader(data[offset:])
	kind, size, err := packwire.ReadObjectHeader(headerR)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: malformed entry at offset %d: %w", packPath, offset, err)
	}
	cursor := offset + uint64(len(data[offset:])-headerR.Len())

	switch kind {
	case objkind.RefDelta:
		if cursor+20 > uint64(len(data)) {
			return 0, nil, fmt.Errorf("%s: truncated REF_DELTA base id at offset %d", packPath, offset)
		}
		var baseSHA1 [20]byte
		copy(baseSHA1[:], data[cursor:cursor+20])
		cursor += 20

		baseKind, basePayload, err := s.Retrieve(baseSHA1, 0)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: REF_DELTA base %x: %w", packPath, baseSHA1, err)
		}
		deltaPayload, _, err := s.codec.Inflate(bytes.NewReader(data[cursor:]), int(size))
		if err != nil {
			return 0, nil, fmt.Errorf("%s: inflating REF_DELTA at offset %d: %w", packPath, offset, err)
		}
		result, err := packwire.ApplyDelta(basePayload, deltaPayload)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: applying REF_DELTA at offset %d: %w", packPath, offset, err)
		}
		return baseKind, result, nil

	case objkind.OfsDelta:
		offR := bytes.NewReader(data[cursor:])
		distance, err := packwire.ReadOffsetDelta(offR)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: malformed OFS_DELTA offset at %d: %w", packPath, offset, err)
		}
		cursor += uint64(len(data[cursor:]) - offR.Len())

		if distance == 0 || distance > offset {
			return 0, nil, fmt.Errorf("%s: OFS_DELTA at %d has out-of-range base distance %d", packPath, offset, distance)
		}
		baseKind, basePayload, err := s.objectAtOffset(data, packPath, offset-distance, visited)
		if err != nil {
			return 0, nil, err
		}
		deltaPayload, _, err := s.codec.Inflate(bytes.NewReader(data[cursor:]), int(size))
		if err != nil {
			return 0, nil, fmt.Errorf("%s: inflating OFS_DELTA at offset %d: %w", packPath, offset, err)
		}
		result, err := packwire.ApplyDelta(basePayload, deltaPayload)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: applying OFS_DELTA at offset %d: %w", packPath, offset, err)
		}
		return baseKind, result, nil

	default:
		payload, _, err := s.codec.Inflate(bytes.NewReader(data[cursor:]), int(size))
		if err != nil {
			return 0, nil, fmt.Errorf("%s: inflating entry at offset %d: %w", packPath, offset, err)
		}
		return kind, payload, nil
	}
}

// WriteLooseObject deflates payload framed as "<kind> <size>\0" and
// writes it to this store's loose object path for oid, creating the
// fan-out directory if needed. It's not part of ObjectStore: the
// engine only ever reads objects back through Retrieve/FindPacked,
// and only the unpack CLI command writes loose objects directly.
func (s *FileStore) WriteLooseObject(oid [20]byte, kind objkind.Kind, payload []byte) error {
	framed := append(objkind.Frame(kind, len(payload)), payload...)
	deflated, err := s.codec.Deflate(framed)
	if err != nil {
		return fmt.Errorf("deflating object %x: %w", oid, err)
	}

	p := s.loosePath(oid)
	dir := filepath.Dir(p)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}
	if err := afero.WriteFile(s.fs, p, deflated, 0o444); err != nil {
		return fmt.Errorf("could not write %s: %w", p, err)
	}
	return nil
}

// PersistPack writes data under objects/pack/pack-<timestamp>.pack.
// Writing a matching .idx for it is out of scope (spec non-goal), and
// no in-memory record of it is kept, so FindPacked and Retrieve do not
// see the objects it holds; it can be read back by re-parsing the file
// with pack.Parser.
func (s *FileStore) PersistPack(data []byte) error {
	dir := filepath.Join(s.root, "objects", "pack")
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}
	name := "pack-" + strconv.FormatInt(time.Now().UnixNano(), 16) + ".pack"
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
