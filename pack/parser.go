// Package pack implements the version-2 Git packfile engine: parsing
// a pack stream into entries, resolving offset/reference deltas
// against their bases, interpreting the delta opcode stream, and
// building new packs from a reachable object set.
package pack

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/internal/packwire"
	"github.com/nivl-labs/packengine/objkind"
	"golang.org/x/xerrors"
)

var packMagic = [4]byte{'P', 'A', 'C', 'K'}

const (
	headerSize   = 12
	checksumSize = 20
)

// ParseResult is the parser's output: the pack's entries in on-wire
// order, plus the trailing checksum that was verified against the
// body.
type ParseResult struct {
	Entries  []*Entry
	Checksum [20]byte
}

// Parser turns a raw pack buffer into a ParseResult (spec §4.2).
type Parser struct {
	codec  codec.Codec
	hasher codec.Hasher
}

// NewParser returns a Parser using the given compression and hashing
// collaborators.
func NewParser(c codec.Codec, h codec.Hasher) *Parser {
	return &Parser{codec: c, hasher: h}
}

// countingReader tracks how many bytes have been pulled off the raw
// pack buffer, so position() can compute an exact absolute offset
// even though entries are inflated through a shared *bufio.Reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Parse implements the linear state machine of spec §4.6 as a
// sequence of guard clauses: any failure returns immediately with a
// nil result, so there is no path on which a caller can observe
// partial entries from a failed parse.
//
// Every entry is inflated off one shared *bufio.Reader wrapping the
// whole buffer (rather than a fresh reader sliced to a size hint).
// codec.ZlibCodec reads that reader through ReadByte, so it stops at
// the end of each entry's zlib stream and the next entry's bytes stay
// in the reader. position() derives each absolute offset from the
// bytes pulled off the buffer minus those still buffered; the consumed
// count Inflate returns is not used.
func (p *Parser) Parse(data []byte) (*ParseResult, error) {
	if len(data) < headerSize+checksumSize {
		return nil, xerrors.Errorf("pack header: %w", ErrTruncated)
	}
	var magic [4]byte
	copy(magic[:], data[0:4])
	if magic != packMagic {
		return nil, ErrMalformedHeader
	}

	version := binary.BigEndian.Uint32(data[4:8])
	if version != 2 {
		return nil, &UnsupportedVersionError{Got: version}
	}

	count := binary.BigEndian.Uint32(data[8:12])

	cr := &countingReader{r: bytes.NewReader(data[headerSize:])}
	br := bufio.NewReader(cr)
	position := func() int { return headerSize + int(cr.n) - br.Buffered() }

	entries := make([]*Entry, 0, count)
	byOffset := make(map[uint64]*Entry, count)

	for i := uint32(0); i < count; i++ {
		entryStart := position()
		entry, err := p.readEntry(br, data, entryStart, byOffset)
		if err != nil {
			return nil, xerrors.Errorf("entry %d at offset %d: %w", i, entryStart, err)
		}
		entryEnd := position()
		if entryEnd > len(data) {
			return nil, xerrors.Errorf("entry %d at offset %d: %w", i, entryStart, ErrTruncated)
		}
		entry.CRC32 = codec.CRC32(data[entryStart:entryEnd])

		entries = append(entries, entry)
		byOffset[entry.Offset] = entry
	}

	consumed := position()
	checksumBuf := make([]byte, checksumSize)
	if _, err := io.ReadFull(br, checksumBuf); err != nil {
		return nil, xerrors.Errorf("trailing checksum: %w", ErrTruncated)
	}
	if consumed+checksumSize != len(data) {
		return nil, xerrors.Errorf("trailing data: %w", ErrTruncated)
	}

	var want [20]byte
	copy(want[:], checksumBuf)
	got := p.hasher.Sum(data[:consumed])
	if got != want {
		return nil, ErrChecksumMismatch
	}

	return &ParseResult{Entries: entries, Checksum: got}, nil
}

// readEntry decodes a single entry's header, optional delta base
// addressing, and inflated payload, all off br. entryStart is this
// entry's absolute offset within data, needed for OFS_DELTA base
// validation and the base-offset arithmetic itself.
func (p *Parser) readEntry(br *bufio.Reader, data []byte, entryStart int, byOffset map[uint64]*Entry) (*Entry, error) {
	kind, size, err := packwire.ReadObjectHeader(br)
	if err != nil {
		return nil, xerrors.Errorf("object header: %w", ErrTruncated)
	}
	if !objkind.IsValid(kind) {
		return nil, ErrInvalidKind
	}

	entry := &Entry{Offset: uint64(entryStart), Kind: kind, Size: size}

	switch kind {
	case objkind.RefDelta:
		if _, err := io.ReadFull(br, entry.BaseSHA1[:]); err != nil {
			return nil, xerrors.Errorf("ref-delta base id: %w", ErrTruncated)
		}

	case objkind.OfsDelta:
		distance, err := packwire.ReadOffsetDelta(br)
		if err != nil {
			return nil, xerrors.Errorf("ofs-delta offset: %w", ErrTruncated)
		}
		if distance == 0 || distance > uint64(entryStart) {
			return nil, ErrDanglingOffsetDelta
		}
		baseOffset := uint64(entryStart) - distance
		if _, ok := byOffset[baseOffset]; !ok {
			return nil, ErrDanglingOffsetDelta
		}
		entry.BaseOffset = baseOffset
	}

	payload, _, err := p.codec.Inflate(br, int(size))
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrTruncated
		}
		return nil, xerrors.Errorf("inflate: %w", err)
	}
	entry.Payload = payload

	if kind.IsMaterialized() {
		entry.SHA1 = p.hasher.Sum(append(objkind.Frame(kind, int(size)), payload...))
	}

	return entry, nil
}
