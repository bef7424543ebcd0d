package pack

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// Sentinel errors matching the taxonomy of spec §7. UnsupportedVersionError
// and MissingBaseError below carry extra context the sentinels can't and
// are matched with errors.As instead, mirroring the teacher's
// ErrInvalidMagic/ErrInvalidVersion pattern in ginternals/packfile/packfile.go.
var (
	// ErrMalformedHeader signals a packfile missing the "PACK" magic.
	ErrMalformedHeader = errors.New("pack: malformed header, missing PACK magic")
	// ErrTruncated signals a declared size exceeding the remaining buffer.
	ErrTruncated = errors.New("pack: truncated, declared size exceeds remaining input")
	// ErrInvalidKind signals a kind byte of 0 or 5.
	ErrInvalidKind = errors.New("pack: invalid object kind")
	// ErrDanglingOffsetDelta signals an OFS_DELTA pointing at no known entry.
	ErrDanglingOffsetDelta = errors.New("pack: OFS_DELTA base offset does not match any known entry")
	// ErrCyclicDelta signals a REF_DELTA chain that loops back on itself.
	ErrCyclicDelta = errors.New("pack: cyclic REF_DELTA chain")
	// ErrChecksumMismatch signals a trailing SHA-1 that doesn't match the body.
	ErrChecksumMismatch = errors.New("pack: trailing checksum does not match body")
)

// Delta opcode errors (ErrInvalidDeltaOpcode, ErrDeltaBaseLengthMismatch,
// ErrDeltaLengthMismatch, ErrDeltaOutOfRange) and ErrIntOverflow live in
// internal/packwire, which both this package and packstore depend on.

// UnsupportedVersionError reports a pack version other than 2.
type UnsupportedVersionError struct {
	Got uint32
}

func (e *UnsupportedVersionError) Error() string {
	return "pack: unsupported version " + strconv.FormatUint(uint64(e.Got), 10)
}

// MissingBaseError reports a REF_DELTA whose base could not be found
// in the pack or in the object store.
type MissingBaseError struct {
	SHA1 [20]byte
}

func (e *MissingBaseError) Error() string {
	return "pack: missing delta base " + hex.EncodeToString(e.SHA1[:])
}
