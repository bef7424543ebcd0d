// Package codec provides the compression and hashing collaborators
// the packfile engine consumes: inflate/deflate of zlib payloads and
// SHA-1 content hashing (spec §6).
package codec

import "io"

// Codec inflates and deflates the zlib streams that wrap every pack
// entry's payload.
//
// Inflate must produce exactly as many decompressed bytes as the
// entry's declared size, per spec §4.1. A caller reading several
// entries off one shared reader (pack.Parser does) should track its
// own absolute position rather than sum Consumed across calls — see
// ZlibCodec.Inflate's doc comment for why.
type Codec interface {
	// Inflate decompresses from r until expected bytes have been
	// produced, then drains to the underlying stream's own end so any
	// trailing checksum is consumed too. It returns the decompressed
	// bytes, the number of bytes read off r for this call, and any
	// error.
	Inflate(r io.Reader, expected int) (data []byte, consumed int64, err error)
	// Deflate compresses data into a self-contained zlib stream.
	Deflate(data []byte) ([]byte, error)
}

// Hasher computes the content hash used to address objects. The
// engine only ever asks for SHA-1 (spec §6), but the interface keeps
// the hash algorithm out of the parser/resolver/builder so a caller
// never has to special-case it.
type Hasher interface {
	// Sum returns the 20-byte digest of data.
	Sum(data []byte) [20]byte
}
