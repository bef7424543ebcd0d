package codec

import "crypto/sha1" //nolint:gosec // SHA-1 is the hash the pack format itself specifies

// SHA1Hasher is the only Hasher the pack format understands (spec
// §6). It's kept behind the Hasher interface anyway so parser,
// resolver and builder never import crypto/sha1 directly.
type SHA1Hasher struct{}

// Sum returns the SHA-1 digest of data.
func (SHA1Hasher) Sum(data []byte) [20]byte {
	return sha1.Sum(data) //nolint:gosec // see package doc
}
