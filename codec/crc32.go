package codec

import "hash/crc32"

// CRC32 computes the IEEE CRC32 of a pack entry's on-wire bytes
// (header + compressed payload), per spec §4.1. It's a single stdlib
// call with no ecosystem alternative the corpus reaches for, so it
// stays on hash/crc32 rather than importing a third-party checksum
// library for one function.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
