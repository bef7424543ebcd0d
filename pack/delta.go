package pack

import "github.com/nivl-labs/packengine/internal/packwire"

// ApplyDelta interprets the copy/insert opcode stream in delta against
// base and returns the reconstructed target buffer (spec §4.4). The
// decoder itself lives in internal/packwire so packstore.FileStore can
// walk a delta chain local to one pack file without importing pack
// (which depends on packstore.ObjectStore for REF_DELTA fallback).
func ApplyDelta(base, delta []byte) ([]byte, error) {
	return packwire.ApplyDelta(base, delta)
}
