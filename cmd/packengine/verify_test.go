package main

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // test fixtures only
	"os"
	"path/filepath"
	"testing"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/internal/packwire"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSampleBlobPack assembles a one-entry pack holding a single blob
// (no deltas, so resolving it never needs a store) and writes it under
// dir, returning its path. It is framed by hand because pack.Builder
// only accepts commits as roots.
func writeSampleBlobPack(t *testing.T, dir string) string {
	t.Helper()

	payload := []byte("hello\n")
	compressed, err := codec.NewZlibCodec(0).Deflate(payload)
	require.NoError(t, err)

	data := []byte{'P', 'A', 'C', 'K', 0, 0, 0, 2, 0, 0, 0, 1}
	data = append(data, packwire.AppendObjectHeader(objkind.Blob, uint64(len(payload)))...)
	data = append(data, compressed...)
	sum := sha1.Sum(data) //nolint:gosec // pack trailer format mandates SHA-1
	data = append(data, sum[:]...)

	path := filepath.Join(dir, "sample.pack")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVerifyCmdReportsOK(t *testing.T) {
	dir := t.TempDir()
	packPath := writeSampleBlobPack(t, dir)

	var out bytes.Buffer
	require.NoError(t, verifyCmd(&out, packPath))
	assert.Contains(t, out.String(), "ok, 1 entries")
}

func TestVerifyCmdReportsErrorForMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := verifyCmd(&out, filepath.Join(t.TempDir(), "does-not-exist.pack"))
	assert.Error(t, err)
}

func TestVerifyCmdReportsErrorForCorruptPack(t *testing.T) {
	dir := t.TempDir()
	packPath := writeSampleBlobPack(t, dir)

	data, err := os.ReadFile(packPath)
	require.NoError(t, err)
	data[0] = 'X'
	require.NoError(t, os.WriteFile(packPath, data, 0o644))

	var out bytes.Buffer
	err = verifyCmd(&out, packPath)
	assert.Error(t, err)
}
