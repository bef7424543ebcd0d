package main

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // test fixtures only
	"path/filepath"
	"testing"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/nivl-labs/packengine/packstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackCmdWritesLooseObjects(t *testing.T) {
	srcDir := t.TempDir()
	packPath := writeSampleBlobPack(t, srcDir)

	dest := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, unpackCmd(&out, packPath, dest))
	assert.Contains(t, out.String(), "wrote 1 loose objects")

	store, err := packstore.NewFileStore(afero.NewOsFs(), dest, codec.NewZlibCodec(0))
	require.NoError(t, err)

	payload := []byte("hello\n")
	id := sha1.Sum(append(objkind.Frame(objkind.Blob, len(payload)), payload...)) //nolint:gosec // test fixture

	kind, got, err := store.Retrieve(id, 0)
	require.NoError(t, err)
	assert.Equal(t, objkind.Blob, kind)
	assert.Equal(t, payload, got)
}

func TestUnpackCmdErrorsOnMissingSource(t *testing.T) {
	dest := t.TempDir()
	var out bytes.Buffer
	err := unpackCmd(&out, filepath.Join(t.TempDir(), "missing.pack"), dest)
	assert.Error(t, err)
}
