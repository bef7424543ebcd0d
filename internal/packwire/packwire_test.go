package packwire_test

import (
	"bytes"
	"testing"

	"github.com/nivl-labs/packengine/internal/packwire"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		kind objkind.Kind
		size uint64
	}{
		{"small blob", objkind.Blob, 6},
		{"zero size", objkind.Tree, 0},
		{"needs one continuation", objkind.Commit, 1000},
		{"needs several continuations", objkind.RefDelta, 1 << 40},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			encoded := packwire.AppendObjectHeader(tc.kind, tc.size)
			kind, size, err := packwire.ReadObjectHeader(bytes.NewReader(encoded))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.size, size)
		})
	}
}

func TestVarLenSizeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []uint64{0, 1, 127, 128, 16384, 1 << 35} {
		v := v
		t.Run("", func(t *testing.T) {
			t.Parallel()

			encoded := packwire.AppendVarLenSize(nil, v)
			got, err := packwire.ReadVarLenSize(bytes.NewReader(encoded))
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestReadOffsetDelta(t *testing.T) {
	t.Parallel()

	t.Run("single byte", func(t *testing.T) {
		t.Parallel()

		v, err := packwire.ReadOffsetDelta(bytes.NewReader([]byte{0x42}))
		require.NoError(t, err)
		assert.Equal(t, uint64(0x42), v)
	})

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()

		_, err := packwire.ReadOffsetDelta(bytes.NewReader([]byte{0x80}))
		assert.Error(t, err)
	})
}

func TestApplyDelta(t *testing.T) {
	t.Parallel()

	t.Run("copy then insert reproduces target", func(t *testing.T) {
		t.Parallel()

		base := []byte("AAAA")
		// base_length=4, result_length=5, copy(0,4), insert "B"
		delta := []byte{4, 5, 0x91, 0x00, 0x04, 1, 'B'}
		got, err := packwire.ApplyDelta(base, delta)
		require.NoError(t, err)
		assert.Equal(t, []byte("AAAAB"), got)
	})

	t.Run("base length mismatch", func(t *testing.T) {
		t.Parallel()

		delta := []byte{5, 0}
		_, err := packwire.ApplyDelta([]byte("AAAA"), delta)
		assert.ErrorIs(t, err, packwire.ErrDeltaBaseLengthMismatch)
	})

	t.Run("copy out of range", func(t *testing.T) {
		t.Parallel()

		base := []byte("AAAA")
		// copy(offset=10, length=1) against a 4-byte base
		delta := []byte{4, 1, 0x91, 10, 1}
		_, err := packwire.ApplyDelta(base, delta)
		assert.ErrorIs(t, err, packwire.ErrDeltaOutOfRange)
	})

	t.Run("reserved opcode zero", func(t *testing.T) {
		t.Parallel()

		delta := []byte{0, 0, 0}
		_, err := packwire.ApplyDelta(nil, delta)
		assert.ErrorIs(t, err, packwire.ErrInvalidDeltaOpcode)
	})

	t.Run("result length mismatch", func(t *testing.T) {
		t.Parallel()

		base := []byte("AAAA")
		// declares result_length=10 but only inserts 1 byte
		delta := []byte{4, 10, 1, 'B'}
		_, err := packwire.ApplyDelta(base, delta)
		assert.ErrorIs(t, err, packwire.ErrDeltaLengthMismatch)
	})
}
