package pack_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/nivl-labs/packengine/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeltaIdentity exercises spec §8's "Delta identity" property:
// ApplyDelta(base, EncodeDelta(base, target)) reproduces target, for
// any base/target pair.
func TestDeltaIdentity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		base   []byte
		target []byte
	}{
		{"identical", []byte("the quick brown fox"), []byte("the quick brown fox")},
		{"empty base", nil, []byte("hello there")},
		{"empty target", []byte("hello there"), nil},
		{"both empty", nil, nil},
		{"append only", []byte("the quick brown fox jumps"), []byte("the quick brown fox jumps over the lazy dog")},
		{"prepend only", []byte("jumps over the lazy dog"), []byte("the quick brown fox jumps over the lazy dog")},
		{"interior edit", []byte("the quick brown fox jumps over the lazy dog"), []byte("the quick RED fox jumps over the lazy dog")},
		{"no overlap", []byte("aaaaaaaaaaaaaaaaaaaa"), []byte("zzzzzzzzzzzzzzzzzzzz")},
		{"repeated chunk", bytes.Repeat([]byte("0123456789abcdef"), 4), append(bytes.Repeat([]byte("0123456789abcdef"), 2), []byte("extra tail data")...)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			delta := pack.EncodeDelta(tc.base, tc.target)
			got, err := pack.ApplyDelta(tc.base, delta)
			require.NoError(t, err)
			assert.Equal(t, tc.target, got)
		})
	}
}

func TestDeltaIdentityRandomized(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	base := randomBytes(rng, 4096)

	for i := 0; i < 20; i++ {
		target := mutate(rng, base)
		delta := pack.EncodeDelta(base, target)
		got, err := pack.ApplyDelta(base, delta)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b) //nolint:errcheck // math/rand.Rand.Read never errors
	return b
}

// mutate returns a copy of base with a random slice removed and a
// random slice of fresh bytes inserted at a random point, simulating
// the kind of small edit a delta is meant to compress well.
func mutate(rng *rand.Rand, base []byte) []byte {
	cut := rng.Intn(len(base) - 100)
	cutLen := 20 + rng.Intn(80)

	out := make([]byte, 0, len(base))
	out = append(out, base[:cut]...)
	out = append(out, randomBytes(rng, 10+rng.Intn(50))...)
	out = append(out, base[cut+cutLen:]...)
	return out
}
