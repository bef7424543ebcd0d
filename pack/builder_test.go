package pack_test

import (
	"crypto/sha1" //nolint:gosec // test fixtures only
	"testing"

	"github.com/nivl-labs/packengine/codec"
	"github.com/nivl-labs/packengine/objkind"
	"github.com/nivl-labs/packengine/pack"
	"github.com/nivl-labs/packengine/packstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedObject hashes payload under kind's framing, stores it in store,
// and returns its id.
func seedObject(store *packstore.MemStore, kind objkind.Kind, payload []byte) [20]byte {
	id := sha1.Sum(append(objkind.Frame(kind, len(payload)), payload...)) //nolint:gosec // test fixture
	store.Put(id, kind, payload)
	return id
}

func buildSampleRepo(store *packstore.MemStore) (commitID [20]byte) {
	blobID := seedObject(store, objkind.Blob, []byte("hello\n"))

	var treePayload []byte
	treePayload = append(treePayload, []byte("100644 hello.txt\x00")...)
	treePayload = append(treePayload, blobID[:]...)
	treeID := seedObject(store, objkind.Tree, treePayload)

	commitPayload := []byte("tree " + hexString(treeID) + "\nauthor a <a@example.com> 0 +0000\n\ninitial\n")
	return seedObject(store, objkind.Commit, commitPayload)
}

func hexString(id [20]byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 40)
	for i, b := range id {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}

func TestBuilderProducesParsableRoundTrip(t *testing.T) {
	t.Parallel()

	store := packstore.NewMemStore()
	commitID := buildSampleRepo(store)

	z := codec.NewZlibCodec(0)
	hasher := codec.SHA1Hasher{}
	builder := pack.NewBuilder(store, z, hasher)

	data, err := builder.Build([][20]byte{commitID})
	require.NoError(t, err)

	parser := pack.NewParser(z, hasher)
	result, err := parser.Parse(data)
	require.NoError(t, err)

	// commit, tree, and blob: three objects, none of them deltas.
	require.Len(t, result.Entries, 3)

	got := make(map[[20]byte]objkind.Kind, len(result.Entries))
	for _, e := range result.Entries {
		assert.True(t, e.Kind.IsMaterialized())
		got[e.SHA1] = e.Kind
	}
	assert.Contains(t, got, commitID)
}

// partiallyPackedStore wraps a MemStore but reports an extra set of
// ids as already packed, regardless of whether MemStore itself knows
// them, so tests can exercise Builder.walkTree's FindPacked skip
// without needing a real on-disk pack + index.
type partiallyPackedStore struct {
	*packstore.MemStore
	packed map[[20]byte]bool
}

func (s *partiallyPackedStore) FindPacked(oid [20]byte) bool {
	return s.packed[oid] || s.MemStore.FindPacked(oid)
}

func TestBuilderSkipsObjectsAlreadyPacked(t *testing.T) {
	t.Parallel()

	mem := packstore.NewMemStore()
	commitID := buildSampleRepo(mem)

	// treeID is the only object walkTree would otherwise reach besides
	// the commit and blob; marking it already-packed should make the
	// builder stop before ever calling Retrieve for the blob beneath it.
	blobID := seedObject(mem, objkind.Blob, []byte("hello\n"))
	var treePayload []byte
	treePayload = append(treePayload, []byte("100644 hello.txt\x00")...)
	treePayload = append(treePayload, blobID[:]...)
	treeID := sha1.Sum(append(objkind.Frame(objkind.Tree, len(treePayload)), treePayload...)) //nolint:gosec // test fixture

	store := &partiallyPackedStore{MemStore: mem, packed: map[[20]byte]bool{treeID: true}}

	z := codec.NewZlibCodec(0)
	hasher := codec.SHA1Hasher{}
	builder := pack.NewBuilder(store, z, hasher)

	data, err := builder.Build([][20]byte{commitID})
	require.NoError(t, err)

	parser := pack.NewParser(z, hasher)
	result, err := parser.Parse(data)
	require.NoError(t, err)

	// Only the commit itself: its tree is already packed, so neither
	// the tree nor the blob beneath it are emitted.
	require.Len(t, result.Entries, 1)
	assert.Equal(t, commitID, result.Entries[0].SHA1)
}

func TestBuilderDedupesSharedBlob(t *testing.T) {
	t.Parallel()

	store := packstore.NewMemStore()

	sharedBlobID := seedObject(store, objkind.Blob, []byte("shared\n"))

	var treeA []byte
	treeA = append(treeA, []byte("100644 a.txt\x00")...)
	treeA = append(treeA, sharedBlobID[:]...)
	treeAID := seedObject(store, objkind.Tree, treeA)

	var treeB []byte
	treeB = append(treeB, []byte("100644 b.txt\x00")...)
	treeB = append(treeB, sharedBlobID[:]...)
	treeBID := seedObject(store, objkind.Tree, treeB)

	commitA := seedObject(store, objkind.Commit, []byte("tree "+hexString(treeAID)+"\n\nA\n"))
	commitB := seedObject(store, objkind.Commit, []byte("tree "+hexString(treeBID)+"\n\nB\n"))

	z := codec.NewZlibCodec(0)
	hasher := codec.SHA1Hasher{}
	builder := pack.NewBuilder(store, z, hasher)

	data, err := builder.Build([][20]byte{commitA, commitB})
	require.NoError(t, err)

	parser := pack.NewParser(z, hasher)
	result, err := parser.Parse(data)
	require.NoError(t, err)

	// 2 commits + 2 trees + 1 shared blob, not 6.
	assert.Len(t, result.Entries, 5)

	seen := make(map[[20]byte]int)
	for _, e := range result.Entries {
		seen[e.SHA1]++
	}
	assert.Equal(t, 1, seen[sharedBlobID])
}

func TestBuilderUnknownRootCommit(t *testing.T) {
	t.Parallel()

	store := packstore.NewMemStore()
	builder := pack.NewBuilder(store, codec.NewZlibCodec(0), codec.SHA1Hasher{})

	var unknown [20]byte
	unknown[0] = 0x99
	_, err := builder.Build([][20]byte{unknown})
	assert.Error(t, err)
}
