package sizecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissReturnsNil(t *testing.T) {
	s := openTestStore(t)

	sizes, err := s.Get("unknown-doc")
	require.NoError(t, err)
	assert.Nil(t, sizes)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []PageSize{
		{PageIndex: 0, WidthPt: 612, HeightPt: 792},
		{PageIndex: 1, WidthPt: 595.27559, HeightPt: 841.88976},
	}
	require.NoError(t, s.Put("doc-a", in))

	out, err := s.Get("doc-a")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPutReplacesPreviousRecord(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("doc-a", []PageSize{{PageIndex: 0, WidthPt: 100, HeightPt: 100}}))
	require.NoError(t, s.Put("doc-a", []PageSize{{PageIndex: 0, WidthPt: 200, HeightPt: 300}}))

	out, err := s.Get("doc-a")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 200.0, out[0].WidthPt)
}

func TestDocumentsAreIndependent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("doc-a", []PageSize{{PageIndex: 0, WidthPt: 1, HeightPt: 1}}))

	sizes, err := s.Get("doc-b")
	require.NoError(t, err)
	assert.Nil(t, sizes)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("doc-a", []PageSize{{PageIndex: 0, WidthPt: 1, HeightPt: 1}}))
	require.NoError(t, s.Delete("doc-a"))

	sizes, err := s.Get("doc-a")
	require.NoError(t, err)
	assert.Nil(t, sizes)

	// Deleting a missing record is not an error.
	assert.NoError(t, s.Delete("doc-a"))
}
