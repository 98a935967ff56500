package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProperties_FixedVsVariable(t *testing.T) {
	refID := RefID.Properties()
	require.False(t, refID.Variable)
	require.Equal(t, 4, refID.ElemSize)
	require.False(t, refID.IsIndex)

	readName := ReadName.Properties()
	require.True(t, readName.Variable)
	require.Equal(t, ReadNameIndex, readName.IndexField)

	readNameIndex := ReadNameIndex.Properties()
	require.True(t, readNameIndex.IsIndex)
	require.Equal(t, 4, readNameIndex.ElemSize)
}

func TestString_MatchesCatalogName(t *testing.T) {
	require.Equal(t, "MapQ", MapQ.String())
	require.Equal(t, "RawTagsIndex", RawTagsIndex.String())
}

func TestParseName_RoundTrips(t *testing.T) {
	for _, f := range All() {
		got, ok := ParseName(f.String())
		require.True(t, ok)
		require.Equal(t, f, got)
	}
}

func TestParseName_UnknownNameNotFound(t *testing.T) {
	_, ok := ParseName("NotAField")
	require.False(t, ok)
}

func TestAll_EveryFieldUnique(t *testing.T) {
	seen := make(map[Field]bool)
	for _, f := range All() {
		require.False(t, seen[f], "duplicate field %s in All()", f)
		seen[f] = true
	}
	require.Len(t, seen, 19)
}
