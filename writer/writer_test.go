package writer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gbamio/gbam/field"
	"github.com/gbamio/gbam/format"
	"github.com/gbamio/gbam/reader"
	"github.com/gbamio/gbam/record"
	"github.com/gbamio/gbam/rowsource"
)

func TestWriter_RoundTrip_FixedAndVariableFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round_trip.gbam")

	rows := []rowsource.RowRecord{
		{RefID: 0, Pos: 100, Flags: 0x0001, ReadName: "a"},
		{RefID: 0, Pos: 200, Flags: 0x0004, ReadName: "bc"},
		{RefID: 1, Pos: 300, Flags: 0x0400, ReadName: "def"},
		{RefID: 1, Pos: 400, Flags: 0x0010, ReadName: "gh"},
		{RefID: 2, Pos: 500, Flags: 0x0020, ReadName: "i"},
	}

	w, err := Create(path,
		WithFields(field.RefID, field.Pos, field.Flags, field.ReadName),
		WithCodec(format.CodecLZ4),
		WithBlockThreshold(2), // forces multiple blocks over 5 rows
	)
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(rowsource.NewSliceSource(rows)))
	require.NoError(t, w.Close())

	r, err := reader.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, len(rows), r.RecordCount())

	var rec record.Record
	for i, want := range rows {
		require.NoError(t, r.FillRecord(i, &rec))
		require.Equal(t, want.RefID, *rec.RefID)
		require.Equal(t, want.Pos, *rec.Pos)
		require.Equal(t, want.Flags, *rec.Flags)
		require.Equal(t, want.ReadName, *rec.ReadName)
	}
}

func TestWriter_EmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gbam")

	w, err := Create(path, WithFields(field.MapQ))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := reader.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 0, r.RecordCount())
}

func TestWriter_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.gbam")

	w, err := Create(path, WithFields(field.MapQ))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.WriteRow(rowsource.RowRecord{MapQ: 1})
	require.Error(t, err)
}
