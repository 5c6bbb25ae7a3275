package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopt/featstore/sample"
)

func tempContainer(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.fst")
	c, err := Create(path)
	require.NoError(t, err)
	return c, path
}

func TestCreateOpen_Empty(t *testing.T) {
	c, path := tempContainer(t)
	require.NoError(t, c.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	require.Empty(t, c.Fields())
	require.False(t, c.Has("anything"))
}

func TestOpen_InvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.fst")
	require.NoError(t, os.WriteFile(path, []byte("not a container file"), 0644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestOpen_InvalidVersion(t *testing.T) {
	c, path := tempContainer(t)
	require.NoError(t, c.Close())

	// Patch the version field while keeping the magic intact.
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestOpen_TruncatedRecord(t *testing.T) {
	c, path := tempContainer(t)
	s := NewFileSample(c)
	require.NoError(t, s.PutVector("k", sample.Ints([]int64{1, 2, 3})))
	require.NoError(t, c.Close())

	// A record header promising more bytes than the file holds must be
	// rejected, not silently ignored.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-4], 0644))

	_, err = Open(path)
	require.Error(t, err)
}

func TestFields_Metadata(t *testing.T) {
	c, _ := tempContainer(t)
	defer c.Close()
	s := NewFileSample(c)

	require.NoError(t, s.PutScalar("b_scalar", sample.Int(7)))
	require.NoError(t, s.PutVector("a_vec", sample.Floats([]float64{1, 2, 3})))
	require.NoError(t, s.PutVectorList("c_list",
		sample.IntVectorList([][]int64{{1, 2}, nil})))

	fields := c.Fields()
	require.Len(t, fields, 3)

	// Sorted by name.
	require.Equal(t, "a_vec", fields[0].Name)
	require.Equal(t, "b_scalar", fields[1].Name)
	require.Equal(t, "c_list", fields[2].Name)

	require.Equal(t, "float16", fields[0].DType)
	require.Equal(t, []int64{3}, fields[0].Shape)
	require.True(t, fields[0].Compressed)
	require.False(t, fields[0].HasLengths)

	require.Equal(t, "int64", fields[1].DType)
	require.Nil(t, fields[1].Shape)

	require.Equal(t, []int64{2, 2}, fields[2].Shape)
	require.True(t, fields[2].HasLengths)
}

func TestOverwrite_SingleLiveField(t *testing.T) {
	c, path := tempContainer(t)
	s := NewFileSample(c)

	require.NoError(t, s.PutVector("k", sample.Ints([]int64{1, 2, 3})))
	require.NoError(t, s.PutVector("k", sample.Ints([]int64{9, 8, 7, 6})))

	require.Len(t, c.Fields(), 1)
	v, err := s.GetVector("k")
	require.NoError(t, err)
	require.Equal(t, []int64{9, 8, 7, 6}, v.Ints)

	// The tombstoned record must stay dead across a reopen.
	require.NoError(t, c.Close())
	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	require.Len(t, c.Fields(), 1)
	v, err = NewFileSample(c).GetVector("k")
	require.NoError(t, err)
	require.Equal(t, []int64{9, 8, 7, 6}, v.Ints)
}

func TestOverwrite_ChangesShapeAndType(t *testing.T) {
	c, _ := tempContainer(t)
	defer c.Close()
	s := NewFileSample(c)

	require.NoError(t, s.PutVector("k", sample.Floats([]float64{1, 2})))
	require.NoError(t, s.PutScalar("k", sample.String("replaced")))

	got, err := s.GetScalar("k")
	require.NoError(t, err)
	require.Equal(t, sample.String("replaced"), *got)
}

func TestWriteAfterReopen(t *testing.T) {
	c, path := tempContainer(t)
	s := NewFileSample(c)
	require.NoError(t, s.PutVector("old", sample.Ints([]int64{1, 2})))
	require.NoError(t, c.Close())

	// New records must land after the existing ones, not on top of them.
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()
	s = NewFileSample(c)

	require.NoError(t, s.PutVector("new", sample.Ints([]int64{3})))

	v, err := s.GetVector("old")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, v.Ints)
	v, err = s.GetVector("new")
	require.NoError(t, err)
	require.Equal(t, []int64{3}, v.Ints)
}

func TestPutAfterClose(t *testing.T) {
	c, _ := tempContainer(t)
	require.NoError(t, c.Close())

	err := NewFileSample(c).PutScalar("k", sample.Int(1))
	require.ErrorIs(t, err, ErrClosed)
}

func TestClose_Idempotent(t *testing.T) {
	c, _ := tempContainer(t)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
