package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_WritesOnce(t *testing.T) {
	fs := memfs.New()
	e := New(fs)

	require.NoError(t, e.Export("101.Pixel.dxbc", []byte("DXBC")))

	data, err := util.ReadFile(fs, "101.Pixel.dxbc")
	require.NoError(t, err)
	assert.Equal(t, []byte("DXBC"), data)

	err = e.Export("101.Pixel.dxbc", []byte("other"))
	require.ErrorIs(t, err, ErrAlreadyExported)

	// The first payload is untouched.
	data, err = util.ReadFile(fs, "101.Pixel.dxbc")
	require.NoError(t, err)
	assert.Equal(t, []byte("DXBC"), data)
}

func TestExport_NoTempFilesLeft(t *testing.T) {
	fs := memfs.New()
	e := New(fs)

	require.NoError(t, e.Export("a.Vertex.dxbc", []byte{1}))
	require.NoError(t, e.WriteFile("call_table.txt", []byte("report")))

	infos, err := fs.ReadDir("/")
	require.NoError(t, err)
	var names []string
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	assert.ElementsMatch(t, []string{"a.Vertex.dxbc", "call_table.txt"}, names)
}

func TestExport_OverwritesPreviousRun(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "7.Compute.dxbc", []byte("stale-and-longer"), 0o644))

	e := New(fs)
	require.NoError(t, e.Export("7.Compute.dxbc", []byte("new")))

	data, err := util.ReadFile(fs, "7.Compute.dxbc")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestExport_RejectsBadNames(t *testing.T) {
	e := New(memfs.New())
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, ".tmp-x"} {
		assert.Error(t, e.Export(name, nil), "name %q", name)
	}
}

func TestExport_WrittenAndBytes(t *testing.T) {
	e := New(memfs.New())
	require.NoError(t, e.Export("b.Pixel.dxbc", []byte("12345")))
	require.NoError(t, e.Export("a.Pixel.dxbc", []byte("12")))
	require.NoError(t, e.WriteFile("call_table.txt", []byte("ignored")))

	assert.Equal(t, []string{"a.Pixel.dxbc", "b.Pixel.dxbc"}, e.Written())
	assert.Equal(t, int64(7), e.Bytes())
}

func TestNewDir_OnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frame_rdc_binary")

	e, err := NewDir(dir)
	require.NoError(t, err)
	require.NoError(t, e.Export("1.Pixel.dxbc", []byte("x")))

	data, err := os.ReadFile(filepath.Join(dir, "1.Pixel.dxbc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestRemove_StaleReport(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "call_table.txt", []byte("old report"), 0o644))
	e := New(fs)

	require.NoError(t, e.Remove("call_table.txt"))
	_, err := fs.Stat("call_table.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Removing again is a no-op.
	require.NoError(t, e.Remove("call_table.txt"))
	assert.Error(t, e.Remove("../escape"))
}
