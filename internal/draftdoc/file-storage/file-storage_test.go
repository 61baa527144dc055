package filestorage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = "\x89PNG\r\n\x1a\n0000"

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name := uuid.Must(uuid.NewV4())
	require.NoError(t, s.SaveReader(strings.NewReader(pngHeader), int64(len(pngHeader)), name, "image/png", &Metadata{DocId: "d"}))

	exist, err := s.Exist(name)
	require.NoError(t, err)
	assert.True(t, exist)

	info, err := s.GetFileInfo(name)
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(len(pngHeader)), info.Size)

	r, err := s.LoadReader(name)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, pngHeader, string(data))

	require.NoError(t, s.Move(name.String(), "unknown/"+name.String()))
	var names []string
	require.NoError(t, s.ListRoot(func(fi FileInfo) error {
		names = append(names, fi.Name)
		return nil
	}))
	assert.Equal(t, []string{"unknown/" + name.String()}, names)

	_, err = s.GetFileInfo(name)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(name))
}

func TestMetadataMap(t *testing.T) {
	assert.Equal(t, map[string]string{"docId": "d", "token": "t"}, Metadata{DocId: "d", Token: "t"}.GetMap())
	assert.Empty(t, Metadata{}.GetMap())
}

func TestLocalStorageSkipsTusInfo(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name := uuid.Must(uuid.NewV4())
	require.NoError(t, s.SaveReader(strings.NewReader(pngHeader), int64(len(pngHeader)), name, "image/png", nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name.String()+tusInfoExt), []byte("{}"), 0644))

	var names []string
	require.NoError(t, s.ListRoot(func(fi FileInfo) error {
		names = append(names, fi.Name)
		return nil
	}))
	assert.Equal(t, []string{name.String()}, names)

	require.NoError(t, s.Delete(name))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
