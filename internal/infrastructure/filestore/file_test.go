package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rolegate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_MissingFile_NotFound(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "userRoles.json"))
	_, err := f.Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestWriteThenRead(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "userRoles.json"))
	require.NoError(t, f.Write(context.Background(), []byte(`{"a":{}}`)))

	got, err := f.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":{}}`, string(got))
}

func TestWrite_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := New(filepath.Join(dir, "userRoles.json"))
	require.NoError(t, f.Write(context.Background(), []byte("first-version-longer")))
	require.NoError(t, f.Write(context.Background(), []byte("second")))

	got, err := f.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWrite_MissingDirectory_Fails(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "nope", "userRoles.json"))
	assert.Error(t, f.Write(context.Background(), []byte("x")))
}
