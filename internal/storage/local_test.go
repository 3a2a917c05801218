package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewLocal(root, "/media/")

	rel, err := s.Save(context.Background(), "receipts", "slip.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "receipts/"))
	require.True(t, strings.HasSuffix(rel, ".png"))

	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
	require.Equal(t, "/media/"+rel, s.URL(rel))

	require.NoError(t, s.Delete(context.Background(), rel))
	_, err = os.Stat(filepath.Join(root, rel))
	require.True(t, os.IsNotExist(err))
	require.NoError(t, s.Delete(context.Background(), rel))
}

func TestSaveRejectsType(t *testing.T) {
	s := NewLocal(t.TempDir(), "/media/")
	_, err := s.Save(context.Background(), "receipts", "run.sh", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsOversize(t *testing.T) {
	root := t.TempDir()
	s := NewLocal(root, "/media/")
	big := bytes.Repeat([]byte{1}, MaxUploadBytes+10)

	_, err := s.Save(context.Background(), "products", "a.jpg", bytes.NewReader(big))
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "products"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
