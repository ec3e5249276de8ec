package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalArtifactStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalArtifactStore(dir, zap.NewNop())

	path, err := store.Save(ctx, "15-03-2026-0001", "sepa-20260318-1.xml", []byte("<Document/>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("15-03-2026-0001", "sepa-20260318-1.xml"), path)
	assert.FileExists(t, filepath.Join(dir, path))
	assert.Equal(t, filepath.Join(dir, path), store.FullPath(path))

	content, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "<Document/>", string(content))

	// overwrite keeps a single file
	_, err = store.Save(ctx, "15-03-2026-0001", "sepa-20260318-1.xml", []byte("<Document>2</Document>"))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(dir, "15-03-2026-0001"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalArtifactStore_Traversal(t *testing.T) {
	ctx := context.Background()
	store := NewLocalArtifactStore(t.TempDir(), zap.NewNop())

	path, err := store.Save(ctx, "../../etc", "passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("etc", "passwd"), path)

	_, err = store.Read(ctx, "../outside.txt")
	assert.Error(t, err)

	_, err = store.Save(ctx, "..", "a.xml", []byte("x"))
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"15-03-2026-0001", "15-03-2026-0001"},
		{"../secret", "secret"},
		{"a/b\\c", "abc"},
		{"Vente d'été", "Ventedt"},
		{"report.xlsx", "report.xlsx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}
