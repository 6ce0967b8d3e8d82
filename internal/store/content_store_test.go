package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentStore(t *testing.T) (*store.ContentStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := store.NewContentStore(root)
	require.NoError(t, err)
	return s, root
}

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(data), 0o644))
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "content/intelligence/a.md", want: "content/intelligence/a.md"},
		{in: "/content/models/", want: "content/models"},
		{in: "content//models/./x.md", want: "content/models/x.md"},
		{in: "", want: "."},
		{in: "/", want: "."},
		{in: "../etc/passwd", wantErr: true},
		{in: "content/../../etc", wantErr: true},
		{in: "content\\..\\secret", wantErr: true},
		{in: "bad\x00name", wantErr: true},
	}
	for _, tt := range tests {
		got, err := store.Clean(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			assert.True(t, cmserr.Is(err, cmserr.KindBadRequest), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestContentStore_ReadMissing(t *testing.T) {
	t.Parallel()
	s, root := newContentStore(t)
	ctx := context.Background()

	_, err := s.Read(ctx, "content/intelligence/nope.md")
	require.True(t, cmserr.Is(err, cmserr.KindNotFound))

	writeFile(t, root, "content/intelligence/a.md", "x")
	_, err = s.Read(ctx, "content/intelligence")
	require.True(t, cmserr.Is(err, cmserr.KindNotFound))
}

func TestContentStore_ListMissingFolderIsEmpty(t *testing.T) {
	t.Parallel()
	s, _ := newContentStore(t)

	files, err := s.List(context.Background(), "content/models", "md", 1)
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

func TestContentStore_ListFiltersAndDepth(t *testing.T) {
	t.Parallel()
	s, root := newContentStore(t)
	ctx := context.Background()

	writeFile(t, root, "content/models/b.md", "b")
	writeFile(t, root, "content/models/a.md", "a")
	writeFile(t, root, "content/models/a.json", "{}")
	writeFile(t, root, "content/models/.hidden.md", "h")
	writeFile(t, root, "content/models/nested/c.md", "c")
	writeFile(t, root, "content/models/nested/deeper/d.md", "d")

	files, err := s.List(ctx, "content/models", "md", 1)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "content/models/a.md", files[0].Path)
	assert.Equal(t, "content/models/b.md", files[1].Path)
	assert.Equal(t, []byte("a"), files[0].Data)
	assert.NotEmpty(t, files[0].Tag)

	files, err = s.List(ctx, "content/models", ".MD", 2)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "content/models/nested/c.md", files[2].Path)

	files, err = s.List(ctx, "content/models", "", 1)
	require.NoError(t, err)
	require.Len(t, files, 3)
}

func TestContentStore_WriteReportsExisted(t *testing.T) {
	t.Parallel()
	s, root := newContentStore(t)
	ctx := context.Background()

	f, existed, err := s.Write(ctx, "content/intelligence/new/test-1.md", []byte("one"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, "content/intelligence/new/test-1.md", f.Path)
	assert.Equal(t, "test-1.md", f.Name)
	assert.Equal(t, int64(3), f.Size)

	data, err := os.ReadFile(filepath.Join(root, "content", "intelligence", "new", "test-1.md"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	g, existed, err := s.Write(ctx, "content/intelligence/new/test-1.md", []byte("two!"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NotEqual(t, f.Tag, g.Tag)

	_, _, err = s.Write(ctx, "content/intelligence", []byte("x"))
	assert.True(t, cmserr.Is(err, cmserr.KindBadRequest))
}

func TestContentStore_Delete(t *testing.T) {
	t.Parallel()
	s, root := newContentStore(t)
	ctx := context.Background()

	_, err := s.Delete(ctx, "content/intelligence/gone.md")
	require.True(t, cmserr.Is(err, cmserr.KindNotFound))

	writeFile(t, root, "content/intelligence/gone.md", "bye")
	before, err := s.Read(ctx, "content/intelligence/gone.md")
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, "content/intelligence/gone.md")
	require.NoError(t, err)
	assert.Equal(t, before.Tag, deleted.Tag)

	_, err = s.Read(ctx, "content/intelligence/gone.md")
	require.True(t, cmserr.Is(err, cmserr.KindNotFound))
}

func TestContentStore_ListDir(t *testing.T) {
	t.Parallel()
	s, root := newContentStore(t)
	ctx := context.Background()

	writeFile(t, root, "content/intelligence/z.md", "z")
	writeFile(t, root, "content/models/m.md", "m")
	writeFile(t, root, "content/readme.txt", "hello")

	entries, err := s.ListDir(ctx, "content")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "content/intelligence", entries[0].Path)
	assert.Equal(t, "models", entries[1].Name)
	assert.False(t, entries[2].IsDir)
	assert.Equal(t, int64(5), entries[2].Size)

	_, err = s.ListDir(ctx, "content/none")
	require.True(t, cmserr.Is(err, cmserr.KindNotFound))
}
