package identity_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jjenkins/evcms/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_Deterministic(t *testing.T) {
	t.Parallel()

	mod := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := identity.Tag([]byte("hello"), mod)
	b := identity.Tag([]byte("hello"), mod)

	require.Equal(t, a, b)
	require.Len(t, a, 16)
	require.Regexp(t, `^[0-9a-f]{16}$`, a)
}

func TestTag_ChangesWithContentOrTime(t *testing.T) {
	t.Parallel()

	mod := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []string{"", "a", "b", "ab", "ba", "---\ntitle: \"Test\"\n---\nHello", "---\ntitle: \"Test\"\n---\nHello!"}

	seen := make(map[string]string)
	for _, in := range inputs {
		tag := identity.Tag([]byte(in), mod)
		prev, dup := seen[tag]
		assert.False(t, dup, "tag collision between %q and %q", prev, in)
		seen[tag] = in
	}

	assert.NotEqual(t,
		identity.Tag([]byte("same"), mod),
		identity.Tag([]byte("same"), mod.Add(time.Millisecond)),
	)
}

func TestForFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entry.md")
	require.NoError(t, os.WriteFile(path, []byte("body"), 0o644))

	tag, data, info, err := identity.ForFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("body"), data)
	require.Equal(t, identity.Tag(data, info.ModTime()), tag)

	_, _, _, err = identity.ForFile(filepath.Join(t.TempDir(), "missing.md"))
	require.True(t, os.IsNotExist(err))
}
