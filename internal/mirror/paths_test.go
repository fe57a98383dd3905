package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelPath(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/data/src")

	tests := []struct {
		name string
		abs  string
		want string
	}{
		{"root itself", root, ""},
		{"direct child", filepath.Join(root, "a.txt"), "a.txt"},
		{"nested", filepath.Join(root, "a", "b", "c.txt"), "a/b/c.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := relPath(root, tt.abs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelPath_OutsideRoot(t *testing.T) {
	t.Parallel()

	_, err := relPath(filepath.FromSlash("/data/src"), filepath.FromSlash("/data/other/x"))
	assert.Error(t, err)
}

func TestUnderRootAndJoinRel(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/r")

	assert.Equal(t, root, underRoot(root, ""))
	assert.Equal(t, filepath.Join(root, "a", "b"), underRoot(root, "a/b"))

	assert.Equal(t, "x", joinRel("", "x"))
	assert.Equal(t, "a/b/x", joinRel("a/b", "x"))
}

func TestIsNested(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outer, inner string
		want         bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/a", "/ab", false},
		{"/a/b", "/a", false},
		{"/a", "/b", false},
	}

	for _, tt := range tests {
		got := isNested(filepath.FromSlash(tt.outer), filepath.FromSlash(tt.inner))
		assert.Equal(t, tt.want, got, "isNested(%q, %q)", tt.outer, tt.inner)
	}
}

func TestNameKey_FoldsDecomposedForms(t *testing.T) {
	t.Parallel()

	assert.Equal(t, nameKey("caf\u00e9"), nameKey("cafe\u0301"))
	assert.NotEqual(t, nameKey("cafe"), nameKey("caf\u00e9"))
}

func TestSameEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), "a", t1)
	writeFile(t, filepath.Join(dir, "b"), "b", t1)
	require.NoError(t, os.Link(filepath.Join(dir, "a"), filepath.Join(dir, "a-link")))

	fsys := NewOSFS()

	assert.True(t, sameEntry(fsys, dir, "a", "a"))
	assert.True(t, sameEntry(fsys, dir, "a", "a-link"))
	assert.False(t, sameEntry(fsys, dir, "a", "b"))
	assert.False(t, sameEntry(fsys, dir, "missing", "a"))
}
