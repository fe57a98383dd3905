package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFilter_EmptyIsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewFilter(nil))
	assert.Nil(t, NewFilter([]string{}))
}

func TestFilter_NilExcludesNothing(t *testing.T) {
	t.Parallel()

	var f *Filter

	assert.False(t, f.Excluded("anything", false))
	assert.False(t, f.Excluded("dir", true))
	assert.Nil(t, f.Patterns())
}

func TestFilter_Excluded(t *testing.T) {
	t.Parallel()

	f := NewFilter([]string{
		"# editor droppings",
		"",
		"*.tmp",
		"build/",
		".git",
	})

	tests := []struct {
		name  string
		rel   string
		isDir bool
		want  bool
	}{
		{"glob at top level", "scratch.tmp", false, true},
		{"glob in subdirectory", "a/b/scratch.tmp", false, true},
		{"plain file", "notes.txt", false, false},
		{"dir-only pattern on dir", "build", true, true},
		{"dir-only pattern on file", "build", false, false},
		{"inside excluded dir", "build/out.bin", false, true},
		{"bare name", ".git", true, true},
		{"comment line is not a pattern", "# editor droppings", false, false},
		{"root never excluded", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, f.Excluded(tt.rel, tt.isDir))
		})
	}
}

func TestFilter_Patterns(t *testing.T) {
	t.Parallel()

	f := NewFilter([]string{"*.log", "cache/"})
	assert.Equal(t, []string{"*.log", "cache/"}, f.Patterns())
}
