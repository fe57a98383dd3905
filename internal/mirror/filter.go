package mirror

import (
	ignore "github.com/sabhiram/go-gitignore"
)

// Filter hides paths from the mirror using gitignore-style patterns. An
// excluded path is neither propagated nor deleted: both components act as if
// it did not exist on either side. A nil Filter excludes nothing.
type Filter struct {
	patterns []string
	matcher  *ignore.GitIgnore
}

// NewFilter compiles patterns. Blank lines and "#" comments are ignored, as
// in a .gitignore file.
func NewFilter(patterns []string) *Filter {
	if len(patterns) == 0 {
		return nil
	}

	return &Filter{
		patterns: patterns,
		matcher:  ignore.CompileIgnoreLines(patterns...),
	}
}

// Excluded reports whether the slash-separated relative path is hidden.
// Directory paths are also tested with a trailing slash so that "build/"
// style patterns match the directory itself.
func (f *Filter) Excluded(rel string, isDir bool) bool {
	if f == nil || rel == "" {
		return false
	}

	if f.matcher.MatchesPath(rel) {
		return true
	}

	return isDir && f.matcher.MatchesPath(rel+"/")
}

// Patterns returns the source patterns, for logging.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}

	return f.patterns
}
