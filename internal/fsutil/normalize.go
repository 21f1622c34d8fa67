package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// IsAncestor reports whether target is root itself or a path-component
// descendant of root. Both paths must already be absolute and cleaned
// (e.g. via filepath.Abs then filepath.Clean); IsAncestor does not
// normalize them itself. Unlike a string-prefix comparison, root "/a/b"
// does not admit "/a/bc/x".
func IsAncestor(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return true
}
