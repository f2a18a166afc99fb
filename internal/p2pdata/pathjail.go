package p2pdata

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	errEmptyPath  = errors.New("p2pdata: empty path")
	errTraversal  = errors.New("p2pdata: path escapes the served tree")
	errNotRegular = errors.New("p2pdata: path is not a regular file")
)

// jailPath is the path-jail check ReadStream runs after the token's
// allow-path equality test: it rejects empty paths, non-canonical
// paths, and paths with ".." elements. Relative paths are accepted.
// Traversal elements are refused outright rather than normalized away,
// because a client that sends ".." is probing, not confused. Whether
// the path exists is deliberately not a jail concern: a missing file
// is a NotFound, not a policy violation.
func jailPath(path string) error {
	if path == "" {
		return errEmptyPath
	}
	clean := filepath.Clean(path)
	if clean != path {
		return fmt.Errorf("%w: %q is not canonical", errTraversal, path)
	}
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return errTraversal
		}
	}
	return nil
}
