package filestore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Confine joins rel onto root and returns the resulting absolute path, or an
// ErrEscape error when the canonical form of the join lies outside root.
//
// This check is the only security boundary of the filestore. It runs before
// every operation, including reads.
//
// Algorithm:
//  1. Reject NUL bytes and volume names (C:, \\server\share) outright
//  2. Join root and rel; a leading separator in rel is treated as relative
//     to root, so absolute-path injection stays inside the root
//  3. Lexically canonicalize the join (resolve ".", ".." and duplicate
//     separators); the target does not need to exist
//  4. Require root to be a component-wise prefix of the result, so that
//     /data-other is never considered inside /data
//
// Parameters:
//   - root: Canonical absolute root directory (see New)
//   - rel: Caller-supplied path, relative to root; "" and "." mean the root
//
// Returns:
//   - string: Confined absolute path
//   - error: *StoreError with ErrEscape or ErrInvalidArgument
func Confine(root, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", newError(ErrInvalidArgument, "confine", rel, fmt.Errorf("path contains NUL byte"))
	}
	if filepath.VolumeName(rel) != "" {
		return "", newError(ErrEscape, "confine", rel, fmt.Errorf("path must not carry a volume name"))
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, full) {
		return "", newError(ErrEscape, "confine", rel,
			fmt.Errorf("path attempts to access outside of root directory %s", root))
	}
	return full, nil
}

// within reports whether path equals root or is a descendant of it. Both
// arguments must already be clean.
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// relative converts a confined absolute path back into the slash-separated
// root-relative form used in FileInfo.Path. The root itself is ".".
func relative(root, full string) string {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(rel)
}
