// Package fileset resolves include/exclude glob patterns into the
// concrete list of tracked files.
package fileset

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// vendorExclude is appended to every exclude list so dependency trees
// are never tracked, even with an empty user exclude list.
const vendorExclude = "**/node_modules/**"

// Resolve expands the include patterns under baseDir and returns a
// sorted, deduplicated list of absolute paths to regular files.
// Directories are never included, even when a pattern matches one.
// Dotfiles match like any other file. Exclude patterns are matched
// against the POSIX-style path relative to baseDir. An invalid pattern
// fails the whole resolution.
func Resolve(baseDir string, includes, excludes []string) ([]string, error) {
	excludes = append(append([]string{}, excludes...), vendorExclude)
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	seen := make(map[string]struct{})
	for _, pattern := range includes {
		matches, err := doublestar.FilepathGlob(filepath.Join(baseDir, pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			rel, err := filepath.Rel(baseDir, match)
			if err != nil {
				return nil, fmt.Errorf("failed to compute relative path for %s: %w", match, err)
			}
			if isExcluded(filepath.ToSlash(rel), excludes) {
				continue
			}
			seen[match] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func isExcluded(relPath string, excludes []string) bool {
	for _, pattern := range excludes {
		if doublestar.MatchUnvalidated(pattern, relPath) {
			return true
		}
	}
	return false
}
