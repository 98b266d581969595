package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Snapshot maps relative POSIX-style file paths to SHA-256 content
// digests. The path order is fixed when the snapshot is constructed and
// is the partitioning order for chunked comparison.
type Snapshot struct {
	paths   []string
	digests map[string]string
}

// FromMap constructs a snapshot from a path -> digest mapping, ordering
// paths lexicographically.
func FromMap(m map[string]string) *Snapshot {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	digests := make(map[string]string, len(m))
	for p, d := range m {
		digests[p] = d
	}

	return &Snapshot{paths: paths, digests: digests}
}

// Len returns the number of tracked files.
func (s *Snapshot) Len() int {
	return len(s.paths)
}

// Paths returns a copy of the tracked paths in snapshot order, so
// callers cannot disturb the order the snapshot was built with.
func (s *Snapshot) Paths() []string {
	paths := make([]string, len(s.paths))
	copy(paths, s.paths)
	return paths
}

// Digest returns the digest recorded for path.
func (s *Snapshot) Digest(path string) (string, bool) {
	d, ok := s.digests[path]
	return d, ok
}

// AsMap returns the snapshot contents as a plain mapping.
func (s *Snapshot) AsMap() map[string]string {
	m := make(map[string]string, len(s.digests))
	for p, d := range s.digests {
		m[p] = d
	}
	return m
}

// Build hashes every file concurrently and assembles a snapshot keyed by
// the path relative to baseDir. Any single read failure fails the whole
// build; sibling hash tasks are cancelled and no partial snapshot is
// returned.
func Build(ctx context.Context, baseDir string, files []string) (*Snapshot, error) {
	paths := make([]string, len(files))
	digests := make([]string, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		rel, err := filepath.Rel(baseDir, file)
		if err != nil {
			return nil, fmt.Errorf("failed to compute relative path for %s: %w", file, err)
		}
		paths[i] = filepath.ToSlash(rel)

		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			digest, err := FileDigest(file)
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", paths[i], err)
			}
			digests[i] = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byPath := make(map[string]string, len(paths))
	for i, p := range paths {
		byPath[p] = digests[i]
	}
	return &Snapshot{paths: paths, digests: byPath}, nil
}

// FileDigest computes the SHA256 hash of a file's full content as a
// lowercase hex string.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
