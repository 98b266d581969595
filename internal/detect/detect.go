// Package detect decides whether a tracked file set changed between two
// snapshots.
package detect

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"ifchanged/internal/snapshot"
)

// errMismatch signals the comparison group that a digest differs. It
// doubles as the shared cancellation token: the errgroup cancels its
// context on the first non-nil return, and sibling chunk tasks observe
// that before starting each key.
var errMismatch = errors.New("digest mismatch")

// Changed reports whether current differs from baseline.
//
// The cheap rules run first: force wins outright, an absent baseline
// always counts as changed, and a key-count mismatch catches additions
// and removals without inspecting digests. Only equally sized snapshots
// pay for the chunked digest comparison.
//
// The cancellation token is strictly internal to the comparison: it
// exists to stop sibling chunks once any mismatch is found, and nothing
// outside the comparison can trigger it. Run-level cancellation is the
// caller's concern, before or after this call.
//
// When several chunks each contain a mismatch, which one cancels the
// others first is timing-dependent; the boolean result is not.
func Changed(current, baseline *snapshot.Snapshot, force bool, chunkSize int) bool {
	if force {
		return true
	}
	if baseline == nil {
		return true
	}
	if current.Len() != baseline.Len() {
		return true
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	keys := current.Paths()
	g, ctx := errgroup.WithContext(context.Background())
	for start := 0; start < len(keys); start += chunkSize {
		end := min(start+chunkSize, len(keys))
		chunk := keys[start:end]

		g.Go(func() error {
			for _, key := range chunk {
				// Cooperative: a comparison in flight always finishes,
				// cancellation is only observed between keys.
				if ctx.Err() != nil {
					return nil
				}
				cur, _ := current.Digest(key)
				prev, ok := baseline.Digest(key)
				if !ok || prev != cur {
					return errMismatch
				}
			}
			return nil
		})
	}

	return errors.Is(g.Wait(), errMismatch)
}
