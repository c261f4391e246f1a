package treedelta

import "context"

// Diff computes the patch turning a into b: it builds hash and
// document-order indexes over a, runs the XCC matcher, and walks the
// result in post-order to produce the operation list. It is the
// single-call convenience entry point the lower-level Matcher/Editor
// pieces compose into, mirroring the teacher's DeepDiff.Diff(ctx, a, b)
// method hung off a configured value built with New(opts...).
//
// ctx is checked cooperatively between the top-level phases (index
// build, matching, edit walk) per the single-threaded, no-internal-
// suspension concurrency model; none of the phases themselves can be
// interrupted mid-algorithm.
func (cfg *Config) Diff(ctx context.Context, a, b *Tree, hasher NodeHasher) ([]*DetachedContextOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ha := NewHashIndex(a, hasher)
	hb := NewHashIndex(b, hasher)

	matching, err := NewMatcher(a, b, ha, hb).Match()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idxA, _, err := BuildIndexes(a)
	if err != nil {
		return nil, err
	}
	fp := NewFingerprintFactory(a, idxA, ha, cfg.Radius)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return NewEditor(a, b, matching, fp).ComputeOperations()
}
