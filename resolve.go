package treedelta

import "github.com/bits-and-blooms/bitset"

// ResolveConfig parameterises a Resolver's windowed search (§4.I).
type ResolveConfig struct {
	// SearchWindow bounds how far, in document-order positions either
	// side of the path's best-effort linear position, the windowed
	// search will look.
	SearchWindow int
}

// Resolver locates the live anchor for a DetachedContextOperation inside
// a target tree, using the operation's path as a fast-path guess and its
// head/tail fingerprints to confirm or, failing that, to drive a windowed
// search (§4.I).
type Resolver struct {
	target *Tree
	idx    *DocumentOrderIndex
	cm     *contextMatcher
	cfg    ResolveConfig
}

// NewResolver returns a Resolver over target, using idx (already built)
// for document-order lookups and fp (already built over target) to score
// candidate anchors.
func NewResolver(target *Tree, idx *DocumentOrderIndex, fp *FingerprintFactory, cfg ResolveConfig) *Resolver {
	if cfg.SearchWindow <= 0 {
		cfg.SearchWindow = DefaultSearchWindow
	}
	return &Resolver{target: target, idx: idx, cm: newContextMatcher(fp), cfg: cfg}
}

// Resolve finds the best anchor for op in the resolver's target tree.
// It tries the fast path first, then falls back to a windowed search
// around the path's best-effort linear position (§4.I steps 1-3).
func (r *Resolver) Resolve(op *DetachedContextOperation) (Anchor, error) {
	if pos, ok := r.fastPathPosition(op.Path); ok {
		score, err := r.cm.scoreAtPosition(pos, op.Head, op.Tail)
		if err != nil {
			return Anchor{}, err
		}
		if strictMatch(score) {
			return r.anchorAtPosition(pos)
		}
	}

	guess := r.bestEffortLinearPosition(op.Path)
	guess, err := r.skelmatchGuess(guess, op.Head, op.Tail)
	if err != nil {
		return Anchor{}, err
	}
	pos, found, err := r.windowedSearch(guess, op.Head, op.Tail, len(op.Remove) > 0)
	if err != nil {
		return Anchor{}, err
	}
	if !found {
		return Anchor{}, newErr(KindResolutionFailed, "Resolver.Resolve", "no candidate anchor scored above threshold", nil)
	}
	return r.anchorAtPosition(pos)
}

// strictMatch is the fast-path acceptance rule: every non-zero
// fingerprint entry (head and tail) must match (§4.I step 1).
func strictMatch(s ContextScore) bool {
	return s.HeadMatches == s.HeadTotal && s.TailMatches == s.TailTotal
}

// fastPathPosition follows path from the target tree's root. It succeeds
// only if every non-final index is a valid child index at its level; the
// final index may be at or past the end of its parent's children (an
// insert-only slot).
func (r *Resolver) fastPathPosition(path []int) (int, bool) {
	if r.target.Root() == InvalidNodeID {
		return 0, false
	}
	cur := r.target.Root()
	if len(path) == 0 {
		pos, ok := r.idx.PositionOf(cur)
		return pos, ok
	}
	for _, childIdx := range path[:len(path)-1] {
		n, err := r.target.Node(cur)
		if err != nil || childIdx < 0 || childIdx >= len(n.Children) {
			return 0, false
		}
		cur = n.Children[childIdx]
	}
	pos, err := slotPosition(r.target, r.idx, cur, path[len(path)-1])
	if err != nil {
		return 0, false
	}
	return pos, true
}

// bestEffortLinearPosition walks as much of path as resolves cleanly and
// returns the document-order position of the deepest node reached, used
// only to center the windowed search; it never fails, since the point of
// the windowed search is to recover from exactly this path having drifted.
func (r *Resolver) bestEffortLinearPosition(path []int) int {
	if r.target.Root() == InvalidNodeID {
		return 0
	}
	cur := r.target.Root()
	for _, childIdx := range path {
		n, err := r.target.Node(cur)
		if err != nil || childIdx < 0 || childIdx >= len(n.Children) {
			break
		}
		cur = n.Children[childIdx]
	}
	pos, ok := r.idx.PositionOf(cur)
	if !ok {
		return 0
	}
	return pos
}

// skelmatchGuess refines guess by aligning the query fingerprint's
// non-zero hash labels against the target's document order in a band
// around guess, via SkelMatch's longest-common-subsequence skeleton
// match (§4.F). This localizes the windowed search's starting point
// before any per-candidate scoring runs (§4.I step 2); it never fails
// to produce a guess, only refines one, so a factory error here is the
// only case that aborts resolution early.
func (r *Resolver) skelmatchGuess(guess int, head, tail []uint32) (int, error) {
	radius := len(head)
	lo, hi := guess-r.cfg.SearchWindow-radius, guess+r.cfg.SearchWindow+radius
	if lo < 0 {
		lo = 0
	}
	if hi > r.idx.Len() {
		hi = r.idx.Len()
	}
	if lo >= hi {
		return guess, nil
	}

	var queryLabels []string
	var offsets []int
	for i, h := range head {
		if h == 0 {
			continue
		}
		queryLabels = append(queryLabels, formatHex(h))
		offsets = append(offsets, i-len(head))
	}
	for i, h := range tail {
		if h == 0 {
			continue
		}
		queryLabels = append(queryLabels, formatHex(h))
		offsets = append(offsets, i)
	}
	if len(queryLabels) == 0 {
		return guess, nil
	}

	candLabels := make([]string, hi-lo)
	for pos := lo; pos < hi; pos++ {
		h, ok, err := r.cm.fp.NodeHashAt(pos)
		if err != nil {
			return 0, err
		}
		if ok {
			candLabels[pos-lo] = formatHex(h)
		}
	}

	pairs := SkelMatch(queryLabels, candLabels)
	if len(pairs) == 0 {
		return guess, nil
	}
	best := pairs[len(pairs)-1]
	return lo + best.J - offsets[best.I], nil
}

// windowedSearch scores every candidate position within cfg.SearchWindow
// of guess, keeping the best-scoring candidate that meets the lenient
// threshold. Ties are broken by proximity to guess, then by earlier
// document order. A bitset marks positions already scored so an
// overlapping radius never rescales the same candidate twice (§4.I step
// 2). rejectZeroSignal, set when the operation removes any nodes, refuses
// a candidate whose score carries no matching signal at all rather than
// letting MeetsThreshold's vacuous all-zero-fingerprint case anchor to an
// arbitrary nearby position (§4.I step 3).
func (r *Resolver) windowedSearch(guess int, head, tail []uint32, rejectZeroSignal bool) (int, bool, error) {
	n := uint(r.idx.Len())
	if n == 0 {
		return 0, false, nil
	}
	visited := bitset.New(n)

	bestPos := -1
	bestScore := -1
	bestDelta := -1

	consider := func(pos int) error {
		if pos < 0 || pos >= r.idx.Len() {
			return nil
		}
		if visited.Test(uint(pos)) {
			return nil
		}
		visited.Set(uint(pos))
		score, err := r.cm.scoreAtPosition(pos, head, tail)
		if err != nil {
			return err
		}
		if !score.MeetsThreshold() {
			return nil
		}
		total := score.Total()
		if total == 0 && rejectZeroSignal {
			return nil
		}
		delta := pos - guess
		if delta < 0 {
			delta = -delta
		}
		if total > bestScore || (total == bestScore && delta < bestDelta) ||
			(total == bestScore && delta == bestDelta && (bestPos == -1 || pos < bestPos)) {
			bestScore = total
			bestDelta = delta
			bestPos = pos
		}
		return nil
	}

	for radius := 0; radius <= r.cfg.SearchWindow; radius++ {
		if err := consider(guess - radius); err != nil {
			return 0, false, err
		}
		if radius != 0 {
			if err := consider(guess + radius); err != nil {
				return 0, false, err
			}
		}
	}

	return bestPos, bestPos >= 0, nil
}

// anchorAtPosition converts a document-order position in the target tree
// into an Anchor. If pos lands on an actual node, Target is that node and
// Base/Index are its parent/child-index. If pos is exactly past the end
// of the document, the anchor is the insert-only slot right after the last
// node in its parent's child list (or index 0 under it, if it is the root).
func (r *Resolver) anchorAtPosition(pos int) (Anchor, error) {
	if id, ok := r.idx.NodeAt(pos); ok {
		n, err := r.target.Node(id)
		if err != nil {
			return Anchor{}, err
		}
		return Anchor{Root: r.target, Base: n.Parent, Index: n.ChildIndex, Target: id}, nil
	}
	if pos == r.idx.Len() && pos > 0 {
		lastID, ok := r.idx.NodeAt(pos - 1)
		if !ok {
			return Anchor{}, newErr(KindResolutionFailed, "Resolver.anchorAtPosition", "empty target tree", nil)
		}
		ln, err := r.target.Node(lastID)
		if err != nil {
			return Anchor{}, err
		}
		if !ln.HasParent() {
			return Anchor{Root: r.target, Base: lastID, Index: 0, Target: InvalidNodeID}, nil
		}
		return Anchor{Root: r.target, Base: ln.Parent, Index: ln.ChildIndex + 1, Target: InvalidNodeID}, nil
	}
	return Anchor{}, newErr(KindResolutionFailed, "Resolver.anchorAtPosition", "position out of range", nil)
}
