package treedelta

// Matcher runs the XCC top-down/bottom-up tree matching algorithm over a
// pair of trees, producing a Matching (§4.E).
type Matcher struct {
	a, b *Tree
	ha   *HashIndex
	hb   *HashIndex
}

// NewMatcher returns a Matcher for the given trees and their hash indexes.
// ha and hb must already be usable (they memoize lazily, so they need not
// be pre-warmed).
func NewMatcher(a, b *Tree, ha, hb *HashIndex) *Matcher {
	return &Matcher{a: a, b: b, ha: ha, hb: hb}
}

// Match pairs the roots, then alternates top-down and bottom-up passes
// until neither makes further progress (§4.E).
func (m *Matcher) Match() (*Matching, error) {
	matching := NewMatching(m.a, m.b)
	if m.a.Root() == InvalidNodeID || m.b.Root() == InvalidNodeID {
		return nil, newErr(KindParameterError, "Matcher.Match", "both trees must have a root", nil)
	}
	if err := matching.PairRoots(); err != nil {
		return nil, err
	}

	for {
		progressTD, err := m.topDownPass(matching)
		if err != nil {
			return nil, err
		}
		progressBU, err := m.bottomUpPass(matching)
		if err != nil {
			return nil, err
		}
		if !progressTD && !progressBU {
			break
		}
	}
	return matching, nil
}

// topDownPass walks A in pre-order; for every unmatched node a whose
// parent is matched to some b, it searches b's children in order for the
// first unmatched b' with eqT(a, b'), and if found pairs every node of the
// two identical subtrees pairwise in document order (§4.E step 2).
func (m *Matcher) topDownPass(matching *Matching) (bool, error) {
	progress := false
	var walkErr error
	var walk func(idA NodeID)
	walk = func(idA NodeID) {
		if walkErr != nil {
			return
		}
		na, err := m.a.Node(idA)
		if err != nil {
			walkErr = err
			return
		}
		if !matching.IsMatchedA(idA) {
			if na.HasParent() {
				if parentB, ok := matching.PartnerOfA(na.Parent); ok {
					pb, err := m.b.Node(parentB)
					if err != nil {
						walkErr = err
						return
					}
					for _, candB := range pb.Children {
						if matching.IsMatchedB(candB) {
							continue
						}
						eq, err := m.subtreesEqual(idA, candB)
						if err != nil {
							walkErr = err
							return
						}
						if eq {
							if err := m.pairSubtrees(matching, idA, candB); err != nil {
								walkErr = err
								return
							}
							progress = true
							break
						}
					}
				}
			}
		}
		for _, c := range na.Children {
			walk(c)
		}
	}
	walk(m.a.Root())
	if walkErr != nil {
		return false, walkErr
	}
	return progress, nil
}

// bottomUpPass walks A in post-order; for every still-unmatched node a
// whose parent is matched, it greedy-matches against the unmatched
// children of the parent's B-side partner using node-level equality
// (§4.E step 3). Tie-break: earlier child index wins, which falls out of
// iterating pb.Children in order and taking the first hit.
func (m *Matcher) bottomUpPass(matching *Matching) (bool, error) {
	progress := false
	var walkErr error
	var walk func(idA NodeID)
	walk = func(idA NodeID) {
		if walkErr != nil {
			return
		}
		na, err := m.a.Node(idA)
		if err != nil {
			walkErr = err
			return
		}
		for _, c := range na.Children {
			walk(c)
		}
		if matching.IsMatchedA(idA) {
			return
		}
		if !na.HasParent() {
			return
		}
		parentB, ok := matching.PartnerOfA(na.Parent)
		if !ok {
			return
		}
		pb, err := m.b.Node(parentB)
		if err != nil {
			walkErr = err
			return
		}
		for _, candB := range pb.Children {
			if matching.IsMatchedB(candB) {
				continue
			}
			nb, err := m.b.Node(candB)
			if err != nil {
				walkErr = err
				return
			}
			if nodesEqualLocal(na, nb) {
				if err := matching.Pair(idA, candB); err != nil {
					walkErr = err
					return
				}
				progress = true
				break
			}
		}
	}
	walk(m.a.Root())
	if walkErr != nil {
		return false, walkErr
	}
	return progress, nil
}

// nodesEqualLocal is eqN: same local payload, ignoring children.
func nodesEqualLocal(a, b *Node) bool {
	if a.Kind != b.Kind || a.Value != b.Value {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if b.Attrs[k] != v {
			return false
		}
	}
	return true
}

// subtreesEqual is eqT: tree hashes must match AND a structural recheck
// in document order must confirm eqN pair-wise, defending against hash
// collisions (§4.E, §7 KindHashCollisionDetected).
func (m *Matcher) subtreesEqual(idA, idB NodeID) (bool, error) {
	ha, err := m.ha.TreeHash(idA)
	if err != nil {
		return false, err
	}
	hb, err := m.hb.TreeHash(idB)
	if err != nil {
		return false, err
	}
	if ha != hb {
		return false, nil
	}
	ok, err := m.structuralRecheck(idA, idB)
	if err != nil {
		return false, err
	}
	if !ok {
		// tree-hash collision: demoted internally to "not equal", never
		// surfaced as an error (§7 KindHashCollisionDetected).
		return false, nil
	}
	return true, nil
}

// structuralRecheck walks both subtrees in document order and confirms
// eqN holds at every corresponding position, and that both subtrees have
// the same shape (child counts match at every level).
func (m *Matcher) structuralRecheck(idA, idB NodeID) (bool, error) {
	na, err := m.a.Node(idA)
	if err != nil {
		return false, err
	}
	nb, err := m.b.Node(idB)
	if err != nil {
		return false, err
	}
	if !nodesEqualLocal(na, nb) {
		return false, nil
	}
	if len(na.Children) != len(nb.Children) {
		return false, nil
	}
	for i := range na.Children {
		ok, err := m.structuralRecheck(na.Children[i], nb.Children[i])
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// pairSubtrees pairs every node of two structurally-identical subtrees,
// zipping their document-order traversals.
func (m *Matcher) pairSubtrees(matching *Matching, idA, idB NodeID) error {
	na, err := m.a.Node(idA)
	if err != nil {
		return err
	}
	nb, err := m.b.Node(idB)
	if err != nil {
		return err
	}
	if err := matching.Pair(idA, idB); err != nil {
		return err
	}
	for i := range na.Children {
		if err := m.pairSubtrees(matching, na.Children[i], nb.Children[i]); err != nil {
			return err
		}
	}
	return nil
}
