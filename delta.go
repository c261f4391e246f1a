package treedelta

// OperationType is the closed set of operation kinds a delta can contain
// (§3, §9 "represent as a tagged variant rather than subclassing").
type OperationType uint8

const (
	// UpdateNode replaces a matched node's own payload (its local value,
	// e.g. attributes or leaf text) without touching its children.
	UpdateNode OperationType = iota
	// UpdateForest replaces a contiguous run of siblings with another
	// forest — the vehicle for both deletes, inserts, and delete+insert
	// pairs standing in for a reorder (§1 Non-goals).
	UpdateForest
)

func (t OperationType) String() string {
	if t == UpdateNode {
		return "node"
	}
	return "forest"
}

// Fragment wraps a family-native payload — the adapter's own
// representation of a node or forest — so the core can carry remove/insert
// forests without ever interpreting their contents (§1: "the core is
// oblivious to wire syntax").
type Fragment struct {
	Payload interface{}
}

// DetachedContextOperation is a family-neutral edit anchored by a path and
// a pair of fingerprints rather than by a live tree position (§3).
type DetachedContextOperation struct {
	Type   OperationType
	Path   []int
	Remove []Fragment
	Insert []Fragment
	Head   []uint32
	Tail   []uint32
}

// Anchor identifies a position in a tree: either a node itself
// (Target==node, Base==parent, Index==childIndex) or a slot in a child
// list (Target==base.Children[index], possibly past the end) (§3).
type Anchor struct {
	Root   *Tree
	Base   NodeID
	Index  int
	Target NodeID
}

// AttachedOperation is a DetachedContextOperation bound to a concrete
// Anchor in a specific target tree (§3).
type AttachedOperation struct {
	Detached *DetachedContextOperation
	Anchor   Anchor
}

// Editor walks a Matching in post-order over tree A and emits the minimal
// sequence of DetachedContextOperations that turn A into B (§4.G).
type Editor struct {
	a, b *Tree
	m    *Matching
	fp   *FingerprintFactory
}

// NewEditor returns an Editor bound to a matching between a and b, using
// fp to compute head/tail fingerprints anchored in a's document order.
func NewEditor(a, b *Tree, m *Matching, fp *FingerprintFactory) *Editor {
	return &Editor{a: a, b: b, m: m, fp: fp}
}

// ComputeOperations walks the matching in post-order over A and returns
// the operation list.
func (ed *Editor) ComputeOperations() ([]*DetachedContextOperation, error) {
	var ops []*DetachedContextOperation
	var walkErr error
	var walk func(idA NodeID)
	walk = func(idA NodeID) {
		if walkErr != nil {
			return
		}
		na, err := ed.a.Node(idA)
		if err != nil {
			walkErr = err
			return
		}
		for _, c := range na.Children {
			walk(c)
		}
		if walkErr != nil {
			return
		}

		idB, matched := ed.m.PartnerOfA(idA)
		if !matched {
			return
		}

		forestOps, aligned, err := ed.diffChildren(idA, idB)
		if err != nil {
			walkErr = err
			return
		}
		ops = append(ops, forestOps...)

		if aligned {
			nb, err := ed.b.Node(idB)
			if err != nil {
				walkErr = err
				return
			}
			if !nodesEqualLocal(na, nb) {
				op, err := ed.makeUpdateNode(idA, idB)
				if err != nil {
					walkErr = err
					return
				}
				ops = append(ops, op)
			}
		}
	}
	walk(ed.a.Root())
	if walkErr != nil {
		return nil, walkErr
	}
	return ops, nil
}

// diffChildren computes, for one matched node pair, the forest operations
// needed to turn A's child list into B's, using the longest
// order-preserving run of matched pairs as the "stable" skeleton (§4.G,
// grounded on the teacher's LCS-based calcReorderDeltas). It also reports
// whether every child aligned 1:1 (needed by the caller to decide whether
// an UpdateNode is legal at this level).
func (ed *Editor) diffChildren(idA, idB NodeID) ([]*DetachedContextOperation, bool, error) {
	na, err := ed.a.Node(idA)
	if err != nil {
		return nil, false, err
	}
	nb, err := ed.b.Node(idB)
	if err != nil {
		return nil, false, err
	}
	childrenA := na.Children
	childrenB := nb.Children

	// Stable pairs: A-children matched to a B-child that is actually a
	// child of idB, forming an order-preserving (both-increasing)
	// subsequence — found with longestIncreasingByB below, not LCS.
	var candidates []childPair
	bIndexOf := map[NodeID]int{}
	for i, c := range childrenB {
		bIndexOf[c] = i
	}
	for ai, c := range childrenA {
		if bID, ok := ed.m.PartnerOfA(c); ok {
			if bi, ok := bIndexOf[bID]; ok {
				candidates = append(candidates, childPair{ai, bi})
			}
		}
	}

	// Longest increasing subsequence of candidates by bi, stepping through
	// candidates in ai order (candidates is already sorted by ai since we
	// built it by scanning childrenA in order): the selected pairs are the
	// stable skeleton, kept in their shared relative order on both sides.
	var selected []childPair
	if len(candidates) > 0 {
		lis := longestIncreasingByB(candidates)
		selected = make([]childPair, len(lis))
		for i, idx := range lis {
			selected[i] = candidates[idx]
		}
	}

	aligned := len(selected) == len(childrenA) && len(selected) == len(childrenB)

	// Walk the gaps between consecutive selected pairs (and before the
	// first / after the last): each gap is a maximal run of A-children not
	// part of the stable skeleton paired with the corresponding run of
	// B-children, anchored right after the previous stable A-index. Two
	// stable pairs adjacent in the skeleton need not be adjacent in either
	// child list — the gap they bound can be non-empty on one side and
	// empty on the other.
	var ops []*DetachedContextOperation
	prevA, prevB := -1, -1
	emitGap := func(endA, endB int) error {
		if endA <= prevA+1 && endB <= prevB+1 {
			return nil
		}
		op, err := ed.makeUpdateForest(idA, idB, childrenA[prevA+1:endA], childrenB[prevB+1:endB], prevA+1)
		if err != nil {
			return err
		}
		if op != nil {
			ops = append(ops, op)
		}
		return nil
	}
	for _, p := range selected {
		if err := emitGap(p.ai, p.bi); err != nil {
			return nil, false, err
		}
		prevA, prevB = p.ai, p.bi
	}
	if err := emitGap(len(childrenA), len(childrenB)); err != nil {
		return nil, false, err
	}

	return ops, aligned, nil
}

// childPair is an (A-child index, B-child index) pair matched by the
// tree matcher, used while aligning one level of children.
type childPair struct{ ai, bi int }

// longestIncreasingByB returns the index set (into candidates) of the
// longest subsequence whose bi values are strictly increasing; candidates
// is already ordered by ai. This is the per-children-list analogue of
// §4.F's LCS-based reorder detection.
func longestIncreasingByB(candidates []childPair) []int {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	tails := []int{}   // tails[k] = index into candidates of smallest tail value for length k+1
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}
	for i, c := range candidates {
		// binary search tails for first element >= c.bi
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if candidates[tails[mid]].bi < c.bi {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	if len(tails) == 0 {
		return nil
	}
	var seq []int
	for i := tails[len(tails)-1]; i != -1; i = prev[i] {
		seq = append(seq, i)
	}
	for l, r := 0, len(seq)-1; l < r; l, r = l+1, r-1 {
		seq[l], seq[r] = seq[r], seq[l]
	}
	return seq
}

// makeUpdateForest builds an UPDATE_FOREST operation removing removeIDs
// (A-side) and inserting insertIDs (B-side) at the slot (idA, index).
func (ed *Editor) makeUpdateForest(idA, idB NodeID, removeIDs, insertIDs []NodeID, index int) (*DetachedContextOperation, error) {
	if len(removeIDs) == 0 && len(insertIDs) == 0 {
		return nil, nil
	}
	path := append(ed.a.PathTo(idA), index)

	remove := make([]Fragment, len(removeIDs))
	for i, id := range removeIDs {
		remove[i] = Fragment{Payload: mustNode(ed.a, id).Payload}
	}
	insert := make([]Fragment, len(insertIDs))
	for i, id := range insertIDs {
		insert[i] = Fragment{Payload: mustNode(ed.b, id).Payload}
	}

	head, tail, err := ed.fp.FingerprintAtSlot(idA, index)
	if err != nil {
		return nil, err
	}

	return &DetachedContextOperation{
		Type:   UpdateForest,
		Path:   path,
		Remove: remove,
		Insert: insert,
		Head:   head,
		Tail:   tail,
	}, nil
}

// makeUpdateNode builds an UPDATE_NODE operation replacing idA's own
// payload with idB's.
func (ed *Editor) makeUpdateNode(idA, idB NodeID) (*DetachedContextOperation, error) {
	path := ed.a.PathTo(idA)
	head, tail, err := ed.fp.FingerprintAtNode(idA)
	if err != nil {
		return nil, err
	}
	return &DetachedContextOperation{
		Type:   UpdateNode,
		Path:   path,
		Remove: []Fragment{{Payload: mustNode(ed.a, idA).Payload}},
		Insert: []Fragment{{Payload: mustNode(ed.b, idB).Payload}},
		Head:   head,
		Tail:   tail,
	}, nil
}

func mustNode(t *Tree, id NodeID) *Node {
	n, err := t.Node(id)
	if err != nil {
		// Node IDs passed here always come from a child list we just
		// walked, so this can only happen on a programming error.
		panic(err)
	}
	return n
}
