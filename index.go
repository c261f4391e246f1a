package treedelta

import "golang.org/x/sync/errgroup"

// DocumentOrderIndex is an injective sequence of all nodes of a tree in
// pre-order, plus a cached position per node (§3). Indexes never own
// nodes; they are built once and must not be queried after the tree they
// index has mutated (§4.A, Open Question i).
type DocumentOrderIndex struct {
	tree     *Tree
	order    []NodeID
	pos      map[NodeID]int
	subtree  map[NodeID]int // subtree node count, keyed by subtree root
	built    bool
	buildGen int
}

// NewDocumentOrderIndex returns an unbuilt index over t.
func NewDocumentOrderIndex(t *Tree) *DocumentOrderIndex {
	return &DocumentOrderIndex{tree: t}
}

// BuildAll populates the sequence with a single pre-order walk. Once
// built, further mutation of the tree invalidates the index: callers must
// not mutate an indexed tree and keep using the index.
func (idx *DocumentOrderIndex) BuildAll() error {
	idx.order = idx.order[:0]
	idx.pos = map[NodeID]int{}
	idx.subtree = map[NodeID]int{}
	idx.tree.ForEach(func(id NodeID) {
		idx.pos[id] = len(idx.order)
		idx.order = append(idx.order, id)
	})
	// subtree sizes via a postorder pass
	idx.tree.ForEachPostorder(func(id NodeID) {
		n, err := idx.tree.Node(id)
		if err != nil {
			return
		}
		size := 1
		for _, c := range n.Children {
			size += idx.subtree[c]
		}
		idx.subtree[id] = size
	})
	idx.built = true
	idx.buildGen = idx.tree.generation
	return nil
}

func (idx *DocumentOrderIndex) stale() bool {
	return !idx.built || idx.tree.generation != idx.buildGen
}

// Len returns the number of nodes recorded in document order.
func (idx *DocumentOrderIndex) Len() int { return len(idx.order) }

// PositionOf returns ref's position in document order.
func (idx *DocumentOrderIndex) PositionOf(ref NodeID) (int, bool) {
	if idx.stale() {
		return 0, false
	}
	p, ok := idx.pos[ref]
	return p, ok
}

// NodeAt returns the node at document-order position pos.
func (idx *DocumentOrderIndex) NodeAt(pos int) (NodeID, bool) {
	if idx.stale() || pos < 0 || pos >= len(idx.order) {
		return InvalidNodeID, false
	}
	return idx.order[pos], true
}

// Get returns the node offset positions away from ref in document order,
// or (_, false) if out of bounds.
func (idx *DocumentOrderIndex) Get(ref NodeID, offset int) (NodeID, bool) {
	p, ok := idx.PositionOf(ref)
	if !ok {
		return InvalidNodeID, false
	}
	return idx.NodeAt(p + offset)
}

// Size returns the node count of the subtree rooted at ref.
func (idx *DocumentOrderIndex) Size(ref NodeID) int {
	if idx.stale() {
		return 0
	}
	return idx.subtree[ref]
}

// GenerationIndex holds, per depth, the nodes of a tree in document order
// within that depth (§3). It supports locating siblings-at-a-distance
// within a generation without re-walking the whole tree.
type GenerationIndex struct {
	tree       *Tree
	perDepth   [][]NodeID
	posInDepth map[NodeID]int
	depthOf    map[NodeID]int
	built      bool
	buildGen   int
}

// NewGenerationIndex returns an unbuilt per-depth index over t.
func NewGenerationIndex(t *Tree) *GenerationIndex {
	return &GenerationIndex{tree: t}
}

// BuildAll populates the per-depth arrays with a single pre-order walk.
func (g *GenerationIndex) BuildAll() error {
	g.perDepth = nil
	g.posInDepth = map[NodeID]int{}
	g.depthOf = map[NodeID]int{}
	g.tree.ForEach(func(id NodeID) {
		n, err := g.tree.Node(id)
		if err != nil {
			return
		}
		for len(g.perDepth) <= n.Depth {
			g.perDepth = append(g.perDepth, nil)
		}
		g.posInDepth[id] = len(g.perDepth[n.Depth])
		g.depthOf[id] = n.Depth
		g.perDepth[n.Depth] = append(g.perDepth[n.Depth], id)
	})
	g.built = true
	g.buildGen = g.tree.generation
	return nil
}

func (g *GenerationIndex) stale() bool {
	return !g.built || g.tree.generation != g.buildGen
}

// First returns the first node (in document order) at depth.
func (g *GenerationIndex) First(depth int) (NodeID, bool) {
	if g.stale() || depth < 0 || depth >= len(g.perDepth) || len(g.perDepth[depth]) == 0 {
		return InvalidNodeID, false
	}
	return g.perDepth[depth][0], true
}

// Last returns the last node (in document order) at depth.
func (g *GenerationIndex) Last(depth int) (NodeID, bool) {
	if g.stale() || depth < 0 || depth >= len(g.perDepth) || len(g.perDepth[depth]) == 0 {
		return InvalidNodeID, false
	}
	row := g.perDepth[depth]
	return row[len(row)-1], true
}

// Get returns the node offset positions away from ref within ref's own
// depth.
func (g *GenerationIndex) Get(ref NodeID, offset int) (NodeID, bool) {
	if g.stale() {
		return InvalidNodeID, false
	}
	depth, ok := g.depthOf[ref]
	if !ok {
		return InvalidNodeID, false
	}
	pos, ok := g.posInDepth[ref]
	if !ok {
		return InvalidNodeID, false
	}
	row := g.perDepth[depth]
	p := pos + offset
	if p < 0 || p >= len(row) {
		return InvalidNodeID, false
	}
	return row[p], true
}

// BuildIndexes builds a DocumentOrderIndex and a GenerationIndex over t
// concurrently, the two independent walks the teacher ran as raw
// goroutines over a WaitGroup (tree.go's prepTrees); here an errgroup
// collects both builds' results. Neither BuildAll returns a non-nil
// error: a node lookup that fails during the walk is skipped, not
// reported.
func BuildIndexes(t *Tree) (*DocumentOrderIndex, *GenerationIndex, error) {
	doc := NewDocumentOrderIndex(t)
	gen := NewGenerationIndex(t)

	var g errgroup.Group
	g.Go(doc.BuildAll)
	g.Go(gen.BuildAll)
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return doc, gen, nil
}

// ExtendGeneration would grow a single depth's row in place without a
// full rebuild. The source this module is grounded on leaves the
// equivalent dynamic-index code paths unimplemented; per §9 Open Question
// i this spec treats all indexes as built eagerly and rejects post-build
// mutation, so ExtendGeneration is intentionally a permanent UnsupportedType
// rather than a TODO to fill in later.
func (g *GenerationIndex) ExtendGeneration(depth int) error {
	return newErr(KindUnsupportedType, "GenerationIndex.ExtendGeneration", "dynamic index extension is not supported; rebuild with BuildAll", nil)
}
