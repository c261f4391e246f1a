package treedelta

// NodeID is a stable index into a Tree's arena. Trees never reuse an ID
// for a different node, and parent/partner relationships are expressed as
// external maps keyed by NodeID rather than as pointers inside Node (§9
// design notes: "express parent/partner as index maps external to the
// node, avoiding cycles through the ownership graph").
type NodeID int

// InvalidNodeID marks the absence of a node, e.g. a root's parent.
const InvalidNodeID NodeID = -1

// NodeKind classifies a Node the way the per-family hashing protocol
// (§4.C) expects: an Element may carry children and Attrs, an Attribute
// is a key/value pair hung off an Element, and Text is a scalar leaf.
type NodeKind uint8

const (
	NodeKindElement NodeKind = iota
	NodeKindAttribute
	NodeKindText
)

// Node is an entity with an opaque payload reference, a value string used
// for equality/hashing, an ordered list of children, and derived
// depth/parent/childIndex fields (§3).
type Node struct {
	ID      NodeID
	Kind    NodeKind
	Value   string
	Attrs   map[string]string // present for attribute-bearing elements
	Payload interface{}       // the original document element this node represents

	Parent     NodeID
	ChildIndex int
	Depth      int
	Children   []NodeID
}

// HasParent reports whether this node has been appended under another.
func (n *Node) HasParent() bool { return n.Parent != InvalidNodeID }

// Tree is an owning arena of Nodes built once by a tree adapter and not
// mutated during diffing (§3 Lifecycle). Append is the only mutator;
// generation increments on every Append so that indexes built over this
// tree can detect staleness (§4.A).
type Tree struct {
	nodes      []*Node
	root       NodeID
	generation int
}

// NewTree returns an empty arena with no root set yet.
func NewTree() *Tree {
	return &Tree{root: InvalidNodeID}
}

// NewNode allocates a new, unparented node in the arena and returns its ID.
func (t *Tree) NewNode(kind NodeKind, value string, payload interface{}) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		ID:      id,
		Kind:    kind,
		Value:   value,
		Payload: payload,
		Parent:  InvalidNodeID,
	})
	return id
}

// SetRoot designates id as this tree's root. It does not change id's
// parent (the root has none) or depth (0).
func (t *Tree) SetRoot(id NodeID) error {
	if err := t.checkID("Tree.SetRoot", id); err != nil {
		return err
	}
	t.root = id
	t.nodes[id].Depth = 0
	return nil
}

// Root returns the tree's root NodeID, or InvalidNodeID if none is set.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes allocated in the arena (independent of
// how many have actually been attached under the root).
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) checkID(op string, id NodeID) error {
	if id < 0 || int(id) >= len(t.nodes) {
		return newErr(KindParameterError, op, "node id out of range", nil)
	}
	return nil
}

// Node returns the node at id.
func (t *Tree) Node(id NodeID) (*Node, error) {
	if err := t.checkID("Tree.Node", id); err != nil {
		return nil, err
	}
	return t.nodes[id], nil
}

// Append makes child the next (last) child of parent. It is O(1) and
// fails if child already has a parent — invariant (iii): a node has at
// most one parent, and re-parenting attempts must fail (§3).
func (t *Tree) Append(parent, child NodeID) error {
	if err := t.checkID("Tree.Append", parent); err != nil {
		return err
	}
	if err := t.checkID("Tree.Append", child); err != nil {
		return err
	}
	cn := t.nodes[child]
	if cn.HasParent() {
		return newErr(KindParameterError, "Tree.Append", "child already has a parent", nil)
	}
	pn := t.nodes[parent]
	cn.Parent = parent
	cn.ChildIndex = len(pn.Children)
	cn.Depth = pn.Depth + 1
	pn.Children = append(pn.Children, child)
	t.generation++
	return nil
}

// ForEach visits every node reachable from root in pre-order (children in
// stored order), the same deterministic traversal order the teacher's
// walk uses.
func (t *Tree) ForEach(fn func(id NodeID)) {
	if t.root == InvalidNodeID {
		return
	}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		fn(id)
		for _, c := range t.nodes[id].Children {
			walk(c)
		}
	}
	walk(t.root)
}

// ForEachPostorder visits every node reachable from root in post-order:
// children before the node itself.
func (t *Tree) ForEachPostorder(fn func(id NodeID)) {
	if t.root == InvalidNodeID {
		return
	}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		for _, c := range t.nodes[id].Children {
			walk(c)
		}
		fn(id)
	}
	walk(t.root)
}

// PathTo returns the sequence of child indices from the root down to and
// including id's own slot. The root's path is empty.
func (t *Tree) PathTo(id NodeID) []int {
	var path []int
	n := t.nodes[id]
	for n.HasParent() {
		path = append([]int{n.ChildIndex}, path...)
		n = t.nodes[n.Parent]
	}
	return path
}

// Matching is a symmetric bijection over nodes of tree A and tree B: if
// Partner(a)=b then Partner(b)=a (§3). It is bound to the two trees it was
// built from; callers never pair nodes from any other tree through it.
type Matching struct {
	a, b *Tree
	ab   map[NodeID]NodeID
	ba   map[NodeID]NodeID
}

// NewMatching returns an empty matching over the given trees.
func NewMatching(a, b *Tree) *Matching {
	return &Matching{a: a, b: b, ab: map[NodeID]NodeID{}, ba: map[NodeID]NodeID{}}
}

// PairRoots pairs the two trees' roots unconditionally, the first step of
// XCC matching (§4.E step 1).
func (m *Matching) PairRoots() error {
	return m.Pair(m.a.Root(), m.b.Root())
}

// Pair inserts the pair (a,b). It fails if either element already has a
// partner.
func (m *Matching) Pair(a, b NodeID) error {
	if _, ok := m.ab[a]; ok {
		return newErr(KindParameterError, "Matching.Pair", "a-side node already matched", nil)
	}
	if _, ok := m.ba[b]; ok {
		return newErr(KindParameterError, "Matching.Pair", "b-side node already matched", nil)
	}
	m.ab[a] = b
	m.ba[b] = a
	return nil
}

// Unpair removes the pairing for a (looked up on the A side) if one
// exists. It is a no-op if a is unmatched.
func (m *Matching) Unpair(a NodeID) {
	if b, ok := m.ab[a]; ok {
		delete(m.ab, a)
		delete(m.ba, b)
	}
}

// PartnerOfA returns a's partner in tree B, if matched.
func (m *Matching) PartnerOfA(a NodeID) (NodeID, bool) {
	b, ok := m.ab[a]
	return b, ok
}

// PartnerOfB returns b's partner in tree A, if matched.
func (m *Matching) PartnerOfB(b NodeID) (NodeID, bool) {
	a, ok := m.ba[b]
	return a, ok
}

// IsMatchedA reports whether a has a partner.
func (m *Matching) IsMatchedA(a NodeID) bool {
	_, ok := m.ab[a]
	return ok
}

// IsMatchedB reports whether b has a partner.
func (m *Matching) IsMatchedB(b NodeID) bool {
	_, ok := m.ba[b]
	return ok
}

// Len returns the number of matched pairs.
func (m *Matching) Len() int { return len(m.ab) }
