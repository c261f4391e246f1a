package treedelta

import "sort"

// FNV-1a 32-bit constants, per §4.C.
const (
	fnvOffset32 uint32 = 0x811C9DC5
	fnvPrime32  uint32 = 0x01000193
)

// Canonical 4-byte kind prefixes fed into the hash ahead of a node's
// payload bytes, followed by a 2-byte separator. These are the same
// prefixes every tree adapter uses so that hashes computed for the same
// logical content are stable across families that share a Kind.
var (
	prefixElement   = [4]byte{0x00, 0x00, 0x00, 0x01}
	prefixAttribute = [4]byte{0x00, 0x00, 0x00, 0x02}
	prefixText      = [4]byte{0x00, 0x00, 0x00, 0x03}
	separatorBytes  = [2]byte{0x00, 0x00}
)

// FNV1a is a 32-bit FNV-1a implementation that consumes byte sequences
// incrementally. It is not cryptographic; collisions are accepted and
// broken by structural rechecks during matching and resolution.
type FNV1a struct {
	h uint32
}

// NewFNV1a returns a fresh hash seeded at the FNV-1a 32-bit offset basis.
func NewFNV1a() *FNV1a {
	return &FNV1a{h: fnvOffset32}
}

// Update folds b into the running hash, one byte at a time per FNV-1a.
func (f *FNV1a) Update(b []byte) {
	for _, c := range b {
		f.h ^= uint32(c)
		f.h *= fnvPrime32
	}
}

// Get returns the current hash value.
func (f *FNV1a) Get() uint32 {
	return f.h
}

// NodeHasher computes a node's local hash from its Kind, Value, and
// Attrs, ignoring children. It is the "per-family node hashing protocol"
// of §4.C; the protocol itself is canonical (fixed prefixes, sorted
// attribute keys), so DefaultNodeHasher below is what every bundled
// adapter uses — a family only needs to populate Kind/Value/Attrs
// correctly, not reimplement hashing.
type NodeHasher interface {
	HashNode(n *Node) uint32
}

// DefaultNodeHasher implements the canonical per-family node hashing
// protocol described in §4.C.
type DefaultNodeHasher struct{}

// HashNode feeds the node's 4-byte kind prefix, its payload bytes
// (attributes in ascending key order for ATTRIBUTE-bearing elements, then
// the node's value), and a 2-byte separator into a fresh FNV-1a.
func (DefaultNodeHasher) HashNode(n *Node) uint32 {
	h := NewFNV1a()
	switch n.Kind {
	case NodeKindElement:
		h.Update(prefixElement[:])
	case NodeKindAttribute:
		h.Update(prefixAttribute[:])
	case NodeKindText:
		h.Update(prefixText[:])
	}

	if len(n.Attrs) > 0 {
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Update([]byte(k))
			h.Update([]byte(n.Attrs[k]))
		}
	}
	h.Update([]byte(n.Value))
	h.Update(separatorBytes[:])
	return h.Get()
}

// HashIndex memoizes per-node and per-subtree hashes for one tree. It is
// owned externally to Node (§9 design notes: "prefer an external cache
// keyed by node index... owned by the index object itself") so that Node
// stays immutable post-construction.
type HashIndex struct {
	tree     *Tree
	hasher   NodeHasher
	buildGen int
	nodeHash map[NodeID]uint32
	treeHash map[NodeID]uint32
}

// NewHashIndex builds a hash cache over t using hasher to compute each
// node's local hash.
func NewHashIndex(t *Tree, hasher NodeHasher) *HashIndex {
	if hasher == nil {
		hasher = DefaultNodeHasher{}
	}
	return &HashIndex{
		tree:     t,
		hasher:   hasher,
		buildGen: t.generation,
		nodeHash: map[NodeID]uint32{},
		treeHash: map[NodeID]uint32{},
	}
}

// stale reports whether the underlying tree has mutated since this index
// was built, which invalidates every memoized entry (§4.A, Open Question i:
// indexes are built eagerly and reject post-build mutation).
func (h *HashIndex) stale() bool {
	return h.tree.generation != h.buildGen
}

// NodeHash returns the memoized local hash of id, computing and caching it
// on first access.
func (h *HashIndex) NodeHash(id NodeID) (uint32, error) {
	if h.stale() {
		return 0, newErr(KindInvalidTree, "HashIndex.NodeHash", "tree mutated after index build", nil)
	}
	if v, ok := h.nodeHash[id]; ok {
		return v, nil
	}
	n, err := h.tree.Node(id)
	if err != nil {
		return 0, err
	}
	v := h.hasher.HashNode(n)
	h.nodeHash[id] = v
	return v, nil
}

// TreeHash returns the memoized subtree hash of id: the FNV-1a of the
// concatenation of node hashes of its subtree in document order.
func (h *HashIndex) TreeHash(id NodeID) (uint32, error) {
	if h.stale() {
		return 0, newErr(KindInvalidTree, "HashIndex.TreeHash", "tree mutated after index build", nil)
	}
	if v, ok := h.treeHash[id]; ok {
		return v, nil
	}
	if _, err := h.tree.Node(id); err != nil {
		return 0, err
	}
	fnv := NewFNV1a()
	var walk func(cur NodeID) error
	walk = func(cur NodeID) error {
		nh, err := h.NodeHash(cur)
		if err != nil {
			return err
		}
		fnv.Update(uint32Bytes(nh))
		curNode, err := h.tree.Node(cur)
		if err != nil {
			return err
		}
		for _, ch := range curNode.Children {
			if err := walk(ch); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(id); err != nil {
		return 0, err
	}
	v := fnv.Get()
	h.treeHash[id] = v
	return v, nil
}

func uint32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
