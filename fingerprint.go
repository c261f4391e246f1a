package treedelta

// FingerprintFactory builds head/tail context hashes around an anchor
// node, configured with a DocumentOrderIndex over the source tree and a
// radius k (§4.H).
type FingerprintFactory struct {
	tree   *Tree
	idx    *DocumentOrderIndex
	hashes *HashIndex
	radius int
}

// NewFingerprintFactory returns a factory anchored to idx/hashes, which
// must already be built over the same tree.
func NewFingerprintFactory(tree *Tree, idx *DocumentOrderIndex, hashes *HashIndex, radius int) *FingerprintFactory {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &FingerprintFactory{tree: tree, idx: idx, hashes: hashes, radius: radius}
}

// Fingerprint returns the head/tail arrays for the anchor at document-order
// position pos: head is the k node hashes preceding pos, tail is the k
// node hashes starting at pos. Missing positions (before the start or past
// the end of the document) are zero.
func (f *FingerprintFactory) Fingerprint(pos int) ([]uint32, []uint32, error) {
	head := make([]uint32, f.radius)
	tail := make([]uint32, f.radius)
	for i := 0; i < f.radius; i++ {
		if id, ok := f.idx.NodeAt(pos - f.radius + i); ok {
			h, err := f.hashes.NodeHash(id)
			if err != nil {
				return nil, nil, err
			}
			head[i] = h
		}
	}
	for i := 0; i < f.radius; i++ {
		if id, ok := f.idx.NodeAt(pos + i); ok {
			h, err := f.hashes.NodeHash(id)
			if err != nil {
				return nil, nil, err
			}
			tail[i] = h
		}
	}
	return head, tail, nil
}

// NodeHashAt returns the single node hash at document-order position pos,
// used by the resolver's skeleton-match guess refinement (§4.F), which
// needs individual node labels rather than a full head/tail fingerprint.
func (f *FingerprintFactory) NodeHashAt(pos int) (uint32, bool, error) {
	id, ok := f.idx.NodeAt(pos)
	if !ok {
		return 0, false, nil
	}
	h, err := f.hashes.NodeHash(id)
	if err != nil {
		return 0, false, err
	}
	return h, true, nil
}

// FingerprintAtNode returns the fingerprint anchored at a node that
// exists in the tree (used for UPDATE_NODE operations).
func (f *FingerprintFactory) FingerprintAtNode(id NodeID) ([]uint32, []uint32, error) {
	pos, ok := f.idx.PositionOf(id)
	if !ok {
		return nil, nil, newErr(KindParameterError, "FingerprintFactory.FingerprintAtNode", "node not present in document-order index", nil)
	}
	return f.Fingerprint(pos)
}

// FingerprintAtSlot returns the fingerprint anchored at the slot before
// child `index` of parent, the anchor convention for UPDATE_FOREST
// operations. If index is within range, the slot's position is the
// indexed child's document-order position; if index is at or past the end
// of parent's children, the slot is anchored just after the last
// descendant of parent's preceding child (or right after parent itself,
// if index==0 and parent has no children left).
func (f *FingerprintFactory) FingerprintAtSlot(parent NodeID, index int) ([]uint32, []uint32, error) {
	pos, err := f.slotPosition(parent, index)
	if err != nil {
		return nil, nil, err
	}
	return f.Fingerprint(pos)
}

func (f *FingerprintFactory) slotPosition(parent NodeID, index int) (int, error) {
	return slotPosition(f.tree, f.idx, parent, index)
}

// slotPosition computes the document-order position of the slot before
// child `index` of parent: the indexed child's own position if index is
// in range, or the position just past parent's last descendant (or just
// past parent itself, if childless) when index is at or beyond the end of
// parent's children. Shared by the fingerprint factory (source tree) and
// the resolver's fast path (target tree).
func slotPosition(tree *Tree, idx *DocumentOrderIndex, parent NodeID, index int) (int, error) {
	n, err := tree.Node(parent)
	if err != nil {
		return 0, err
	}
	if index >= 0 && index < len(n.Children) {
		pos, ok := idx.PositionOf(n.Children[index])
		if !ok {
			return 0, newErr(KindInvalidTree, "slotPosition", "child not present in document-order index", nil)
		}
		return pos, nil
	}
	if len(n.Children) == 0 {
		pos, ok := idx.PositionOf(parent)
		if !ok {
			return 0, newErr(KindInvalidTree, "slotPosition", "parent not present in document-order index", nil)
		}
		return pos + 1, nil
	}
	last := n.Children[len(n.Children)-1]
	pos, ok := idx.PositionOf(last)
	if !ok {
		return 0, newErr(KindInvalidTree, "slotPosition", "child not present in document-order index", nil)
	}
	return pos + idx.Size(last), nil
}

// FormatFingerprint serializes a fingerprint array as the wire format
// calls for: semicolon-separated lowercase hex, with an empty entry
// standing in for zero (§4.H, §6).
func FormatFingerprint(fp []uint32) string {
	out := make([]byte, 0, len(fp)*9)
	for i, v := range fp {
		if i > 0 {
			out = append(out, ';')
		}
		if v != 0 {
			out = append(out, []byte(formatHex(v))...)
		}
	}
	return string(out)
}

func formatHex(v uint32) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// ParseFingerprint parses the wire format produced by FormatFingerprint.
// Every entry, including an empty one, yields one value, so "" parses to
// a single zero entry.
func ParseFingerprint(s string) ([]uint32, error) {
	var out []uint32
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ';' {
			entry := s[start:i]
			if entry == "" {
				out = append(out, 0)
			} else {
				v, err := parseHex(entry)
				if err != nil {
					return nil, newErr(KindParameterError, "ParseFingerprint", "invalid hex entry", err)
				}
				out = append(out, v)
			}
			start = i + 1
		}
	}
	return out, nil
}

func parseHex(s string) (uint32, error) {
	var v uint32
	for _, c := range s {
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		default:
			return 0, newErr(KindParameterError, "parseHex", "invalid hex digit", nil)
		}
		v = v<<4 | d
	}
	return v, nil
}
