package treedelta

import "testing"

func diffTrees(t *testing.T, a, b *Tree) []*DetachedContextOperation {
	t.Helper()
	ha := NewHashIndex(a, DefaultNodeHasher{})
	hb := NewHashIndex(b, DefaultNodeHasher{})
	matching, err := NewMatcher(a, b, ha, hb).Match()
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	idxA, _, err := BuildIndexes(a)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	fp := NewFingerprintFactory(a, idxA, ha, DefaultRadius)
	ops, err := NewEditor(a, b, matching, fp).ComputeOperations()
	if err != nil {
		t.Fatalf("ComputeOperations: %v", err)
	}
	return ops
}

// TestTextChange mirrors the worked scenario: A=["p","hello"], B=["p","world"].
func TestTextChange(t *testing.T) {
	a := NewTree()
	pA := a.NewNode(NodeKindElement, "p", nil)
	helloA := a.NewNode(NodeKindText, "hello", nil)
	_ = a.Append(pA, helloA)
	_ = a.SetRoot(pA)

	b := NewTree()
	pB := b.NewNode(NodeKindElement, "p", nil)
	worldB := b.NewNode(NodeKindText, "world", nil)
	_ = b.Append(pB, worldB)
	_ = b.SetRoot(pB)

	ops := diffTrees(t, a, b)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1: %+v", len(ops), ops)
	}
	op := ops[0]
	if op.Type != UpdateForest {
		t.Errorf("op.Type = %v, want UpdateForest", op.Type)
	}
	if len(op.Path) != 1 || op.Path[0] != 0 {
		t.Errorf("op.Path = %v, want [0]", op.Path)
	}
	if len(op.Remove) != 1 {
		t.Errorf("len(op.Remove) = %d, want 1", len(op.Remove))
	}
	if len(op.Insert) != 1 {
		t.Errorf("len(op.Insert) = %d, want 1", len(op.Insert))
	}
	for i, v := range op.Head {
		if v != 0 {
			t.Errorf("Head[%d] = %d, want 0 (no neighbors)", i, v)
		}
	}
	for i, v := range op.Tail {
		if v != 0 {
			t.Errorf("Tail[%d] = %d, want 0 (no neighbors)", i, v)
		}
	}
}

// TestInsertionBetweenSiblings mirrors the worked scenario:
// A=["ul",["li","a"],["li","c"]], B=["ul",["li","a"],["li","b"],["li","c"]].
func TestInsertionBetweenSiblings(t *testing.T) {
	a, _ := ulTree("a", "c")
	b, _ := ulTree("a", "b", "c")

	ops := diffTrees(t, a, b)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1: %+v", len(ops), ops)
	}
	op := ops[0]
	if op.Type != UpdateForest {
		t.Errorf("op.Type = %v, want UpdateForest", op.Type)
	}
	if len(op.Path) != 1 || op.Path[0] != 1 {
		t.Errorf("op.Path = %v, want [1]", op.Path)
	}
	if len(op.Remove) != 0 {
		t.Errorf("len(op.Remove) = %d, want 0", len(op.Remove))
	}
	if len(op.Insert) != 1 {
		t.Errorf("len(op.Insert) = %d, want 1", len(op.Insert))
	}

	// head covers <li>a</li> and its text child; tail covers <li>c</li>.
	nonZero := 0
	for _, v := range op.Head {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("expected a non-empty head fingerprint covering the preceding <li>a</li>")
	}
	nonZero = 0
	for _, v := range op.Tail {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("expected a non-empty tail fingerprint covering the following <li>c</li>")
	}
}

func TestNoOperationsForIdenticalTrees(t *testing.T) {
	a, _ := ulTree("a", "b", "c")
	b, _ := ulTree("a", "b", "c")
	ops := diffTrees(t, a, b)
	if len(ops) != 0 {
		t.Errorf("got %d ops for identical trees, want 0: %+v", len(ops), ops)
	}
}

func TestUpdateNodeWhenChildrenAlignButPayloadDiffers(t *testing.T) {
	a := NewTree()
	rootA := a.NewNode(NodeKindElement, "div", nil)
	_ = a.SetRoot(rootA)
	nodeA, _ := a.Node(rootA)
	nodeA.Attrs = map[string]string{"id": "1"}

	b := NewTree()
	rootB := b.NewNode(NodeKindElement, "div", nil)
	_ = b.SetRoot(rootB)
	nodeB, _ := b.Node(rootB)
	nodeB.Attrs = map[string]string{"id": "2"}

	ops := diffTrees(t, a, b)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1: %+v", len(ops), ops)
	}
	if ops[0].Type != UpdateNode {
		t.Errorf("op.Type = %v, want UpdateNode", ops[0].Type)
	}
	if len(ops[0].Path) != 0 {
		t.Errorf("op.Path = %v, want empty (root)", ops[0].Path)
	}
}
