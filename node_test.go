package treedelta

import "testing"

func buildSimpleTree(t *testing.T) (*Tree, NodeID, NodeID, NodeID) {
	t.Helper()
	tr := NewTree()
	root := tr.NewNode(NodeKindElement, "ul", nil)
	li1 := tr.NewNode(NodeKindElement, "li", nil)
	li2 := tr.NewNode(NodeKindElement, "li", nil)
	if err := tr.Append(root, li1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tr.Append(root, li2); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tr.SetRoot(root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	return tr, root, li1, li2
}

func TestTreeAppendSetsParentage(t *testing.T) {
	tr, root, li1, li2 := buildSimpleTree(t)

	n1, err := tr.Node(li1)
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if n1.Parent != root {
		t.Errorf("li1.Parent = %v, want %v", n1.Parent, root)
	}
	if n1.ChildIndex != 0 {
		t.Errorf("li1.ChildIndex = %d, want 0", n1.ChildIndex)
	}
	if n1.Depth != 1 {
		t.Errorf("li1.Depth = %d, want 1", n1.Depth)
	}

	n2, err := tr.Node(li2)
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if n2.ChildIndex != 1 {
		t.Errorf("li2.ChildIndex = %d, want 1", n2.ChildIndex)
	}
}

func TestTreeAppendRejectsReparenting(t *testing.T) {
	tr, root, li1, _ := buildSimpleTree(t)
	other := tr.NewNode(NodeKindElement, "div", nil)
	if err := tr.Append(other, li1); err == nil {
		t.Fatal("expected error re-parenting an already-parented node")
	}
	_ = root
}

func TestPathTo(t *testing.T) {
	tr, root, li1, li2 := buildSimpleTree(t)
	if p := tr.PathTo(root); len(p) != 0 {
		t.Errorf("root path = %v, want empty", p)
	}
	if p := tr.PathTo(li1); len(p) != 1 || p[0] != 0 {
		t.Errorf("li1 path = %v, want [0]", p)
	}
	if p := tr.PathTo(li2); len(p) != 1 || p[0] != 1 {
		t.Errorf("li2 path = %v, want [1]", p)
	}
}

func TestForEachOrder(t *testing.T) {
	tr, root, li1, li2 := buildSimpleTree(t)
	var pre []NodeID
	tr.ForEach(func(id NodeID) { pre = append(pre, id) })
	want := []NodeID{root, li1, li2}
	if len(pre) != len(want) {
		t.Fatalf("ForEach length = %d, want %d", len(pre), len(want))
	}
	for i := range want {
		if pre[i] != want[i] {
			t.Errorf("ForEach[%d] = %v, want %v", i, pre[i], want[i])
		}
	}

	var post []NodeID
	tr.ForEachPostorder(func(id NodeID) { post = append(post, id) })
	wantPost := []NodeID{li1, li2, root}
	for i := range wantPost {
		if post[i] != wantPost[i] {
			t.Errorf("ForEachPostorder[%d] = %v, want %v", i, post[i], wantPost[i])
		}
	}
}

func TestMatchingPairSymmetry(t *testing.T) {
	tr1, root1, _, _ := buildSimpleTree(t)
	tr2, root2, _, _ := buildSimpleTree(t)
	m := NewMatching(tr1, tr2)
	if err := m.PairRoots(); err != nil {
		t.Fatalf("PairRoots: %v", err)
	}
	b, ok := m.PartnerOfA(root1)
	if !ok || b != root2 {
		t.Errorf("PartnerOfA(root1) = (%v, %v), want (%v, true)", b, ok, root2)
	}
	a, ok := m.PartnerOfB(root2)
	if !ok || a != root1 {
		t.Errorf("PartnerOfB(root2) = (%v, %v), want (%v, true)", a, ok, root1)
	}
	if err := m.Pair(root1, root2); err == nil {
		t.Fatal("expected error re-pairing an already-matched node")
	}
	m.Unpair(root1)
	if m.IsMatchedA(root1) || m.IsMatchedB(root2) {
		t.Error("Unpair left the pair matched")
	}
}
