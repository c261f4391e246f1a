package treedelta

import "testing"

// TestResolveContextBasedResolution mirrors the worked scenario: the patch
// from A=["ul",["li","a"],["li","c"]] → B=["ul",["li","a"],["li","b"],["li","c"]]
// is resolved against A'=["ul",["li","a"],["li","c"],["li","d"]]; the
// resolver should anchor at index 1 (head matches exactly, tail matches
// partially) despite A' having drifted from A.
func TestResolveContextBasedResolution(t *testing.T) {
	a, _ := ulTree("a", "c")
	b, _ := ulTree("a", "b", "c")
	ops := diffTrees(t, a, b)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	op := ops[0]

	target, targetRoot := ulTree("a", "c", "d")
	idx, _, err := BuildIndexes(target)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := NewHashIndex(target, DefaultNodeHasher{})
	fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
	resolver := NewResolver(target, idx, fp, ResolveConfig{})

	anchor, err := resolver.Resolve(op)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if anchor.Base != targetRoot {
		t.Errorf("anchor.Base = %v, want %v", anchor.Base, targetRoot)
	}
	if anchor.Index != 1 {
		t.Errorf("anchor.Index = %d, want 1", anchor.Index)
	}
}

func TestResolveFastPathWhenUnchanged(t *testing.T) {
	a, _ := ulTree("a", "c")
	b, _ := ulTree("a", "b", "c")
	ops := diffTrees(t, a, b)
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	op := ops[0]

	// Target identical to A: the fast path (path + strict match) should
	// succeed directly, without needing the windowed search at all.
	target, targetRoot := ulTree("a", "c")
	idx, _, err := BuildIndexes(target)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := NewHashIndex(target, DefaultNodeHasher{})
	fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
	resolver := NewResolver(target, idx, fp, ResolveConfig{})

	anchor, err := resolver.Resolve(op)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if anchor.Base != targetRoot || anchor.Index != 1 {
		t.Errorf("anchor = %+v, want Base=%v Index=1", anchor, targetRoot)
	}
}

// flatTextTree builds a root with one distinctly-valued text child per
// entry in values, so every node's hash is unique and a skeleton match
// over the resulting label sequence has exactly one optimal alignment.
func flatTextTree(values ...string) *Tree {
	tr := NewTree()
	root := tr.NewNode(NodeKindElement, "root", nil)
	for _, v := range values {
		child := tr.NewNode(NodeKindText, v, nil)
		_ = tr.Append(root, child)
	}
	_ = tr.SetRoot(root)
	return tr
}

func TestSkelmatchGuessLocalizesFromAPoorInitialGuess(t *testing.T) {
	target := flatTextTree("0", "1", "2", "3", "4", "5", "6", "7", "8", "9")
	idx, _, err := BuildIndexes(target)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := NewHashIndex(target, DefaultNodeHasher{})
	fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
	resolver := NewResolver(target, idx, fp, ResolveConfig{SearchWindow: 32})

	const truePos = 6 // document-order position of the "5" leaf
	head, tail, err := fp.Fingerprint(truePos)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	guess, err := resolver.skelmatchGuess(0, head, tail)
	if err != nil {
		t.Fatalf("skelmatchGuess: %v", err)
	}
	if guess != truePos {
		t.Errorf("skelmatchGuess from a guess of 0 = %d, want %d", guess, truePos)
	}
}

func TestResolveRejectsZeroSignalCandidateWhenRemoving(t *testing.T) {
	target, _ := ulTree("p", "q", "r")
	idx, _, err := BuildIndexes(target)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := NewHashIndex(target, DefaultNodeHasher{})
	fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
	resolver := NewResolver(target, idx, fp, ResolveConfig{SearchWindow: 8})

	// A drifted remove with no surrounding context at all: path[0] is out
	// of range so the fast path fails outright, and an all-zero head/tail
	// carries no signal for the windowed search to confirm against. Every
	// candidate in target vacuously meets ContextScore.MeetsThreshold, so
	// without the zero-signal guard this would anchor to an arbitrary
	// nearby position instead of failing.
	op := &DetachedContextOperation{
		Type:   UpdateForest,
		Path:   []int{5, 0},
		Remove: []Fragment{{Payload: "gone"}},
		Head:   make([]uint32, DefaultRadius),
		Tail:   make([]uint32, DefaultRadius),
	}

	if _, err := resolver.Resolve(op); KindOf(err) != KindResolutionFailed {
		t.Errorf("Resolve err = %v, want KindResolutionFailed", err)
	}
}

func TestResolveFailsWhenContextUnrecognizable(t *testing.T) {
	a, _ := ulTree("a", "c")
	b, _ := ulTree("a", "b", "c")
	ops := diffTrees(t, a, b)
	op := ops[0]

	target, _ := ulTree("x", "y", "z")
	idx, _, err := BuildIndexes(target)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := NewHashIndex(target, DefaultNodeHasher{})
	fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
	resolver := NewResolver(target, idx, fp, ResolveConfig{SearchWindow: 8})

	if _, err := resolver.Resolve(op); KindOf(err) != KindResolutionFailed {
		t.Errorf("Resolve err = %v, want KindResolutionFailed", err)
	}
}
