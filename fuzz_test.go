package treedelta

import (
	"testing"

	fuzz "github.com/google/gofuzz"
)

// fuzzListTree builds a <ul><li>text</li>...</ul> tree whose leaf text is
// drawn from f, covering adversarial unicode content a hand-written test
// would never think to try.
func fuzzListTree(f *fuzz.Fuzzer, n int) (*Tree, NodeID) {
	texts := make([]string, n)
	for i := range texts {
		f.Fuzz(&texts[i])
	}
	return ulTree(texts...)
}

// TestFuzzDiffNoPanics throws adversarial unicode leaf content at the full
// diff pipeline (match, index, fingerprint, edit) and requires it to
// either succeed or fail cleanly — never panic (§4.G).
func TestFuzzDiffNoPanics(t *testing.T) {
	unicodeRanges := fuzz.UnicodeRanges{
		{First: 0x20, Last: 0x7E},
		{First: 0xA0, Last: 0x04FF},
	}
	f := fuzz.New().NilChance(0).NumElements(0, 6).Funcs(unicodeRanges.CustomStringFuzzFunc())

	for i := 0; i < 200; i++ {
		var na, nb int
		f.Fuzz(&na)
		f.Fuzz(&nb)
		na, nb = na%6, nb%6
		if na < 0 {
			na = -na
		}
		if nb < 0 {
			nb = -nb
		}

		a, _ := fuzzListTree(f, na)
		b, _ := fuzzListTree(f, nb)

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
		if _, err := NewEditor(a, b, matching, fp).ComputeOperations(); err != nil {
			t.Fatalf("ComputeOperations: %v", err)
		}
	}
}

// TestFuzzResolveAgainstDivergentTargetNeverPanics resolves patches cut
// from one random tree against a completely unrelated random target: the
// resolver must fail with KindResolutionFailed or succeed, never panic,
// no matter how adversarial the content on either side (§4.I).
func TestFuzzResolveAgainstDivergentTargetNeverPanics(t *testing.T) {
	unicodeRanges := fuzz.UnicodeRanges{
		{First: 0x20, Last: 0x7E},
		{First: 0xA0, Last: 0x04FF},
	}
	f := fuzz.New().NilChance(0).Funcs(unicodeRanges.CustomStringFuzzFunc())

	for i := 0; i < 100; i++ {
		a, _ := fuzzListTree(f, 3)
		b, _ := fuzzListTree(f, 4)
		ops := diffTrees(t, a, b)

		target, _ := fuzzListTree(f, 5)
		idx, _, err := BuildIndexes(target)
		if err != nil {
			t.Fatalf("BuildIndexes: %v", err)
		}
		hi := NewHashIndex(target, DefaultNodeHasher{})
		fp := NewFingerprintFactory(target, idx, hi, DefaultRadius)
		resolver := NewResolver(target, idx, fp, ResolveConfig{})

		for _, op := range ops {
			if _, err := resolver.Resolve(op); err != nil && KindOf(err) != KindResolutionFailed {
				t.Fatalf("Resolve returned a non-ResolutionFailed error: %v", err)
			}
		}
	}
}
