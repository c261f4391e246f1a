package jsonobj

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/corvidae/treedelta"
)

func TestAdaptDocumentRoundTripsThroughSerialize(t *testing.T) {
	var adapter Adapter
	src := `{"name":"ada","tags":["x","y"],"active":true}`

	payload, err := adapter.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	tr, root, err := adapter.AdaptDocument(payload)
	if err != nil {
		t.Fatalf("AdaptDocument: %v", err)
	}
	if tr.Root() != root {
		t.Errorf("tree root = %v, want %v", tr.Root(), root)
	}

	out, err := adapter.SerializeToString(payload)
	if err != nil {
		t.Fatalf("SerializeToString: %v", err)
	}
	roundTripped, err := adapter.ParseString(out)
	if err != nil {
		t.Fatalf("ParseString(round trip): %v", err)
	}
	if diff := cmp.Diff(payload, roundTripped); diff != "" {
		t.Errorf("round trip mismatch (-original +round-tripped):\n%s", diff)
	}
}

// TestDiffApplyReconstructsTarget diffs two JSON objects, applies the
// resulting patch to a fresh copy of the original, and asserts the
// reconstructed document is structurally identical to the target.
func TestDiffApplyReconstructsTarget(t *testing.T) {
	var adapter Adapter
	original := `{"title":"draft","tags":["a","c"]}`
	changed := `{"title":"draft","tags":["a","b","c"]}`

	origPayload, err := adapter.ParseString(original)
	if err != nil {
		t.Fatalf("ParseString(original): %v", err)
	}
	changedPayload, err := adapter.ParseString(changed)
	if err != nil {
		t.Fatalf("ParseString(changed): %v", err)
	}

	treeA, _, err := adapter.AdaptDocument(origPayload)
	if err != nil {
		t.Fatalf("AdaptDocument(A): %v", err)
	}
	treeB, _, err := adapter.AdaptDocument(changedPayload)
	if err != nil {
		t.Fatalf("AdaptDocument(B): %v", err)
	}

	cfg := treedelta.New()
	ops, err := cfg.Diff(context.Background(), treeA, treeB, adapter.Hasher())
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(ops) == 0 {
		t.Fatal("expected at least one operation between distinct documents")
	}

	// Apply the patch to a second, independently built tree over the same
	// original payload, so the apply side never touches treeA's arena.
	targetPayload, err := adapter.ParseString(original)
	if err != nil {
		t.Fatalf("ParseString(target base): %v", err)
	}
	targetTree, _, err := adapter.AdaptDocument(targetPayload)
	if err != nil {
		t.Fatalf("AdaptDocument(target): %v", err)
	}

	idx, _, err := treedelta.BuildIndexes(targetTree)
	if err != nil {
		t.Fatalf("BuildIndexes: %v", err)
	}
	hi := treedelta.NewHashIndex(targetTree, adapter.Hasher())
	fp := treedelta.NewFingerprintFactory(targetTree, idx, hi, treedelta.DefaultRadius)

	var factory HandlerFactory
	if _, err := treedelta.ApplyPatch(ops, targetTree, idx, fp, treedelta.ResolveConfig{}, factory, treedelta.ModeStrict); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	if diff := cmp.Diff(changedPayload, targetPayload); diff != "" {
		t.Errorf("reconstructed document mismatch (-want +got):\n%s", diff)
	}
}
