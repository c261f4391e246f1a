// Package treedelta computes, encodes, applies, and reconciles structural
// differences ("deltas") between two tree-shaped documents drawn from a
// common document family: hierarchical markup such as XML/DOM, structured
// JSON objects, or JsonML arrays.
//
// Given two documents of the same family, Diff produces a patch that, when
// applied to the first, yields the second. Patches are context-aware: each
// operation carries a fingerprint of the nodes surrounding its anchor, so a
// patch computed from one pair of documents can also be applied to a third,
// slightly divergent document by locating the intended edit site via content
// hashes rather than rigid paths.
//
// treedelta is based on a top-down/bottom-up tree-matching algorithm in the
// XCC family, described in Detecting Changes in XML Documents by Grégory
// Cobéna & Amélie Marian. The matching produced by that algorithm is folded
// into a minimal sequence of node-update and forest-update operations, each
// anchored by a fingerprint computed from its document-order neighbors.
//
// The package is family-agnostic: concrete document representations plug in
// via a small set of interfaces: TreeAdapter, PayloadHandler and
// FragmentAdapter in the adapter subpackage, and HandlerFactory in this
// package. treedelta itself never
// parses a document and never serializes one — it operates purely on the
// generic Tree/Node arena built by a TreeAdapter.
package treedelta
