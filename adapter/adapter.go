// Package adapter declares the capability interfaces a concrete document
// family implements to plug into the treedelta core: a way to build a
// Tree from a payload, a way to parse/serialize the payload, a way to
// embed remove/insert forests into a wire patch and read them back, and a
// way to materialize an AttachedOperation as a reversible Hunk (§6).
//
// The core package never imports a family package; wiring runs the other
// direction, with a family package depending on treedelta to build Trees
// and Hunks.
package adapter

import "github.com/corvidae/treedelta"

// TreeAdapter builds a treedelta.Tree from a family-native payload and
// supplies the per-family node-hash implementation that feeds it (§4.C,
// §6). Consumers: the diff driver, the fingerprint factory.
type TreeAdapter interface {
	AdaptDocument(payload interface{}) (*treedelta.Tree, treedelta.NodeID, error)
	Hasher() treedelta.NodeHasher
}

// PayloadHandler parses and serializes a family's payload from/to its
// string wire form, and creates an empty document of that family. Used
// only by file loading and patch serialization; the core never calls it
// (§6).
type PayloadHandler interface {
	ParseString(s string) (interface{}, error)
	SerializeToString(payload interface{}) (string, error)
	CreateDocument() (interface{}, error)
}

// FragmentAdapter embeds a DetachedContextOperation's already-resolved
// remove/insert fragments into a serialized patch, and reads them back
// (§6). Since a Fragment already carries its family-native payload (the
// editor attaches it at emission time, §4.G), adapting is native-mode
// identity passthrough; a foreign-mode adapter instead serializes each
// payload to a string for embedding in a patch of another family.
type FragmentAdapter interface {
	Adapt(fragments []treedelta.Fragment) (interface{}, error)
	ImportFragment(payloadFragment interface{}) ([]treedelta.Fragment, error)
}

// Family bundles one document family's complete plug-in surface: its
// tree adapter, payload handler, fragment adapter, and operation-handler
// factory (§9 "one concrete implementation per family; the core is
// generic over the adapter set").
type Family struct {
	Name           string
	Tree           TreeAdapter
	Payload        PayloadHandler
	Fragment       FragmentAdapter
	HandlerFactory treedelta.HandlerFactory
}
