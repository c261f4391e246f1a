// Package jsonobj adapts native Go JSON values (the types
// encoding/json.Unmarshal produces into an interface{}: map[string]interface{},
// []interface{}, string, float64, bool, nil) into treedelta trees, the
// "JSON-object" family (§6, §11).
package jsonobj

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/corvidae/treedelta"
)

// Entry is the payload an object's child node carries instead of its bare
// value: a fragment embedding an object child needs the key back, since a
// Fragment only ever carries one node's Payload (§4.G "Remove/Insert
// wrap a family-native payload", §9 Fragment redesign) and the key
// otherwise lives only in the node's Attrs, which Fragment does not copy.
type Entry struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// nameAttr is the Attrs key an object child uses to carry its JSON key.
// Array elements carry no name; their identity comes from document order
// and structural equality, not a stored index (array re-indexing on
// insert/delete must not look like every following element was renamed).
const nameAttr = "name"

// Adapter implements adapter.TreeAdapter, adapter.PayloadHandler, and
// adapter.FragmentAdapter for the JSON-object family.
type Adapter struct{}

// Hasher returns the canonical per-family node hasher; JSON-object nodes
// populate Kind/Value/Attrs the same way every other family does, so no
// family-specific hashing is needed.
func (Adapter) Hasher() treedelta.NodeHasher { return treedelta.DefaultNodeHasher{} }

// AdaptDocument builds a tree from a parsed JSON value.
func (Adapter) AdaptDocument(payload interface{}) (*treedelta.Tree, treedelta.NodeID, error) {
	t := treedelta.NewTree()
	root, err := build(t, payload)
	if err != nil {
		return nil, treedelta.InvalidNodeID, err
	}
	if err := t.SetRoot(root); err != nil {
		return nil, treedelta.InvalidNodeID, err
	}
	return t, root, nil
}

// AdaptPair builds trees for two JSON documents concurrently, the
// JSON-object analogue of the teacher's prepTrees building both sides of
// a diff at once over a WaitGroup (tree.go). Each goroutine owns its own
// Tree arena, so building concurrently is safe without extra locking; an
// errgroup lets either side's build error surface instead of panicking
// the way the teacher's tree() does on an unexpected type (tree.go:356).
func AdaptPair(a, b interface{}) (*treedelta.Tree, treedelta.NodeID, *treedelta.Tree, treedelta.NodeID, error) {
	var (
		treeA, treeB *treedelta.Tree
		rootA, rootB treedelta.NodeID
		adapter      Adapter
		g            errgroup.Group
	)
	g.Go(func() error {
		var err error
		treeA, rootA, err = adapter.AdaptDocument(a)
		return err
	})
	g.Go(func() error {
		var err error
		treeB, rootB, err = adapter.AdaptDocument(b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, treedelta.InvalidNodeID, nil, treedelta.InvalidNodeID, err
	}
	return treeA, rootA, treeB, rootB, nil
}

func build(t *treedelta.Tree, v interface{}) (treedelta.NodeID, error) {
	switch x := v.(type) {
	case nil:
		return t.NewNode(treedelta.NodeKindText, "null", v), nil
	case bool:
		s := "false"
		if x {
			s = "true"
		}
		return t.NewNode(treedelta.NodeKindText, s, v), nil
	case float64:
		return t.NewNode(treedelta.NodeKindText, strconv.FormatFloat(x, 'g', -1, 64), v), nil
	case string:
		return t.NewNode(treedelta.NodeKindText, x, v), nil
	case []interface{}:
		id := t.NewNode(treedelta.NodeKindElement, "array", v)
		for _, item := range x {
			childID, err := build(t, item)
			if err != nil {
				return treedelta.InvalidNodeID, err
			}
			if err := t.Append(id, childID); err != nil {
				return treedelta.InvalidNodeID, err
			}
		}
		return id, nil
	case map[string]interface{}:
		id := t.NewNode(treedelta.NodeKindElement, "object", v)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			childID, err := build(t, x[k])
			if err != nil {
				return treedelta.InvalidNodeID, err
			}
			child, err := t.Node(childID)
			if err != nil {
				return treedelta.InvalidNodeID, err
			}
			if child.Attrs == nil {
				child.Attrs = map[string]string{}
			}
			child.Attrs[nameAttr] = k
			child.Payload = Entry{Key: k, Value: child.Payload}
			if err := t.Append(id, childID); err != nil {
				return treedelta.InvalidNodeID, err
			}
		}
		return id, nil
	default:
		return treedelta.InvalidNodeID, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.build", fmt.Sprintf("unsupported JSON value type %T", v), nil)
	}
}

// ParseString decodes s into the interface{} tree encoding/json produces.
func (Adapter) ParseString(s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, treedelta.NewError(treedelta.KindParameterError, "jsonobj.ParseString", "invalid JSON", err)
	}
	return v, nil
}

// SerializeToString encodes payload back to its JSON string form.
func (Adapter) SerializeToString(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", treedelta.NewError(treedelta.KindParameterError, "jsonobj.SerializeToString", "value is not JSON-serializable", err)
	}
	return string(b), nil
}

// CreateDocument returns an empty JSON object.
func (Adapter) CreateDocument() (interface{}, error) {
	return map[string]interface{}{}, nil
}

// Adapt is the native-mode fragment adapter: JSON-object patches embed
// JSON-object fragments directly, so adapting is identity passthrough —
// the fragment list itself is already the payload-fragment.
func (Adapter) Adapt(fragments []treedelta.Fragment) (interface{}, error) {
	out := make([]interface{}, len(fragments))
	for i, f := range fragments {
		out[i] = f.Payload
	}
	return out, nil
}

// ImportFragment reverses Adapt: payloadFragment must be a []interface{}
// of native JSON values, one per fragment.
func (Adapter) ImportFragment(payloadFragment interface{}) ([]treedelta.Fragment, error) {
	items, ok := payloadFragment.([]interface{})
	if !ok {
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.ImportFragment", "expected a JSON array of fragment payloads", nil)
	}
	out := make([]treedelta.Fragment, len(items))
	for i, v := range items {
		out[i] = treedelta.Fragment{Payload: v}
	}
	return out, nil
}
