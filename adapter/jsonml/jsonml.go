// Package jsonml adapts JsonML documents — arrays of the shape
// [tagName, attrsObject?, child1, child2, ...] with plain strings for
// text content — into treedelta trees, the family the worked end-to-end
// scenarios in the distilled specification use (§6, §8, §11).
package jsonml

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/corvidae/treedelta"
)

// Element is the mutable representation an Element node's Payload holds.
// It is a pointer so that a hunk mutating Tag/Attrs/Children is visible
// to every reference to this element without a parent write-back — unlike
// jsonobj's array splices, a JsonML element's identity never changes
// shape on insert/remove, only its Children field's contents.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []interface{} // each entry is *Element or *Text, in document order
}

// Text is the mutable representation a Text node's Payload holds.
type Text struct {
	Value string
}

// Adapter implements adapter.TreeAdapter, adapter.PayloadHandler, and
// adapter.FragmentAdapter for the JsonML family.
type Adapter struct{}

// Hasher returns the canonical per-family node hasher.
func (Adapter) Hasher() treedelta.NodeHasher { return treedelta.DefaultNodeHasher{} }

// AdaptDocument builds a tree from a parsed JsonML value.
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

func build(t *treedelta.Tree, v interface{}) (treedelta.NodeID, error) {
	switch x := v.(type) {
	case string:
		return t.NewNode(treedelta.NodeKindText, x, &Text{Value: x}), nil
	case []interface{}:
		if len(x) == 0 {
			return treedelta.InvalidNodeID, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.build", "empty JsonML array", nil)
		}
		tag, ok := x[0].(string)
		if !ok {
			return treedelta.InvalidNodeID, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.build", "JsonML array must start with a tag name string", nil)
		}
		idx := 1
		attrs := map[string]string{}
		if idx < len(x) {
			if m, ok := x[idx].(map[string]interface{}); ok {
				for k, av := range m {
					attrs[k] = fmt.Sprintf("%v", av)
				}
				idx++
			}
		}
		elem := &Element{Tag: tag, Attrs: attrs}
		id := t.NewNode(treedelta.NodeKindElement, tag, elem)
		n, err := t.Node(id)
		if err != nil {
			return treedelta.InvalidNodeID, err
		}
		n.Attrs = attrs

		for _, childVal := range x[idx:] {
			childID, err := build(t, childVal)
			if err != nil {
				return treedelta.InvalidNodeID, err
			}
			if err := t.Append(id, childID); err != nil {
				return treedelta.InvalidNodeID, err
			}
			cn, err := t.Node(childID)
			if err != nil {
				return treedelta.InvalidNodeID, err
			}
			elem.Children = append(elem.Children, cn.Payload)
		}
		return id, nil
	default:
		return treedelta.InvalidNodeID, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.build", fmt.Sprintf("unsupported JsonML value type %T", v), nil)
	}
}

// export converts a payload (as built by build, or as later mutated by
// hunks) back to the plain interface{} form encoding/json can marshal.
func export(payload interface{}) interface{} {
	switch p := payload.(type) {
	case *Text:
		return p.Value
	case *Element:
		out := make([]interface{}, 0, len(p.Children)+2)
		out = append(out, p.Tag)
		if len(p.Attrs) > 0 {
			keys := make([]string, 0, len(p.Attrs))
			for k := range p.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			attrMap := make(map[string]interface{}, len(p.Attrs))
			for _, k := range keys {
				attrMap[k] = p.Attrs[k]
			}
			out = append(out, attrMap)
		}
		for _, c := range p.Children {
			out = append(out, export(c))
		}
		return out
	default:
		return payload
	}
}

// Export reconstructs the serializable JsonML form of a tree built (and
// possibly mutated by a patch session) by this adapter.
func Export(tree *treedelta.Tree, root treedelta.NodeID) (interface{}, error) {
	n, err := tree.Node(root)
	if err != nil {
		return nil, err
	}
	return export(n.Payload), nil
}

// ParseString decodes a JsonML document from its JSON string form.
func (Adapter) ParseString(s string) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, treedelta.NewError(treedelta.KindParameterError, "jsonml.ParseString", "invalid JSON", err)
	}
	return v, nil
}

// SerializeToString encodes a plain JsonML value (e.g. the output of
// Export) to its JSON string form.
func (Adapter) SerializeToString(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", treedelta.NewError(treedelta.KindParameterError, "jsonml.SerializeToString", "value is not JSON-serializable", err)
	}
	return string(b), nil
}

// CreateDocument returns an empty root element.
func (Adapter) CreateDocument() (interface{}, error) {
	return []interface{}{""}, nil
}

// Adapt is the native-mode fragment adapter: it exports each fragment's
// mutable payload (*Element/*Text) back to plain JsonML values for
// embedding in a patch.
func (Adapter) Adapt(fragments []treedelta.Fragment) (interface{}, error) {
	out := make([]interface{}, len(fragments))
	for i, f := range fragments {
		out[i] = export(f.Payload)
	}
	return out, nil
}

// ImportFragment parses plain JsonML values back into fresh, unattached
// *Element/*Text payloads.
func (Adapter) ImportFragment(payloadFragment interface{}) ([]treedelta.Fragment, error) {
	items, ok := payloadFragment.([]interface{})
	if !ok {
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.ImportFragment", "expected a JSON array of fragment payloads", nil)
	}
	out := make([]treedelta.Fragment, len(items))
	for i, v := range items {
		scratch := treedelta.NewTree()
		id, err := build(scratch, v)
		if err != nil {
			return nil, err
		}
		n, err := scratch.Node(id)
		if err != nil {
			return nil, err
		}
		out[i] = treedelta.Fragment{Payload: n.Payload}
	}
	return out, nil
}
