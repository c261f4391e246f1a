package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/corvidae/treedelta"
	"github.com/corvidae/treedelta/adapter"
)

// jsonPatchOp is the JSON wire representation of one operation: a plain
// struct mirroring DetachedContextOperation with its fragments adapted to
// family-native serializable values.
type jsonPatchOp struct {
	Type   string        `json:"type"`
	Path   []int         `json:"path"`
	Head   string        `json:"head"`
	Tail   string        `json:"tail"`
	Remove []interface{} `json:"remove"`
	Insert []interface{} `json:"insert"`
}

// serializePatch renders ops as either the JSON wire format (-j) or the
// XML/JsonML wire format (-x, the default), per the "delta" root element
// layout: a sequence of node/forest operation elements each carrying a
// path attribute and context/remove/insert/context children.
func serializePatch(familyName, format string, ops []*treedelta.DetachedContextOperation) (string, error) {
	fam, err := resolveFamily(familyName)
	if err != nil {
		return "", err
	}

	switch format {
	case "json":
		return serializeJSONPatch(fam, ops)
	default:
		return serializeXMLPatch(fam, ops)
	}
}

func serializeJSONPatch(fam adapter.Family, ops []*treedelta.DetachedContextOperation) (string, error) {
	out := make([]jsonPatchOp, len(ops))
	for i, op := range ops {
		removeVal, err := fam.Fragment.Adapt(op.Remove)
		if err != nil {
			return "", err
		}
		insertVal, err := fam.Fragment.Adapt(op.Insert)
		if err != nil {
			return "", err
		}
		removeList, ok := removeVal.([]interface{})
		if !ok {
			removeList = []interface{}{removeVal}
		}
		insertList, ok := insertVal.([]interface{})
		if !ok {
			insertList = []interface{}{insertVal}
		}
		out[i] = jsonPatchOp{
			Type:   op.Type.String(),
			Path:   op.Path,
			Head:   treedelta.FormatFingerprint(op.Head),
			Tail:   treedelta.FormatFingerprint(op.Tail),
			Remove: removeList,
			Insert: insertList,
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", treedelta.NewError(treedelta.KindParameterError, "serializeJSONPatch", "patch is not JSON-serializable", err)
	}
	return string(b), nil
}

// serializeXMLPatch renders ops as a JsonML-encoded "delta" document: the
// root element's children are node/forest elements, each with a path
// attribute (slash-separated decimal child indices) and, in order, a
// context (head), remove, insert, and context (tail) child.
func serializeXMLPatch(fam adapter.Family, ops []*treedelta.DetachedContextOperation) (string, error) {
	delta := []interface{}{"delta"}
	for _, op := range ops {
		removeVal, err := fam.Fragment.Adapt(op.Remove)
		if err != nil {
			return "", err
		}
		insertVal, err := fam.Fragment.Adapt(op.Insert)
		if err != nil {
			return "", err
		}
		opElem := []interface{}{
			op.Type.String(),
			map[string]interface{}{"path": formatPath(op.Path)},
			[]interface{}{"context", treedelta.FormatFingerprint(op.Head)},
			append([]interface{}{"remove"}, flattenFragmentList(removeVal)...),
			append([]interface{}{"insert"}, flattenFragmentList(insertVal)...),
			[]interface{}{"context", treedelta.FormatFingerprint(op.Tail)},
		}
		delta = append(delta, opElem)
	}
	b, err := json.MarshalIndent(delta, "", "  ")
	if err != nil {
		return "", treedelta.NewError(treedelta.KindParameterError, "serializeXMLPatch", "patch is not serializable", err)
	}
	return string(b), nil
}

// flattenFragmentList turns a fragment adapter's output (typically a
// []interface{} of per-fragment payloads) into the list of children a
// "remove"/"insert" element should carry.
func flattenFragmentList(v interface{}) []interface{} {
	if list, ok := v.([]interface{}); ok {
		return list
	}
	return []interface{}{v}
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "/")
}
