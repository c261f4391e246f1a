package jsonobj

import (
	"github.com/corvidae/treedelta"
)

// HandlerFactory materializes JSON-object AttachedOperations as
// reversible Hunks (§4.J).
type HandlerFactory struct{}

// CreateOperationHandler implements treedelta.HandlerFactory.
func (HandlerFactory) CreateOperationHandler(sess *treedelta.Session, anchor treedelta.Anchor, op *treedelta.DetachedContextOperation) (treedelta.Hunk, error) {
	baseNode, err := anchor.Root.Node(anchor.Base)
	if err != nil {
		return nil, err
	}

	switch op.Type {
	case treedelta.UpdateNode:
		return newNodeHunk(sess, anchor, baseNode, op)
	case treedelta.UpdateForest:
		return newForestHunk(sess, anchor, baseNode, op)
	default:
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.CreateOperationHandler", "unknown operation type", nil)
	}
}

// container returns the live native container (map[string]interface{} or
// []interface{}) standing in for id, preferring a value already rebuilt
// by an earlier hunk this session over id's node payload. An object
// child's payload is an Entry; its Value is the container returned.
func container(sess *treedelta.Session, root *treedelta.Tree, id treedelta.NodeID) (interface{}, error) {
	if v, ok := sess.Current(id); ok {
		return v, nil
	}
	n, err := root.Node(id)
	if err != nil {
		return nil, err
	}
	if e, ok := n.Payload.(Entry); ok {
		return e.Value, nil
	}
	return n.Payload, nil
}

// nodeHunk replaces a single value in place: an object's value for an
// existing key, or an array element at an existing index. Neither
// resizes its container, so no write-back to a grandparent is needed.
type nodeHunk struct {
	sess    *treedelta.Session
	anchor  treedelta.Anchor
	isArray bool
	key     string
	oldVal  interface{}
	newVal  interface{}
	active  bool
}

func newNodeHunk(sess *treedelta.Session, anchor treedelta.Anchor, baseNode *treedelta.Node, op *treedelta.DetachedContextOperation) (*nodeHunk, error) {
	if len(op.Remove) != 1 || len(op.Insert) != 1 {
		return nil, treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.newNodeHunk", "UPDATE_NODE requires exactly one remove and one insert fragment", nil)
	}
	h := &nodeHunk{sess: sess, anchor: anchor}
	switch baseNode.Value {
	case "array":
		h.isArray = true
		h.oldVal = op.Remove[0].Payload
		h.newVal = op.Insert[0].Payload
	case "object":
		oldEntry, ok := op.Remove[0].Payload.(Entry)
		if !ok {
			return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newNodeHunk", "expected an Entry fragment under an object", nil)
		}
		newEntry, ok := op.Insert[0].Payload.(Entry)
		if !ok {
			return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newNodeHunk", "expected an Entry fragment under an object", nil)
		}
		h.key = oldEntry.Key
		h.oldVal = oldEntry.Value
		h.newVal = newEntry.Value
	default:
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newNodeHunk", "UPDATE_NODE anchor must be an array or object", nil)
	}
	return h, nil
}

func (h *nodeHunk) set(val interface{}) error {
	c, err := container(h.sess, h.anchor.Root, h.anchor.Base)
	if err != nil {
		return err
	}
	if h.isArray {
		arr, ok := c.([]interface{})
		if !ok || h.anchor.Index < 0 || h.anchor.Index >= len(arr) {
			return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.nodeHunk.set", "array index out of range at resolved anchor", nil)
		}
		arr[h.anchor.Index] = val
		return nil
	}
	obj, ok := c.(map[string]interface{})
	if !ok {
		return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.nodeHunk.set", "resolved anchor is not a JSON object", nil)
	}
	obj[h.key] = val
	return nil
}

func (h *nodeHunk) Activate() error {
	if h.active {
		return nil
	}
	if err := h.set(h.newVal); err != nil {
		return err
	}
	h.active = true
	return nil
}

func (h *nodeHunk) Deactivate() error {
	if !h.active {
		return nil
	}
	if err := h.set(h.oldVal); err != nil {
		return err
	}
	h.active = false
	return nil
}

func (h *nodeHunk) Toggle() error {
	if h.active {
		return h.Deactivate()
	}
	return h.Activate()
}

func (h *nodeHunk) IsActive() bool { return h.active }

// forestHunk replaces a contiguous run of array elements, or adds/removes
// object keys. Array splices rebuild the backing slice and must write the
// new slice back into the grandparent container and the session's
// current-node map, since a Go slice header can change on resize (§4.J
// "current node" map).
type forestHunk struct {
	sess    *treedelta.Session
	anchor  treedelta.Anchor
	isArray bool

	// array mode
	oldSlice, newSlice []interface{}
	grandparentWrite   func(val interface{}) error

	// object mode
	removeKeys []string
	removeVals []interface{}
	insertKV   []Entry

	active bool
}

func newForestHunk(sess *treedelta.Session, anchor treedelta.Anchor, baseNode *treedelta.Node, op *treedelta.DetachedContextOperation) (*forestHunk, error) {
	h := &forestHunk{sess: sess, anchor: anchor}

	switch baseNode.Value {
	case "array":
		h.isArray = true
		c, err := container(sess, anchor.Root, anchor.Base)
		if err != nil {
			return nil, err
		}
		old, ok := c.([]interface{})
		if !ok {
			return nil, treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.newForestHunk", "resolved anchor is not a JSON array", nil)
		}
		if anchor.Index < 0 || anchor.Index+len(op.Remove) > len(old) {
			return nil, treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.newForestHunk", "remove run does not fit at resolved anchor", nil)
		}
		h.oldSlice = old
		insertVals := make([]interface{}, len(op.Insert))
		for i, f := range op.Insert {
			insertVals[i] = f.Payload
		}
		next := make([]interface{}, 0, len(old)-len(op.Remove)+len(insertVals))
		next = append(next, old[:anchor.Index]...)
		next = append(next, insertVals...)
		next = append(next, old[anchor.Index+len(op.Remove):]...)
		h.newSlice = next

		if baseNode.HasParent() {
			gp, err := anchor.Root.Node(baseNode.Parent)
			if err != nil {
				return nil, err
			}
			slot := baseNode.ChildIndex
			switch gp.Value {
			case "array":
				h.grandparentWrite = func(val interface{}) error {
					c, err := container(sess, anchor.Root, baseNode.Parent)
					if err != nil {
						return err
					}
					arr, ok := c.([]interface{})
					if !ok || slot < 0 || slot >= len(arr) {
						return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.forestHunk", "grandparent array slot out of range", nil)
					}
					arr[slot] = val
					return nil
				}
			case "object":
				gpKey := baseNode.Attrs[nameAttr]
				h.grandparentWrite = func(val interface{}) error {
					c, err := container(sess, anchor.Root, baseNode.Parent)
					if err != nil {
						return err
					}
					obj, ok := c.(map[string]interface{})
					if !ok {
						return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.forestHunk", "grandparent is not a JSON object", nil)
					}
					obj[gpKey] = val
					return nil
				}
			}
		}

	case "object":
		for _, f := range op.Remove {
			e, ok := f.Payload.(Entry)
			if !ok {
				return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newForestHunk", "expected Entry fragments under an object", nil)
			}
			h.removeKeys = append(h.removeKeys, e.Key)
			h.removeVals = append(h.removeVals, e.Value)
		}
		for _, f := range op.Insert {
			e, ok := f.Payload.(Entry)
			if !ok {
				return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newForestHunk", "expected Entry fragments under an object", nil)
			}
			h.insertKV = append(h.insertKV, e)
		}
	default:
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonobj.newForestHunk", "UPDATE_FOREST anchor must be an array or object", nil)
	}

	return h, nil
}

func (h *forestHunk) Activate() error {
	if h.active {
		return nil
	}
	if h.isArray {
		h.sess.SetCurrent(h.anchor.Base, h.newSlice)
		if h.grandparentWrite != nil {
			if err := h.grandparentWrite(h.newSlice); err != nil {
				return err
			}
		}
	} else {
		c, err := container(h.sess, h.anchor.Root, h.anchor.Base)
		if err != nil {
			return err
		}
		obj, ok := c.(map[string]interface{})
		if !ok {
			return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.forestHunk.Activate", "resolved anchor is not a JSON object", nil)
		}
		for _, k := range h.removeKeys {
			delete(obj, k)
		}
		for _, kv := range h.insertKV {
			obj[kv.Key] = kv.Value
		}
	}
	h.active = true
	return nil
}

func (h *forestHunk) Deactivate() error {
	if !h.active {
		return nil
	}
	if h.isArray {
		h.sess.SetCurrent(h.anchor.Base, h.oldSlice)
		if h.grandparentWrite != nil {
			if err := h.grandparentWrite(h.oldSlice); err != nil {
				return err
			}
		}
	} else {
		c, err := container(h.sess, h.anchor.Root, h.anchor.Base)
		if err != nil {
			return err
		}
		obj, ok := c.(map[string]interface{})
		if !ok {
			return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonobj.forestHunk.Deactivate", "resolved anchor is not a JSON object", nil)
		}
		for _, kv := range h.insertKV {
			delete(obj, kv.Key)
		}
		for i, k := range h.removeKeys {
			obj[k] = h.removeVals[i]
		}
	}
	h.active = false
	return nil
}

func (h *forestHunk) Toggle() error {
	if h.active {
		return h.Deactivate()
	}
	return h.Activate()
}

func (h *forestHunk) IsActive() bool { return h.active }
