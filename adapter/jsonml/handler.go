package jsonml

import "github.com/corvidae/treedelta"

// HandlerFactory materializes JsonML AttachedOperations as reversible
// Hunks (§4.J).
type HandlerFactory struct{}

// CreateOperationHandler implements treedelta.HandlerFactory.
func (HandlerFactory) CreateOperationHandler(sess *treedelta.Session, anchor treedelta.Anchor, op *treedelta.DetachedContextOperation) (treedelta.Hunk, error) {
	switch op.Type {
	case treedelta.UpdateNode:
		return newNodeHunk(sess, anchor, op)
	case treedelta.UpdateForest:
		return newForestHunk(sess, anchor, op)
	default:
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.CreateOperationHandler", "unknown operation type", nil)
	}
}

func live(sess *treedelta.Session, root *treedelta.Tree, id treedelta.NodeID) (interface{}, error) {
	if v, ok := sess.Current(id); ok {
		return v, nil
	}
	n, err := root.Node(id)
	if err != nil {
		return nil, err
	}
	return n.Payload, nil
}

// nodeHunk replaces the tag/attrs of an element, or the value of a text
// node, in place through its existing pointer — a JsonML element or text
// payload is a pointer, so mutating its fields is visible to every
// reference without a write-back to the parent.
type nodeHunk struct {
	sess   *treedelta.Session
	anchor treedelta.Anchor

	isText   bool
	oldTag   string
	oldAttrs map[string]string
	newTag   string
	newAttrs map[string]string
	oldText  string
	newText  string
	active   bool
}

func newNodeHunk(sess *treedelta.Session, anchor treedelta.Anchor, op *treedelta.DetachedContextOperation) (*nodeHunk, error) {
	if len(op.Remove) != 1 || len(op.Insert) != 1 {
		return nil, treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.newNodeHunk", "UPDATE_NODE requires exactly one remove and one insert fragment", nil)
	}
	h := &nodeHunk{sess: sess, anchor: anchor}
	switch oldP := op.Remove[0].Payload.(type) {
	case *Text:
		newP, ok := op.Insert[0].Payload.(*Text)
		if !ok {
			return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.newNodeHunk", "mismatched fragment kinds", nil)
		}
		h.isText = true
		h.oldText = oldP.Value
		h.newText = newP.Value
	case *Element:
		newP, ok := op.Insert[0].Payload.(*Element)
		if !ok {
			return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.newNodeHunk", "mismatched fragment kinds", nil)
		}
		h.oldTag, h.oldAttrs = oldP.Tag, oldP.Attrs
		h.newTag, h.newAttrs = newP.Tag, newP.Attrs
	default:
		return nil, treedelta.NewError(treedelta.KindUnsupportedType, "jsonml.newNodeHunk", "unsupported fragment payload type", nil)
	}
	return h, nil
}

func (h *nodeHunk) apply(tag string, attrs map[string]string, text string) error {
	v, err := live(h.sess, h.anchor.Root, h.anchor.Target)
	if err != nil {
		return err
	}
	if h.isText {
		t, ok := v.(*Text)
		if !ok {
			return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.nodeHunk", "resolved anchor is not a text node", nil)
		}
		t.Value = text
		return nil
	}
	e, ok := v.(*Element)
	if !ok {
		return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.nodeHunk", "resolved anchor is not an element", nil)
	}
	e.Tag = tag
	e.Attrs = attrs
	return nil
}

func (h *nodeHunk) Activate() error {
	if h.active {
		return nil
	}
	if err := h.apply(h.newTag, h.newAttrs, h.newText); err != nil {
		return err
	}
	h.active = true
	return nil
}

func (h *nodeHunk) Deactivate() error {
	if !h.active {
		return nil
	}
	if err := h.apply(h.oldTag, h.oldAttrs, h.oldText); err != nil {
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

// forestHunk splices a contiguous run of an element's children.
type forestHunk struct {
	sess   *treedelta.Session
	anchor treedelta.Anchor

	removeCount int
	insertVals  []interface{}
	oldRun      []interface{}
	active      bool
}

func newForestHunk(sess *treedelta.Session, anchor treedelta.Anchor, op *treedelta.DetachedContextOperation) (*forestHunk, error) {
	insertVals := make([]interface{}, len(op.Insert))
	for i, f := range op.Insert {
		insertVals[i] = f.Payload
	}
	return &forestHunk{
		sess:        sess,
		anchor:      anchor,
		removeCount: len(op.Remove),
		insertVals:  insertVals,
	}, nil
}

func (h *forestHunk) element() (*Element, error) {
	v, err := live(h.sess, h.anchor.Root, h.anchor.Base)
	if err != nil {
		return nil, err
	}
	e, ok := v.(*Element)
	if !ok {
		return nil, treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.forestHunk", "resolved anchor is not an element", nil)
	}
	return e, nil
}

func (h *forestHunk) Activate() error {
	if h.active {
		return nil
	}
	e, err := h.element()
	if err != nil {
		return err
	}
	idx := h.anchor.Index
	if idx < 0 || idx+h.removeCount > len(e.Children) {
		return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.forestHunk.Activate", "remove run does not fit at resolved anchor", nil)
	}
	h.oldRun = append([]interface{}{}, e.Children[idx:idx+h.removeCount]...)

	next := make([]interface{}, 0, len(e.Children)-h.removeCount+len(h.insertVals))
	next = append(next, e.Children[:idx]...)
	next = append(next, h.insertVals...)
	next = append(next, e.Children[idx+h.removeCount:]...)
	e.Children = next

	h.active = true
	return nil
}

func (h *forestHunk) Deactivate() error {
	if !h.active {
		return nil
	}
	e, err := h.element()
	if err != nil {
		return err
	}
	idx := h.anchor.Index
	if idx < 0 || idx+len(h.insertVals) > len(e.Children) {
		return treedelta.NewError(treedelta.KindApplyPrecondition, "jsonml.forestHunk.Deactivate", "insert run not found at resolved anchor", nil)
	}

	next := make([]interface{}, 0, len(e.Children)-len(h.insertVals)+len(h.oldRun))
	next = append(next, e.Children[:idx]...)
	next = append(next, h.oldRun...)
	next = append(next, e.Children[idx+len(h.insertVals):]...)
	e.Children = next

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
