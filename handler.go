package treedelta

// Hunk is a reversible materialization of one AttachedOperation against a
// concrete document family. Hunks store enough state (old payload, old
// child-slot contents) to undo themselves exactly (§4.J).
type Hunk interface {
	Activate() error
	Deactivate() error
	Toggle() error
	IsActive() bool
}

// HandlerFactory materializes an AttachedOperation into a family-specific
// Hunk. One concrete implementation exists per document family (§4.J,
// §6); the core holds only this capability interface.
type HandlerFactory interface {
	CreateOperationHandler(sess *Session, anchor Anchor, op *DetachedContextOperation) (Hunk, error)
}

// ApplyMode governs how a Session reacts to a resolution failure on a
// hunk (§7 propagation rules).
type ApplyMode uint8

const (
	// ModeStrict aborts the whole apply and deactivates every
	// previously-activated hunk in reverse order.
	ModeStrict ApplyMode = iota
	// ModeBestEffort skips the failing hunk and continues with the rest.
	ModeBestEffort
)

// Session carries the state of one apply call: the ordered hunks
// activated so far (for reverse-order rollback) and a "current node" map
// so that hunks whose anchor is itself the target of an earlier hunk see
// the live payload rather than the one resolved before any edits (§4.J).
type Session struct {
	factory   HandlerFactory
	resolver  *Resolver
	mode      ApplyMode
	activated []Hunk
	current   map[NodeID]interface{}
}

// NewSession returns a Session that resolves anchors with resolver and
// materializes hunks with factory, under mode.
func NewSession(factory HandlerFactory, resolver *Resolver, mode ApplyMode) *Session {
	return &Session{
		factory:  factory,
		resolver: resolver,
		mode:     mode,
		current:  map[NodeID]interface{}{},
	}
}

// SetCurrent records the live concrete payload standing in for base after
// a hunk has mutated it, so that a later hunk anchored under base sees
// the right parent.
func (s *Session) SetCurrent(base NodeID, payload interface{}) {
	s.current[base] = payload
}

// Current returns the live concrete payload for base, if any hunk has
// recorded one yet.
func (s *Session) Current(base NodeID) (interface{}, bool) {
	v, ok := s.current[base]
	return v, ok
}

// Apply resolves and activates each operation in order. On a resolution
// failure it either skips the operation (ModeBestEffort) or aborts,
// deactivating every hunk activated so far in reverse order (ModeStrict).
// Any other error always aborts, regardless of mode.
func (s *Session) Apply(ops []*DetachedContextOperation) error {
	for _, op := range ops {
		anchor, err := s.resolver.Resolve(op)
		if err != nil {
			if KindOf(err) == KindResolutionFailed && s.mode == ModeBestEffort {
				continue
			}
			s.rollback()
			return err
		}

		hunk, err := s.factory.CreateOperationHandler(s, anchor, op)
		if err != nil {
			s.rollback()
			return err
		}
		if err := hunk.Activate(); err != nil {
			s.rollback()
			return err
		}
		s.activated = append(s.activated, hunk)
	}
	return nil
}

// rollback deactivates every activated hunk in reverse order, restoring
// the target tree to its pre-apply state.
func (s *Session) rollback() {
	for i := len(s.activated) - 1; i >= 0; i-- {
		s.activated[i].Deactivate()
	}
	s.activated = nil
}

// ApplyPatch ties the resolver and handler factory together for one
// apply call: it builds a Resolver over target using idx and fp, then
// runs every operation through a fresh Session (§5 "apply(patch, C)").
// idx and fp must already be built over target.
func ApplyPatch(ops []*DetachedContextOperation, target *Tree, idx *DocumentOrderIndex, fp *FingerprintFactory, resolveCfg ResolveConfig, factory HandlerFactory, mode ApplyMode) (*Session, error) {
	resolver := NewResolver(target, idx, fp, resolveCfg)
	sess := NewSession(factory, resolver, mode)
	if err := sess.Apply(ops); err != nil {
		return sess, err
	}
	return sess, nil
}
