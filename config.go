package treedelta

// DefaultRadius is the default fingerprint half-window k used by the
// Fingerprint factory and the Context resolver (§4.H/§4.I): head covers the
// k nodes preceding an anchor, tail covers the k nodes starting at it.
const DefaultRadius = 4

// DefaultSearchWindow bounds how far the windowed search in the resolver
// will look, in document-order positions, around a detached operation's
// last-known linear position before giving up on proximity-based
// candidates. It does not bound correctness, only how eagerly a distant
// match is considered equally good as a nearby one once both clear the
// acceptance threshold.
const DefaultSearchWindow = 64

// Config carries named tunables rather than constants (§9, Open Question
// iii): the fingerprint radius and a windowed-search proximity radius. The
// resolver's acceptance thresholds are not part of Config; they are fixed
// in ContextScore.MeetsThreshold and strictMatch. The zero Config is not
// meant to be used directly; build one with New.
type Config struct {
	// Radius is k, the fingerprint half-window, used by Diff.
	Radius int
	// SearchWindow is a windowed-search proximity radius. Neither Diff nor
	// NewResolver reads it; a Resolver takes its window from ResolveConfig.
	SearchWindow int
}

// Option adjusts a Config. Zero or more Options can be passed to New.
type Option func(cfg *Config)

// WithRadius overrides the fingerprint half-window.
func WithRadius(k int) Option {
	return func(cfg *Config) { cfg.Radius = k }
}

// WithSearchWindow sets Config.SearchWindow (see its field comment: it
// does not reach a Resolver, which is configured through ResolveConfig).
func WithSearchWindow(w int) Option {
	return func(cfg *Config) { cfg.SearchWindow = w }
}

// New builds a Config from defaults plus any Options, following the
// teacher's functional-options convention (deepdiff.New in the teacher
// repo).
func New(opts ...Option) *Config {
	cfg := &Config{Radius: DefaultRadius, SearchWindow: DefaultSearchWindow}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultRadius
	}
	if cfg.SearchWindow <= 0 {
		cfg.SearchWindow = DefaultSearchWindow
	}
	return cfg
}
