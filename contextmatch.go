package treedelta

// ContextScore is the result of comparing a candidate anchor's head/tail
// fingerprints against a query window (§4.F contextmatcher).
type ContextScore struct {
	// HeadMatches is the count of non-zero query-head entries that match
	// the candidate's corresponding head entry.
	HeadMatches int
	HeadTotal   int
	// TailMatches is the count of non-zero query-tail entries that match
	// the candidate's corresponding tail entry.
	TailMatches int
	TailTotal   int
}

// Total returns the combined match count across head and tail.
func (s ContextScore) Total() int { return s.HeadMatches + s.TailMatches }

// MeetsThreshold reports whether s is acceptable as a match, per the
// default scoring rule (§9 Open Question iii): every non-zero head entry
// must match, and at least half of the non-zero tail entries must match.
// A fingerprint with no non-zero entries at all (remove at the very start
// or end of a document) trivially satisfies its half.
func (s ContextScore) MeetsThreshold() bool {
	if s.HeadMatches < s.HeadTotal {
		return false
	}
	return s.TailMatches*2 >= s.TailTotal
}

// ScoreContext compares query head/tail fingerprints against the
// candidate anchor's own fingerprint, counting matches only among
// non-zero query entries (a zero entry stands for "past the edge of the
// document" and carries no signal).
func ScoreContext(queryHead, queryTail, candHead, candTail []uint32) ContextScore {
	var s ContextScore
	for i, qh := range queryHead {
		if qh == 0 {
			continue
		}
		s.HeadTotal++
		if i < len(candHead) && candHead[i] == qh {
			s.HeadMatches++
		}
	}
	for i, qt := range queryTail {
		if qt == 0 {
			continue
		}
		s.TailTotal++
		if i < len(candTail) && candTail[i] == qt {
			s.TailMatches++
		}
	}
	return s
}

// contextMatcher scores candidate anchor positions in a target tree
// against a query fingerprint window, used by the resolver's windowed
// search (§4.F, §4.I). It is a thin wrapper around a FingerprintFactory
// bound to the target tree, added so the resolver does not need to know
// how scores are derived from raw fingerprints.
type contextMatcher struct {
	fp *FingerprintFactory
}

func newContextMatcher(fp *FingerprintFactory) *contextMatcher {
	return &contextMatcher{fp: fp}
}

// scoreAtPosition scores the candidate anchor at document-order position
// pos in the target tree against the query head/tail.
func (cm *contextMatcher) scoreAtPosition(pos int, queryHead, queryTail []uint32) (ContextScore, error) {
	candHead, candTail, err := cm.fp.Fingerprint(pos)
	if err != nil {
		return ContextScore{}, err
	}
	return ScoreContext(queryHead, queryTail, candHead, candTail), nil
}
