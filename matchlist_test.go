package kmclattice

import "testing"

func TestEntryMatchWildcardAsymmetric(t *testing.T) {
	origin := NewConfigMatchListEntry(3, Coordinate{1, 0, 0}, 5)
	wildcardProcessEntry := NewProcessMatchListEntry(Wildcard, 0, Coordinate{1, 0, 0})
	concreteProcessEntry := NewProcessMatchListEntry(3, 0, Coordinate{1, 0, 0})
	mismatchedProcessEntry := NewProcessMatchListEntry(4, 0, Coordinate{1, 0, 0})

	if !wildcardProcessEntry.Match(origin) {
		t.Error("a wildcard process entry must match any configuration entry at the same point")
	}
	if !concreteProcessEntry.Match(origin) {
		t.Error("a process entry whose type equals the site's type must match")
	}
	if mismatchedProcessEntry.Match(origin) {
		t.Error("a process entry whose type differs from the site's type must not match")
	}
	// Asymmetry: the configuration entry (type 3) is never itself a
	// wildcard, so swapping operands must not match when types differ.
	if origin.Match(mismatchedProcessEntry) {
		t.Error("match must be asymmetric: the non-wildcard right-hand side should not rescue a mismatch")
	}
}

func TestEntrySamePointRequiresDistanceAndCoordinate(t *testing.T) {
	a := NewConfigMatchListEntry(1, Coordinate{1, 2, 3}, 0)
	b := NewConfigMatchListEntry(1, Coordinate{1, 2, 3 + Epsilon/2}, 1)
	c := NewConfigMatchListEntry(1, Coordinate{1, 2, 3 + Epsilon*10}, 2)
	if !a.SamePoint(b) {
		t.Error("points within epsilon on every component should be the same point")
	}
	if a.SamePoint(c) {
		t.Error("points differing by more than epsilon should not be the same point")
	}
}

func TestMatchListSortOrder(t *testing.T) {
	l := ConfigMatchList{
		NewConfigMatchListEntry(1, Coordinate{2, 0, 0}, 0), // distance 2
		NewConfigMatchListEntry(1, Coordinate{1, 0, 0}, 1), // distance 1, lex-larger coord among ties
		NewConfigMatchListEntry(1, Coordinate{0, 1, 0}, 2), // distance 1, lex-smaller coord among ties
	}
	l.Sort()
	if l[0].Distance() != 1 || l[1].Distance() != 1 || l[2].Distance() != 2 {
		t.Fatalf("expected ascending distance order, got %v %v %v", l[0].Distance(), l[1].Distance(), l[2].Distance())
	}
	// Among the distance-1 tie, the coordinate that sorts later in
	// plain lexicographic order comes first (reverse-lex secondary key).
	if l[0].Index() != 1 {
		t.Errorf("expected the (1,0,0) entry first among the distance-1 tie, got index %d", l[0].Index())
	}
}

func TestWhateverMatchRequiresEveryProcessEntryToFindAPoint(t *testing.T) {
	process := ProcessMatchList{
		NewProcessMatchListEntry(1, 0, Coordinate{0, 0, 0}),
		NewProcessMatchListEntry(Wildcard, 0, Coordinate{1, 0, 0}),
	}
	process.Sort()

	matching := ConfigMatchList{
		NewConfigMatchListEntry(1, Coordinate{0, 0, 0}, 0),
		NewConfigMatchListEntry(9, Coordinate{1, 0, 0}, 1),
	}
	matching.Sort()
	if !WhateverMatch(process.Points(), matching.Points()) {
		t.Error("expected process pattern to match: concrete entry matches, wildcard matches anything")
	}

	nonMatching := ConfigMatchList{
		NewConfigMatchListEntry(2, Coordinate{0, 0, 0}, 0), // wrong type for the concrete entry
		NewConfigMatchListEntry(9, Coordinate{1, 0, 0}, 1),
	}
	nonMatching.Sort()
	if WhateverMatch(process.Points(), nonMatching.Points()) {
		t.Error("expected process pattern to fail to match when a concrete entry's type differs")
	}
}
