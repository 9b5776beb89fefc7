package kmclattice

import "testing"

// reverseShuffleStream is a deterministic RandomStream stand-in whose
// Shuffle reverses element order, so distributor tests can assert on
// an exact resulting permutation instead of a statistical property.
type reverseShuffleStream struct{ fakeStream }

func (r *reverseShuffleStream) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func TestRandomDistributorRedistributePermutesOnlyFastSites(t *testing.T) {
	pt := possibleTypesABV()
	coords := []Coordinate{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
	elements := []string{"A", "B", "B", "B"}
	c, err := NewConfiguration(coords, elements, pt)
	if err != nil {
		t.Fatal(err)
	}
	// Mark sites 0 and 2 fast (slow_flag=false); 1 and 3 stay slow.
	c.SetSlowFlag(0, false)
	c.SetSlowFlag(1, true)
	c.SetSlowFlag(2, false)
	c.SetSlowFlag(3, true)

	slowElementBefore1 := c.Element(1)
	slowElementBefore3 := c.Element(3)

	d := NewRandomDistributor(&reverseShuffleStream{})
	affected := d.Redistribute(c)

	if len(affected) != 2 {
		t.Fatalf("expected exactly the 2 fast sites affected, got %v", affected)
	}
	// The reversing shuffle swaps the two fast sites' contents: site 0
	// (originally A) and site 2 (originally B) trade places.
	if c.Element(0) != "B" || c.Element(2) != "A" {
		t.Errorf("expected the fast sites' contents to swap, got site0=%q site2=%q", c.Element(0), c.Element(2))
	}
	if c.Element(1) != slowElementBefore1 || c.Element(3) != slowElementBefore3 {
		t.Error("slow-flagged sites must not be touched by Redistribute")
	}
}

func TestRandomDistributorRedistributeNoFastSitesIsNoop(t *testing.T) {
	pt := possibleTypesABV()
	c, err := NewConfiguration([]Coordinate{{0, 0, 0}}, []string{"A"}, pt)
	if err != nil {
		t.Fatal(err)
	}
	c.SetSlowFlag(0, true)
	d := NewRandomDistributor(&reverseShuffleStream{})
	if got := d.Redistribute(c); got != nil {
		t.Errorf("expected no affected sites when nothing is fast, got %v", got)
	}
}

func TestProcessRedistributeReturnsRedistributionStuckWithNoMatchingProcess(t *testing.T) {
	lm := NewLatticeMap(1, [3]int{3, 1, 1}, [3]bool{true, false, false})
	pt := possibleTypesABV()
	c, err := NewConfiguration(
		[]Coordinate{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		[]string{"A", "V", "V"}, pt)
	if err != nil {
		t.Fatal(err)
	}
	c.InitMatchLists(lm, 1)

	// No redistribution process at all is registered for species "A".
	in := NewInteractions(nil, nil, &reverseShuffleStream{})
	d := NewRandomDistributor(&reverseShuffleStream{})

	_, err = d.ProcessRedistribute(c, in, nil, lm, []string{"A"}, "V")
	if err == nil || !IsKind(err, RedistributionStuck) {
		t.Fatalf("expected RedistributionStuck, got %v", err)
	}
}

func TestProcessRedistributePlacesExtractedSpecies(t *testing.T) {
	lm := NewLatticeMap(1, [3]int{3, 1, 1}, [3]bool{true, false, false})
	pt := possibleTypesABV()
	c, err := NewConfiguration(
		[]Coordinate{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		[]string{"A", "V", "V"}, pt)
	if err != nil {
		t.Fatal(err)
	}
	c.InitMatchLists(lm, 1)

	before := []LocalSite{{MatchType: pt["V"], Coord: Coordinate{0, 0, 0}}}
	after := []LocalSite{{MatchType: pt["A"], Coord: Coordinate{0, 0, 0}}}
	refill, err := NewProcess(before, after, 0, []int{0}, ProcessOptions{
		Redistribution: true,
		RedistSpecies:  "A",
	}, &reverseShuffleStream{})
	if err != nil {
		t.Fatal(err)
	}

	in := NewInteractions([]ProcessLike{refill}, nil, &reverseShuffleStream{})
	d := NewRandomDistributor(&reverseShuffleStream{})

	affected, err := d.ProcessRedistribute(c, in, nil, lm, []string{"A"}, "V")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(affected) == 0 {
		t.Fatal("expected at least one affected site")
	}

	found := false
	for i := 0; i < c.NumSites(); i++ {
		if c.Element(i) == "A" {
			found = true
		}
	}
	if !found {
		t.Error("expected the extracted A species to be placed back somewhere in the lattice")
	}
}

func TestConstrainedRandomDistributorWriteBackPreservesTileContent(t *testing.T) {
	lm := NewLatticeMap(2, [3]int{4, 4, 4}, [3]bool{true, true, true})
	n := lm.NumSites()
	pt := possibleTypesABV()
	coords := make([]Coordinate, n)
	elements := make([]string, n)
	for i := 0; i < n; i++ {
		ci, cj, ck, _ := lm.IndexToCell(i)
		coords[i] = Coordinate{float64(ci), float64(cj), float64(ck)}
		if i%2 == 0 {
			elements[i] = "A"
		} else {
			elements[i] = "B"
		}
	}
	c, err := NewConfiguration(coords, elements, pt)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		c.SetSlowFlag(i, false) // everything fast, so every tile reshuffles
	}

	before := make(map[string]int)
	for i := 0; i < n; i++ {
		before[c.Element(i)]++
	}

	d := NewConstrainedRandomDistributor(&reverseShuffleStream{}, nil, nil)
	affected, err := d.Redistribute(c, lm, 2, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(affected) == 0 {
		t.Fatal("expected at least one affected global index across the 8 tiles")
	}

	after := make(map[string]int)
	for i := 0; i < n; i++ {
		after[c.Element(i)]++
	}
	if before["A"] != after["A"] || before["B"] != after["B"] {
		t.Errorf("expected element counts preserved across tile-local shuffles, before=%v after=%v", before, after)
	}
}
