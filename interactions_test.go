package kmclattice

import "testing"

func threeSlowProcesses(t *testing.T, rates []float64) []ProcessLike {
	t.Helper()
	local := []LocalSite{{MatchType: Wildcard, Coord: Coordinate{0, 0, 0}}}
	var procs []ProcessLike
	for i, r := range rates {
		p, err := NewProcess(local, local, r, []int{0}, ProcessOptions{ProcessNumber: i}, &fakeStream{})
		if err != nil {
			t.Fatal(err)
		}
		p.AddSite(i, 0)
		procs = append(procs, p)
	}
	return procs
}

// TestPickProcessIndexCumulativeRates exercises the rate-proportional
// selection rule directly: three slow processes contribute rates
// 10, 20 and 70 (total 100), so a draw at U fraction f selects the
// first process whose cumulative rate reaches f*100, i.e. the one
// whose interval (lo, hi] contains it (f = 0 selects process 0).
func TestPickProcessIndexCumulativeRates(t *testing.T) {
	procs := threeSlowProcesses(t, []float64{10, 20, 70})
	rng := &fakeStream{floats: []float64{0.0, 0.29, 0.31, 0.999}}
	in := NewInteractions(procs, nil, rng)
	in.UpdateProbabilityTable()

	if got, want := in.TotalRate(), 100.0; got != want {
		t.Fatalf("TotalRate: got %v want %v", got, want)
	}

	want := []int{0, 1, 2, 2}
	for i, w := range want {
		if got := in.PickProcessIndex(); got != w {
			t.Errorf("draw %d (u fraction %v): got process %d want %d", i, rng.floats[i], got, w)
		}
		if got := in.PickedIndex(); got != w {
			t.Errorf("draw %d: PickedIndex disagrees with PickProcessIndex return: got %d want %d", i, got, w)
		}
	}
}

func TestPickProcessIndexSkipsZeroSiteProcesses(t *testing.T) {
	procs := threeSlowProcesses(t, []float64{10, 20, 70})
	procs[1].RemoveSite(1) // zero out the middle process's only site
	rng := &fakeStream{floats: []float64{0.15}}
	in := NewInteractions(procs, nil, rng)
	in.UpdateProbabilityTable()

	// u = 0.15*80 = 12, which would land in process 1's now-empty slot;
	// selection must skip forward to the next process with sites.
	if got := in.PickProcessIndex(); got != 2 {
		t.Errorf("expected selection to skip the zero-site process, got %d", got)
	}
}

func TestInteractionsPartitionsFastSlowRedistribution(t *testing.T) {
	local := []LocalSite{{MatchType: Wildcard, Coord: Coordinate{0, 0, 0}}}
	fast, _ := NewProcess(local, local, 1, []int{0}, ProcessOptions{Fast: true}, &fakeStream{})
	slow, _ := NewProcess(local, local, 1, []int{0}, ProcessOptions{}, &fakeStream{})
	redist, _ := NewProcess(local, local, 1, []int{0}, ProcessOptions{Redistribution: true, RedistSpecies: "A"}, &fakeStream{})

	in := NewInteractions([]ProcessLike{fast, slow, redist}, nil, &fakeStream{})
	if got := in.FastIndices(); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected fast index [0], got %v", got)
	}
	if got := in.SlowIndices(); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected slow index [1], got %v", got)
	}
	if got := in.RedistIndices(); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected redist index [2], got %v", got)
	}
	if got := in.RedistSpecies(); len(got) != 1 || got[0] != "A" {
		t.Errorf("expected redist species [A], got %v", got)
	}
}

func TestMaxRangeAtLeastOne(t *testing.T) {
	local := []LocalSite{{MatchType: Wildcard, Coord: Coordinate{0, 0, 0}}}
	p, _ := NewProcess(local, local, 1, []int{0}, ProcessOptions{}, &fakeStream{})
	in := NewInteractions([]ProcessLike{p}, nil, &fakeStream{})
	if in.MaxRange() < 1 {
		t.Errorf("expected MaxRange >= 1, got %d", in.MaxRange())
	}
}

// TestUpdateProcessMatchListsInsertsImplicitWildcards builds a
// single-basis process with 6 explicit local points on a lattice whose
// shells=2 neighborhood has 25 points, and checks that implicit
// wildcard insertion pads the process's match list out to the full
// neighborhood, leaving the explicit points untouched.
func TestUpdateProcessMatchListsInsertsImplicitWildcards(t *testing.T) {
	lm := NewLatticeMap(1, [3]int{6, 6, 1}, [3]bool{true, true, false})
	n := lm.NumSites()
	coords := make([]Coordinate, n)
	elements := make([]string, n)
	for i := 0; i < n; i++ {
		ci, cj, ck, _ := lm.IndexToCell(i)
		coords[i] = Coordinate{float64(ci), float64(cj), float64(ck)}
		elements[i] = "A"
	}
	pt := map[string]int{"*": 0, "A": 1}
	config, err := NewConfiguration(coords, elements, pt)
	if err != nil {
		t.Fatal(err)
	}
	config.InitMatchLists(lm, 2)

	before := []LocalSite{
		{MatchType: 1, Coord: Coordinate{0, 0, 0}},
		{MatchType: 1, Coord: Coordinate{1, 0, 0}},
		{MatchType: 1, Coord: Coordinate{-1, 0, 0}},
		{MatchType: 1, Coord: Coordinate{0, 1, 0}},
		{MatchType: 1, Coord: Coordinate{0, -1, 0}},
		{MatchType: 1, Coord: Coordinate{1, 1, 0}},
	}
	p, err := NewProcess(before, before, 1.0, []int{0}, ProcessOptions{}, &fakeStream{})
	if err != nil {
		t.Fatal(err)
	}

	in := NewInteractions([]ProcessLike{p}, nil, &fakeStream{})
	in.UpdateProcessMatchLists(config, lm)

	got := p.MatchList()
	if len(got) != 25 {
		t.Fatalf("expected the match list padded out to the full 25-point neighbourhood, got %d", len(got))
	}
	wildcards, explicit := 0, 0
	for _, e := range got {
		if e.MatchType() == Wildcard {
			wildcards++
		} else {
			explicit++
		}
	}
	if explicit != 6 {
		t.Errorf("expected the 6 explicit points to survive insertion untouched, got %d", explicit)
	}
	if wildcards != 19 {
		t.Errorf("expected 19 inserted wildcard points, got %d", wildcards)
	}
}
