package kmclattice

import "testing"

// buildTrivialLatticeModel builds a 10x10x1 lattice of all-"A" sites
// and a single process that matches A but leaves it unchanged,
// letting SingleStep run indefinitely without ever emptying the
// process's site list -- exercising the step loop's plumbing in
// isolation from any particular reaction's bookkeeping.
func buildTrivialLatticeModel(t *testing.T, seed int64) (*LatticeModel, *Process) {
	t.Helper()
	lm := NewLatticeMap(1, [3]int{10, 10, 1}, [3]bool{true, true, false})
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

	local := []LocalSite{{MatchType: pt["A"], Coord: Coordinate{0, 0, 0}}}
	rng := NewRandomStream(MersenneTwister, false, seed)
	p, err := NewProcess(local, local, 13.2, []int{0}, ProcessOptions{}, rng)
	if err != nil {
		t.Fatal(err)
	}
	in := NewInteractions([]ProcessLike{p}, nil, rng)
	m := NewLatticeModel(config, in, lm, rng, LatticeModelOptions{})
	return m, p
}

func TestNewLatticeModelInitializesProbabilityTable(t *testing.T) {
	m, _ := buildTrivialLatticeModel(t, 1)
	if got, want := m.TotalRate(), 13.2*100; got != want {
		t.Errorf("TotalRate: got %v want %v", got, want)
	}
	if got := m.SimulationTime(); got != 0 {
		t.Errorf("expected zero simulated time before any step, got %v", got)
	}
}

func TestSingleStepRepeatedlyPicksAvailableProcessAndAdvancesTime(t *testing.T) {
	m, p := buildTrivialLatticeModel(t, 42)

	prevTime := m.SimulationTime()
	for i := 0; i < 1000; i++ {
		m.SingleStep()

		idx := m.Interactions().PickedIndex()
		if idx < 0 {
			t.Fatalf("step %d: expected a non-negative picked process index, got %d", i, idx)
		}
		if p.NSites() == 0 {
			t.Fatalf("step %d: expected the process to always retain available sites", i)
		}
		if m.SimulationTime() < prevTime {
			t.Fatalf("step %d: simulated time went backwards: %v -> %v", i, prevTime, m.SimulationTime())
		}
		prevTime = m.SimulationTime()
	}
	if m.SimulationTime() <= 0 {
		t.Error("expected simulated time to have advanced after 1000 steps")
	}
}

func TestSingleStepIsDeterministicGivenAFixedSeed(t *testing.T) {
	m1, _ := buildTrivialLatticeModel(t, 7)
	m2, _ := buildTrivialLatticeModel(t, 7)

	for i := 0; i < 50; i++ {
		m1.SingleStep()
		m2.SingleStep()
		if m1.SimulationTime() != m2.SimulationTime() {
			t.Fatalf("step %d: simulated time diverged between identically-seeded runs: %v vs %v",
				i, m1.SimulationTime(), m2.SimulationTime())
		}
		if m1.Interactions().PickedIndex() != m2.Interactions().PickedIndex() {
			t.Fatalf("step %d: picked process index diverged between identically-seeded runs", i)
		}
	}
}

func TestRedistributeClassifiesAndRematchesAffectedNeighborhood(t *testing.T) {
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
	config, err := NewConfiguration(coords, elements, pt)
	if err != nil {
		t.Fatal(err)
	}

	local := []LocalSite{{MatchType: pt["A"], Coord: Coordinate{0, 0, 0}}}
	rng := NewRandomStream(MersenneTwister, false, 3)
	p, err := NewProcess(local, local, 1.0, []int{0, 1}, ProcessOptions{}, rng)
	if err != nil {
		t.Fatal(err)
	}
	in := NewInteractions([]ProcessLike{p}, nil, rng)
	m := NewLatticeModel(config, in, lm, rng, LatticeModelOptions{})

	affected, err := m.Redistribute([]string{"A"}, nil, 2, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(affected) == 0 {
		t.Fatal("expected at least one affected site from redistributing the A sites")
	}
}
