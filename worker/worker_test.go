package worker

import (
	"testing"

	"github.com/spatialmodel/kmclattice"
)

func TestTaskInputClassifyMatchesDirectPath(t *testing.T) {
	process := []Point{
		{MatchType: 1, Distance: 0, Coord: kmclattice.Coordinate{}},
		{MatchType: kmclattice.Wildcard, Distance: 1, Coord: kmclattice.Coordinate{X: 1}},
	}
	matching := []Point{
		{MatchType: 1, Distance: 0, Coord: kmclattice.Coordinate{}},
		{MatchType: 9, Distance: 1, Coord: kmclattice.Coordinate{X: 1}},
	}
	nonMatching := []Point{
		{MatchType: 2, Distance: 0, Coord: kmclattice.Coordinate{}},
		{MatchType: 9, Distance: 1, Coord: kmclattice.Coordinate{X: 1}},
	}

	direct := kmclattice.WhateverMatch(points(process), points(matching))
	if !direct {
		t.Fatal("expected the direct WhateverMatch path to match")
	}

	cases := []struct {
		name      string
		wasListed bool
		cfg       []Point
		want      TaskKind
	}{
		{"add", false, matching, Add},
		{"update", true, matching, Update},
		{"remove", true, nonMatching, Remove},
		{"discard", false, nonMatching, Discard},
	}
	for _, c := range cases {
		in := TaskInput{ProcessMatchList: process, ConfigMatchList: c.cfg, WasListed: c.wasListed}
		if got := in.classify(); got != c.want {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestWorkerClassifyBatchPreservesOrderAndMatchesDirectPath(t *testing.T) {
	process := []Point{{MatchType: 1, Distance: 0, Coord: kmclattice.Coordinate{}}}
	matching := []Point{{MatchType: 1, Distance: 0, Coord: kmclattice.Coordinate{}}}
	nonMatching := []Point{{MatchType: 2, Distance: 0, Coord: kmclattice.Coordinate{}}}

	req := &BatchRequest{Tasks: []TaskInput{
		{ProcessMatchList: process, ConfigMatchList: matching, WasListed: false},
		{ProcessMatchList: process, ConfigMatchList: nonMatching, WasListed: true},
		{ProcessMatchList: process, ConfigMatchList: matching, WasListed: true},
	}}
	var resp BatchResponse
	w := NewWorker()
	if err := w.ClassifyBatch(req, &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TaskKind{Add, Remove, Update}
	if len(resp.Kinds) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(resp.Kinds))
	}
	for i, k := range want {
		if resp.Kinds[i] != k {
			t.Errorf("task %d: got %v want %v", i, resp.Kinds[i], k)
		}
		direct := req.Tasks[i].classify()
		if direct != resp.Kinds[i] {
			t.Errorf("task %d: batch result %v disagrees with the direct classify() path %v", i, resp.Kinds[i], direct)
		}
	}
}

// constantRateCalculator returns a fixed rate for every candidate,
// letting the test assert pure pass-through plumbing.
type constantRateCalculator struct{ rate float64 }

func (c constantRateCalculator) Rate(geometry []kmclattice.Coordinate, typesBefore, typesAfter []int, baseRate float64, processNumber int, globalCoord kmclattice.Coordinate) float64 {
	return c.rate
}

func TestRateWorkerClassifyBatchDelegatesToCalculator(t *testing.T) {
	w := NewRateWorker(constantRateCalculator{rate: 2.5})
	req := &RateBatchRequest{Tasks: []RateTaskInput{
		{BaseRate: 1.0, ProcessNumber: 0},
		{BaseRate: 1.0, ProcessNumber: 1},
	}}
	var resp RateBatchResponse
	if err := w.ClassifyBatch(req, &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Rates) != 2 || resp.Rates[0] != 2.5 || resp.Rates[1] != 2.5 {
		t.Fatalf("expected both rates to flow through the injected calculator, got %v", resp.Rates)
	}
}
