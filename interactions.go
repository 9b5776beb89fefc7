/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package kmclattice

import (
	"sort"

	"github.com/gonum/floats"
)

// probRow is one row of the cumulative probability table: a running
// prefix sum of total_rate(), and the site count used to skip
// zero-availability processes during selection.
type probRow struct {
	prefix float64
	nSites int
}

// Interactions is the owning collection of processes; it maintains
// the slow/fast/redistribution partitions, the cumulative probability
// table, and implicit-wildcard expansion.
type Interactions struct {
	processes []ProcessLike

	fastIdx   []int
	slowIdx   []int
	redistIdx []int

	probabilityTable []probRow
	availableSites   []int
	pickedIndex      int

	useCustomRates bool
	rateCalculator RateCalculator
	rng            RandomStream
}

// NewInteractions records processes, partitions them into fast/slow/
// redistribution index views (a process's stable index is its
// position in this slice, so nothing needs to store a back-reference
// to it), and sizes the probability table to |slow|.
func NewInteractions(processes []ProcessLike, rateCalculator RateCalculator, rng RandomStream) *Interactions {
	in := &Interactions{
		processes:      processes,
		rateCalculator: rateCalculator,
		rng:            rng,
	}
	for i, p := range processes {
		switch {
		case p.Fast():
			in.fastIdx = append(in.fastIdx, i)
		case p.Redistribution():
			in.redistIdx = append(in.redistIdx, i)
		default:
			in.slowIdx = append(in.slowIdx, i)
		}
		if _, ok := p.(*CustomRateProcess); ok {
			in.useCustomRates = true
		}
	}
	in.probabilityTable = make([]probRow, len(in.slowIdx))
	in.availableSites = make([]int, len(processes))
	return in
}

// Processes returns every process, in construction (stable-index)
// order.
func (in *Interactions) Processes() []ProcessLike { return in.processes }

// Process resolves a stable process index to its ProcessLike.
func (in *Interactions) Process(i int) ProcessLike { return in.processes[i] }

// FastIndices returns the stable indices of fast processes.
func (in *Interactions) FastIndices() []int { return in.fastIdx }

// SlowIndices returns the stable indices of slow processes.
func (in *Interactions) SlowIndices() []int { return in.slowIdx }

// RedistIndices returns the stable indices of redistribution
// processes.
func (in *Interactions) RedistIndices() []int { return in.redistIdx }

// MaxRange returns the maximum process range, at least 1.
func (in *Interactions) MaxRange() int {
	max := 1
	for _, p := range in.processes {
		if p.Range() > max {
			max = p.Range()
		}
	}
	return max
}

// UpdateProcessMatchLists performs implicit-wildcard expansion: for
// every process whose basis_sites names a single basis b, it walks
// the process's match list against the configuration's match list at
// the lattice's central cell (basis b), inserting a wildcard entry
// wherever the configuration has a point the process does not cover.
func (in *Interactions) UpdateProcessMatchLists(config *Configuration, lm *LatticeMap) {
	rep := lm.Repetitions()
	ci, cj, ck := rep[0]/2, rep[1]/2, rep[2]/2

	for _, p := range in.processes {
		b, ok := p.SingleBasisSite()
		if !ok {
			continue
		}
		centralSite := lm.IndexFromCell(ci, cj, ck, b)
		cfgList := config.MatchList(centralSite)

		merged, oldToNew := mergeWildcards(p.MatchList(), cfgList)
		p.SetMatchList(merged)
		p.SetIDMoves(remapIDMoves(p.IDMoves(), oldToNew))
	}
}

// mergeWildcards walks process and cfg (both sorted by the canonical
// match-list order) and returns the expanded process list plus the
// old-index -> new-index map for every surviving process entry.
func mergeWildcards(process ProcessMatchList, cfg ConfigMatchList) (ProcessMatchList, map[int]int) {
	result := make(ProcessMatchList, 0, len(process)+len(cfg))
	oldToNew := make(map[int]int, len(process))
	i, j := 0, 0
	for i < len(process) && j < len(cfg) {
		pe, ce := process[i], cfg[j]
		switch {
		case pe.SamePoint(ce):
			oldToNew[i] = len(result)
			result = append(result, pe)
			i++
			j++
		case lessEntry(pe, ce):
			oldToNew[i] = len(result)
			result = append(result, pe)
			i++
		default:
			result = append(result, NewProcessMatchListEntry(Wildcard, Wildcard, ce.Coord()))
			j++
		}
	}
	for ; i < len(process); i++ {
		oldToNew[i] = len(result)
		result = append(result, process[i])
	}
	for ; j < len(cfg); j++ {
		result = append(result, NewProcessMatchListEntry(Wildcard, Wildcard, cfg[j].Coord()))
	}
	for oldIdx, e := range process {
		if d := e.DestEntry(); d >= 0 {
			if nd, ok := oldToNew[d]; ok {
				result[oldToNew[oldIdx]].SetDestEntry(nd)
			}
		}
	}
	return result, oldToNew
}

// remapIDMoves rewrites id-move index pairs through the old->new
// index map constructed during wildcard insertion, applying the
// insertion-time old->new index map as a small side vector in a
// second pass.
func remapIDMoves(moves []idMove, oldToNew map[int]int) []idMove {
	out := make([]idMove, 0, len(moves))
	for _, m := range moves {
		from, okF := oldToNew[m.from]
		to, okT := oldToNew[m.to]
		if okF && okT {
			out = append(out, idMove{from: from, to: to})
		}
	}
	return out
}

// UpdateProbabilityTable walks the slow-process indices and writes a
// running prefix sum of total_rate() into each row, storing n_sites
// so zero-site entries can be skipped during selection.
func (in *Interactions) UpdateProbabilityTable() {
	rates := make([]float64, len(in.slowIdx))
	for i, idx := range in.slowIdx {
		p := in.processes[idx]
		p.UpdateRateTable()
		rates[i] = p.TotalRate()
	}
	prefix := make([]float64, len(rates))
	floats.CumSum(prefix, rates)
	for i, idx := range in.slowIdx {
		in.probabilityTable[i] = probRow{prefix: prefix[i], nSites: in.processes[idx].NSites()}
	}
}

// UpdateProcessAvailableSites recalculates the per-process available
// site counts used by ProcessAvailableSites/TotalAvailableSites.
func (in *Interactions) UpdateProcessAvailableSites() {
	for i, p := range in.processes {
		in.availableSites[i] = p.NSites()
	}
}

// ProcessAvailableSites returns the available-site count for every
// process, indexed by stable process index.
func (in *Interactions) ProcessAvailableSites() []int { return in.availableSites }

// TotalAvailableSites sums available sites across every process.
func (in *Interactions) TotalAvailableSites() int {
	total := 0
	for _, n := range in.availableSites {
		total += n
	}
	return total
}

// TotalRate returns the last prefix value of the probability table.
func (in *Interactions) TotalRate() float64 {
	if len(in.probabilityTable) == 0 {
		return 0
	}
	return in.probabilityTable[len(in.probabilityTable)-1].prefix
}

// PickProcessIndex draws U in [0, TotalRate()) and returns the slow
// process's stable index whose prefix row is the first one >= U with
// a positive site count. Stores the chosen stable index in
// PickedIndex for external inspection.
func (in *Interactions) PickProcessIndex() int {
	total := in.TotalRate()
	u := in.rng.Float64() * total
	// The cumulative sum only advances at entries with nSites>0 (a
	// zero-site process contributes zero to total_rate), so the search
	// lands on a zero-site row only when u equals a prefix it shares
	// with earlier rows (for example u == 0 with leading zero-site
	// rows); the loop below steps forward past such rows instead of
	// substituting +infinity for them.
	row := sort.Search(len(in.probabilityTable), func(i int) bool {
		return in.probabilityTable[i].prefix >= u
	})
	if row >= len(in.slowIdx) {
		row = len(in.slowIdx) - 1
	}
	for row < len(in.probabilityTable)-1 && in.probabilityTable[row].nSites == 0 {
		row++
	}
	in.pickedIndex = in.slowIdx[row]
	return in.pickedIndex
}

// PickProcess resolves the stable index chosen by PickProcessIndex.
func (in *Interactions) PickProcess() ProcessLike {
	return in.processes[in.PickProcessIndex()]
}

// PickedIndex returns the stable process index picked by the most
// recent PickProcessIndex call.
func (in *Interactions) PickedIndex() int { return in.pickedIndex }

// RedistSpecies returns the species named by redistribution
// processes, deduplicated, in first-seen order.
func (in *Interactions) RedistSpecies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, idx := range in.redistIdx {
		sp := in.processes[idx].RedistSpecies()
		if !seen[sp] {
			seen[sp] = true
			out = append(out, sp)
		}
	}
	return out
}

// UseCustomRates reports whether any process in this collection uses
// custom (per-site) rates.
func (in *Interactions) UseCustomRates() bool { return in.useCustomRates }

// RateCalculator returns the configured custom-rate callback.
func (in *Interactions) RateCalculator() RateCalculator { return in.rateCalculator }
