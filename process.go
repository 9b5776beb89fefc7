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

// idMove is a pair of sorted-match-list positions describing which
// entries swap atom-id occupancy when a process fires.
type idMove struct {
	from, to int
}

// ProcessLike is the method set Interactions, Matcher, and Distributor
// operate against. *Process and *CustomRateProcess both satisfy it;
// CustomRateProcess embeds *Process and overrides the rate/site
// methods, so code must hold a ProcessLike (not a bare *Process) for
// that override to actually dispatch -- storing a CustomRateProcess in
// a []*Process would silently call the embedded Process's methods
// instead of the override, since Go has no virtual dispatch through
// struct embedding.
type ProcessLike interface {
	Range() int
	Cutoff() float64
	RateConstant() float64
	ProcessNumber() int
	HasSiteTypes() bool
	Fast() bool
	Redistribution() bool
	RedistSpecies() string
	MatchList() ProcessMatchList
	SetMatchList(ProcessMatchList)
	IDMoves() []idMove
	SetIDMoves([]idMove)
	BasisSiteAllowed(int) bool
	SingleBasisSite() (int, bool)
	Sites() []int
	NSites() int
	IsListed(int) bool
	AddSite(index int, rate float64)
	RemoveSite(index int)
	PickSite() int
	TotalRate() float64
	UpdateRateTable()
}

// LocalSite is a single entry of a process's local before/after
// pattern, as supplied by the external caller: a match type, the
// coordinate relative to the process origin, and -- for the "after"
// side -- the type the site becomes.
type LocalSite struct {
	MatchType int
	Coord     Coordinate
}

// Process is the transition rule: a sorted local pattern (before), the
// post-state (after), a rate constant, applicable basis sites, an
// atom-id move graph, and flags.
type Process struct {
	processNumber int
	rangeShells   int
	cutoff        float64
	rate          float64

	sites     []int
	siteIndex map[int]int // index of s in sites, for O(1) IsListed/RemoveSite

	matchList  ProcessMatchList
	basisSites map[int]bool
	idMoves    []idMove

	hasSiteTypes    bool
	siteTypes       []int
	fast            bool
	redistribution  bool
	redistSpecies   string

	rng RandomStream
}

// ProcessOptions groups the optional construction parameters for
// NewProcess (move origins/vectors, process number, site types, fast/
// redistribution flags).
type ProcessOptions struct {
	MoveOrigins    []int
	MoveVectors    []Coordinate
	ProcessNumber  int
	SiteTypes      []int
	Fast           bool
	Redistribution bool
	RedistSpecies  string
}

// NewProcess builds a Process from paired before/after local patterns
// (same coordinates, before.MatchType is the matched type, after
// gives the update type each position is rewritten to), basis sites,
// and options. It derives range, cutoff, and the id-moves list.
func NewProcess(before, after []LocalSite, rate float64, basisSites []int, opt ProcessOptions, rng RandomStream) (*Process, error) {
	if len(before) != len(after) {
		return nil, newError(CoordinateMismatch, "before/after local patterns have different lengths: %d != %d", len(before), len(after))
	}
	for i := range before {
		if !before[i].Coord.Equal(after[i].Coord) {
			return nil, newError(CoordinateMismatch, "before/after coordinates differ at position %d", i)
		}
	}
	if opt.Redistribution && opt.RedistSpecies == "" {
		return nil, newError(MissingRedistSpecies, "process flagged as redistribution carries an empty species string")
	}

	entries := make(ProcessMatchList, len(before))
	for i := range before {
		entries[i] = NewProcessMatchListEntry(before[i].MatchType, after[i].MatchType, before[i].Coord)
	}

	moveByOrigin := make(map[int]Coordinate, len(opt.MoveOrigins))
	for i, origin := range opt.MoveOrigins {
		if i < len(opt.MoveVectors) {
			moveByOrigin[origin] = opt.MoveVectors[i]
		}
	}
	for i, e := range entries {
		if mv, ok := moveByOrigin[i]; ok {
			e.SetMoveCoordinate(mv)
		}
	}

	entries.Sort()

	rangeShells := 0
	cutoff := 0.0
	for _, e := range entries {
		for _, comp := range []float64{e.Coord().X, e.Coord().Y, e.Coord().Z} {
			if a := absCeil(comp); a > rangeShells {
				rangeShells = a
			}
		}
		if d := e.Distance(); d > cutoff {
			cutoff = d
		}
	}
	if rangeShells < 1 {
		rangeShells = 1
	}

	moves := computeIDMoves(entries)

	basisSet := make(map[int]bool, len(basisSites))
	for _, b := range basisSites {
		basisSet[b] = true
	}

	p := &Process{
		processNumber:  opt.ProcessNumber,
		rangeShells:    rangeShells,
		cutoff:         cutoff,
		rate:           rate,
		matchList:      entries,
		basisSites:     basisSet,
		hasSiteTypes:   len(opt.SiteTypes) > 0,
		siteTypes:      opt.SiteTypes,
		fast:           opt.Fast,
		redistribution: opt.Redistribution,
		redistSpecies:  opt.RedistSpecies,
		siteIndex:      make(map[int]int),
		rng:            rng,
		idMoves:        moves,
	}
	return p, nil
}

// absCeil returns ceil(|v|) + 1 as an int (the ceiling taken with
// Epsilon tolerance), used to derive a process's range from its
// match-list coordinates: one more than the max absolute cell offset
// implied by the process's coordinates.
func absCeil(v float64) int {
	if v < 0 {
		v = -v
	}
	n := int(v)
	if float64(n) < v-Epsilon {
		n++
	}
	return n + 1
}

// computeIDMoves rewrites each moving entry's destination index by
// finding, in the already-sorted entries list, the unique position
// whose point equals the origin's point shifted by its move
// coordinate. It also populates p.idMoves via the caller.
func computeIDMoves(entries ProcessMatchList) []idMove {
	var moves []idMove
	for i, e := range entries {
		if !e.HasMoveCoordinate() {
			continue
		}
		target := e.Coord().Add(e.MoveCoordinate())
		for j, cand := range entries {
			if cand.Coord().Equal(target) {
				e.SetDestEntry(j)
				moves = append(moves, idMove{from: i, to: j})
				break
			}
		}
	}
	return moves
}

// Range returns the process's range in cells.
func (p *Process) Range() int { return p.rangeShells }

// Cutoff returns the process's cutoff radius.
func (p *Process) Cutoff() float64 { return p.cutoff }

// RateConstant returns the process's base rate constant.
func (p *Process) RateConstant() float64 { return p.rate }

// ProcessNumber returns the caller-supplied process identifier.
func (p *Process) ProcessNumber() int { return p.processNumber }

// HasSiteTypes reports whether this process constrains by site type.
func (p *Process) HasSiteTypes() bool { return p.hasSiteTypes }

// Fast reports whether this is a fast process.
func (p *Process) Fast() bool { return p.fast }

// Redistribution reports whether this is a redistribution process.
func (p *Process) Redistribution() bool { return p.redistribution }

// RedistSpecies returns the species this process redistributes.
func (p *Process) RedistSpecies() string { return p.redistSpecies }

// MatchList returns the process's sorted local pattern.
func (p *Process) MatchList() ProcessMatchList { return p.matchList }

// SetMatchList replaces the process's match list wholesale (used by
// implicit-wildcard expansion).
func (p *Process) SetMatchList(l ProcessMatchList) { p.matchList = l }

// IDMoves returns the process's id-moves list.
func (p *Process) IDMoves() []idMove { return p.idMoves }

// SetIDMoves replaces the process's id-moves list (implicit-wildcard
// expansion rewrites indices after insertion).
func (p *Process) SetIDMoves(moves []idMove) { p.idMoves = moves }

// BasisSiteAllowed reports whether b is one of this process's
// applicable basis sites.
func (p *Process) BasisSiteAllowed(b int) bool { return p.basisSites[b] }

// SingleBasisSite returns the process's sole applicable basis site and
// true, or (0, false) if the process applies to zero or more than one
// basis site. Used by implicit-wildcard expansion, which only applies
// to single-basis processes.
func (p *Process) SingleBasisSite() (int, bool) {
	if len(p.basisSites) != 1 {
		return 0, false
	}
	for b := range p.basisSites {
		return b, true
	}
	return 0, false
}

// Sites returns the list of currently-listed available sites.
func (p *Process) Sites() []int { return p.sites }

// NSites returns the number of currently-listed available sites.
func (p *Process) NSites() int { return len(p.sites) }

// IsListed reports whether index is a currently-listed available site.
func (p *Process) IsListed(index int) bool {
	_, ok := p.siteIndex[index]
	return ok
}

// AddSite appends index to the list of available sites. rate is
// ignored for constant-rate processes; CustomRateProcess overrides
// this to record a per-site rate.
func (p *Process) AddSite(index int, rate float64) {
	p.siteIndex[index] = len(p.sites)
	p.sites = append(p.sites, index)
}

// RemoveSite removes index from the available-sites list in O(1) via
// swap-with-last.
func (p *Process) RemoveSite(index int) {
	i, ok := p.siteIndex[index]
	if !ok {
		return
	}
	last := len(p.sites) - 1
	p.sites[i] = p.sites[last]
	p.siteIndex[p.sites[i]] = i
	p.sites = p.sites[:last]
	delete(p.siteIndex, index)
}

// PickSite returns a uniformly-random currently-listed site.
func (p *Process) PickSite() int {
	return p.sites[p.rng.Intn(len(p.sites))]
}

// TotalRate returns rate * |sites| for a constant-rate process.
func (p *Process) TotalRate() float64 {
	return p.rate * float64(len(p.sites))
}

// UpdateRateTable is a no-op for constant-rate processes; overridden
// behavior lives on CustomRateProcess.
func (p *Process) UpdateRateTable() {}

// CustomRateProcess is a Process whose per-site rate is supplied
// externally (via the rate callback) rather than a shared constant.
type CustomRateProcess struct {
	*Process
	siteRates            []float64
	incrementalRateTable []float64
}

// NewCustomRateProcess wraps p with per-site custom rate bookkeeping.
func NewCustomRateProcess(p *Process) *CustomRateProcess {
	return &CustomRateProcess{Process: p}
}

// AddSite appends index with its externally-supplied rate.
func (p *CustomRateProcess) AddSite(index int, rate float64) {
	p.Process.AddSite(index, rate)
	p.siteRates = append(p.siteRates, rate)
}

// RemoveSite removes index, swapping its rate entry with the last one
// to keep siteRates aligned with sites.
func (p *CustomRateProcess) RemoveSite(index int) {
	i, ok := p.siteIndex[index]
	if !ok {
		return
	}
	last := len(p.siteRates) - 1
	p.siteRates[i] = p.siteRates[last]
	p.siteRates = p.siteRates[:last]
	p.Process.RemoveSite(index)
}

// SetSiteRate overwrites the rate recorded for the site currently at
// listed position i. CalculateMatching does not call it: it refreshes
// an UPDATE task through RemoveSite followed by AddSite.
func (p *CustomRateProcess) SetSiteRate(i int, rate float64) {
	p.siteRates[i] = rate
}

// SiteRates returns the per-site rate array, aligned with Sites().
func (p *CustomRateProcess) SiteRates() []float64 { return p.siteRates }

// UpdateRateTable sorts nothing (sites stay in listed order) but
// rebuilds the incremental prefix-sum table used by PickSite.
func (p *CustomRateProcess) UpdateRateTable() {
	p.incrementalRateTable = make([]float64, len(p.siteRates))
	floats.CumSum(p.incrementalRateTable, p.siteRates)
}

// TotalRate returns the last element of the incremental rate table.
func (p *CustomRateProcess) TotalRate() float64 {
	if len(p.incrementalRateTable) == 0 {
		return 0
	}
	return p.incrementalRateTable[len(p.incrementalRateTable)-1]
}

// PickSite samples a site by binary search into the incremental rate
// table, weighted by each site's custom rate.
func (p *CustomRateProcess) PickSite() int {
	total := p.TotalRate()
	u := p.rng.Float64() * total
	i := sort.Search(len(p.incrementalRateTable), func(i int) bool {
		return p.incrementalRateTable[i] >= u
	})
	if i >= len(p.sites) {
		i = len(p.sites) - 1
	}
	return p.sites[i]
}
