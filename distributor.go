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
	"math"

	"github.com/zyedidia/generic/queue"
)

// AcceptancePolicy decides whether a proposed redistribution move is
// accepted, given its energy delta. This replaces a hard-coded
// per-neighbor energy coefficient table with an injectable policy, so
// callers supply their own energetics instead of the core hard-coding
// a specific force field.
type AcceptancePolicy interface {
	Accept(deltaE float64, rng RandomStream) bool
}

// MetropolisPolicy is the standard Metropolis acceptance rule: always
// accept a non-increasing energy change, otherwise accept with
// probability exp(-deltaE / (kB*T)).
type MetropolisPolicy struct {
	KBT float64 // kB * T, in the same energy units as EnergyModel
}

// Accept implements AcceptancePolicy.
func (m MetropolisPolicy) Accept(deltaE float64, rng RandomStream) bool {
	if deltaE <= 0 {
		return true
	}
	return rng.Float64() < math.Exp(-deltaE/m.KBT)
}

// EnergyModel computes the local energy contribution of site i's
// neighborhood, used by ConstrainedRandomDistributor's optional
// Metropolis pass. Supplying this externally (rather than a built-in
// pairwise coefficient table) is the same injection the source's
// hard-coded 0.18/0.08 O-C/C-C coefficients are replaced with.
type EnergyModel interface {
	LocalEnergy(config *Configuration, lm *LatticeMap, site int) float64
}

// RandomDistributor shuffles fast-classified sites uniformly at
// random, or scatters extracted species onto redistribution-process
// matches.
type RandomDistributor struct {
	rng RandomStream
}

// NewRandomDistributor constructs a RandomDistributor drawing from rng.
func NewRandomDistributor(rng RandomStream) *RandomDistributor {
	return &RandomDistributor{rng: rng}
}

// Redistribute identifies all sites flagged fast (slow_flags false),
// gathers their (types, atom_ids, elements), and writes back a random
// permutation of those values. Returns the global indices affected.
func (d *RandomDistributor) Redistribute(config *Configuration) []int {
	var fastIdx []int
	for i := 0; i < config.NumSites(); i++ {
		if !config.SlowFlag(i) {
			fastIdx = append(fastIdx, i)
		}
	}
	n := len(fastIdx)
	if n == 0 {
		return nil
	}
	types := make([]int, n)
	atomIDs := make([]int, n)
	elements := make([]string, n)
	for k, idx := range fastIdx {
		types[k] = config.Type(idx)
		atomIDs[k] = config.AtomID(idx)
		elements[k] = config.Element(idx)
	}

	perm := make([]int, n)
	for k := range perm {
		perm[k] = k
	}
	d.rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	for k, idx := range fastIdx {
		src := perm[k]
		config.setType(idx, types[src])
		config.setElement(idx, elements[src])
		config.setAtomID(idx, atomIDs[src])
	}
	return fastIdx
}

// ProcessRedistribute extracts fastSpecies, temporarily replaces them
// with replaceSpecies (typically a vacancy type), re-matches the
// extracted neighborhood, then scatters each extracted species onto a
// position where some redistribution process matches.
func (d *RandomDistributor) ProcessRedistribute(config *Configuration, interactions *Interactions, sitesmap *SitesMap, lm *LatticeMap, fastSpecies []string, replaceSpecies string) ([]int, error) {
	species, positions := config.ExtractFastSpecies(fastSpecies, replaceSpecies)
	if len(positions) == 0 {
		return nil, nil
	}

	neighborhood := lm.SupersetNeighbourIndices(positions, interactions.MaxRange())
	CalculateMatching(interactions, config, sitesmap, lm, neighborhood)

	return d.scatterSpecies(config, interactions, sitesmap, lm, species, positions)
}

// pendingPlacement is one species' outstanding scatter request, plus
// how many times placing it has already failed this call.
type pendingPlacement struct {
	species string
	retries int
}

// scatterSpecies walks every extracted species and tries candidate
// free positions, in independently-shuffled order per species, until
// some redistribution process whose redist_species matches is listed
// at that position; it applies the process there and rematches the
// affected neighborhood. Species are driven off a queue.Queue rather
// than a plain slice because a placement failure re-enqueues the
// species instead of giving up immediately: another species placed in
// the meantime rematches its neighborhood, which can open a match that
// was not available on the first pass. Each species gets a bounded
// number of such retries before scatterSpecies surfaces
// RedistributionStuck, so a position set that can never satisfy a
// species still terminates instead of looping forever.
func (d *RandomDistributor) scatterSpecies(config *Configuration, interactions *Interactions, sitesmap *SitesMap, lm *LatticeMap, species []string, positions []int) ([]int, error) {
	affected := newIntSet()
	remaining := append([]int(nil), positions...)
	maxRetries := len(positions) + 1

	q := queue.New[pendingPlacement]()
	for _, sp := range species {
		q.Enqueue(pendingPlacement{species: sp})
	}

	for !q.Empty() {
		cur := q.Dequeue()

		var procOrder []ProcessLike
		for _, idx := range interactions.RedistIndices() {
			p := interactions.Process(idx)
			if p.RedistSpecies() == cur.species {
				procOrder = append(procOrder, p)
			}
		}
		if len(procOrder) == 0 {
			return nil, newError(RedistributionStuck, "no redistribution process declares redist_species %q", cur.species)
		}
		d.rng.Shuffle(len(procOrder), func(i, j int) { procOrder[i], procOrder[j] = procOrder[j], procOrder[i] })

		posOrder := append([]int(nil), remaining...)
		d.rng.Shuffle(len(posOrder), func(i, j int) { posOrder[i], posOrder[j] = posOrder[j], posOrder[i] })

		placedAt := -1
		for _, pos := range posOrder {
			for _, p := range procOrder {
				if !p.IsListed(pos) {
					continue
				}
				a, _ := config.PerformProcess(p, pos)
				for _, idx := range a {
					affected.add(idx)
				}
				localAffected := lm.SupersetNeighbourIndices(a, interactions.MaxRange())
				CalculateMatching(interactions, config, sitesmap, lm, localAffected)
				placedAt = pos
				break
			}
			if placedAt >= 0 {
				break
			}
		}

		if placedAt >= 0 {
			remaining = removeValue(remaining, placedAt)
			continue
		}
		if cur.retries >= maxRetries {
			return nil, newError(RedistributionStuck, "exhausted retry budget placing species %q", cur.species)
		}
		q.Enqueue(pendingPlacement{species: cur.species, retries: cur.retries + 1})
	}

	return affected.slice(), nil
}

// removeValue returns vals with the first occurrence of v removed.
func removeValue(vals []int, v int) []int {
	for i, x := range vals {
		if x == v {
			return append(vals[:i], vals[i+1:]...)
		}
	}
	return vals
}

// ConstrainedRandomDistributor splits the configuration into
// independent sub-lattice tiles, redistributes each in isolation, and
// writes results back; optionally gates each tile's redistribution
// behind a Metropolis acceptance test.
type ConstrainedRandomDistributor struct {
	*RandomDistributor
	policy AcceptancePolicy
	energy EnergyModel
}

// NewConstrainedRandomDistributor constructs a
// ConstrainedRandomDistributor. policy/energy may both be nil, in
// which case every tile's shuffle is accepted unconditionally.
func NewConstrainedRandomDistributor(rng RandomStream, policy AcceptancePolicy, energy EnergyModel) *ConstrainedRandomDistributor {
	return &ConstrainedRandomDistributor{
		RandomDistributor: NewRandomDistributor(rng),
		policy:            policy,
		energy:            energy,
	}
}

// Redistribute splits config into nx*ny*nz tiles via lm, redistributes
// each sub-configuration independently, optionally subject to
// Metropolis acceptance, and writes accepted results back to config.
// Returns the global indices of every fast site in each accepted tile,
// whether or not the shuffle changed its content (a Metropolis
// rejection contributes none).
func (d *ConstrainedRandomDistributor) Redistribute(config *Configuration, lm *LatticeMap, nx, ny, nz int) ([]int, error) {
	subs, err := config.Split(lm, nx, ny, nz)
	if err != nil {
		return nil, err
	}

	var affected []int
	for _, sub := range subs {
		before := snapshotSub(sub)
		eOld := d.localEnergy(sub, lm)

		changed := d.RandomDistributor.Redistribute(sub.Configuration)
		if len(changed) == 0 {
			continue
		}

		accept := true
		if d.policy != nil && d.energy != nil {
			eNew := d.localEnergy(sub, lm)
			accept = d.policy.Accept(eNew-eOld, d.rng)
		}

		if !accept {
			restoreSub(sub, before)
			continue
		}
		for _, li := range changed {
			affected = append(affected, sub.GlobalIndex[li])
		}
		writeBackSub(config, sub)
	}
	return affected, nil
}

// localEnergy sums EnergyModel.LocalEnergy over every site of sub,
// generalizing a per-neighbor coefficient lookup to the whole tile
// rather than a hard-coded coefficient table. lm is the parent lattice
// map -- sub-tiles do not carry their own.
func (d *ConstrainedRandomDistributor) localEnergy(sub *SubConfiguration, lm *LatticeMap) float64 {
	if d.energy == nil {
		return 0
	}
	var e float64
	for i := 0; i < sub.NumSites(); i++ {
		e += d.energy.LocalEnergy(sub.Configuration, lm, i)
	}
	return e
}

type subSnapshot struct {
	types    []int
	elements []string
	atomID   []int
}

func snapshotSub(sub *SubConfiguration) subSnapshot {
	n := sub.NumSites()
	s := subSnapshot{types: make([]int, n), elements: make([]string, n), atomID: make([]int, n)}
	for i := 0; i < n; i++ {
		s.types[i] = sub.Type(i)
		s.elements[i] = sub.Element(i)
		s.atomID[i] = sub.AtomID(i)
	}
	return s
}

func restoreSub(sub *SubConfiguration, snap subSnapshot) {
	for i, t := range snap.types {
		sub.setType(i, t)
		sub.setElement(i, snap.elements[i])
		sub.setAtomID(i, snap.atomID[i])
	}
}

// writeBackSub copies a sub-configuration's post-redistribution state
// into the parent configuration through its global-index mapping.
func writeBackSub(parent *Configuration, sub *SubConfiguration) {
	for li, gi := range sub.GlobalIndex {
		parent.setType(gi, sub.Type(li))
		parent.setElement(gi, sub.Element(li))
		parent.setAtomID(gi, sub.AtomID(li))
	}
}
