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

// buildTypeNames constructs the type-int -> name inverse table from a
// possible-types mapping, sized to max(type)+1. Shared by Configuration
// and SitesMap, both of which carry the same possible-types contract.
func buildTypeNames(possibleTypes map[string]int) []string {
	max := 0
	for _, t := range possibleTypes {
		if t > max {
			max = t
		}
	}
	names := make([]string, max+1)
	for name, t := range possibleTypes {
		names[t] = name
	}
	return names
}

// relativeWrapped returns the coordinate of site idx relative to site
// origin, wrapped per lm's periodicity.
func relativeWrapped(lm *LatticeMap, coords []Coordinate, origin, idx int) Coordinate {
	return lm.Wrap(coords[idx].Sub(coords[origin]))
}

// Configuration is the mutable lattice state: per-site type, per-site
// atom-id, per-atom-id coordinate (for tracking motion through
// periodic images), cached per-site neighborhood match lists, and
// slow/fast classification flags.
type Configuration struct {
	coordinates []Coordinate // immutable after construction
	types       []int        // mutable
	elements    []string     // mutable, kept consistent with types
	atomID      []int        // mutable: which atom currently occupies site i
	atomCoord   []Coordinate // mutable: cumulative unwrapped coordinate of atom a
	atomElement []string     // mutable
	slowFlags   []bool       // mutable
	matchLists  []ConfigMatchList

	possibleTypes map[string]int
	typeNames     []string

	// scratch buffers for performProcess, sized to the widest cached
	// match list by InitMatchLists.
	movedAtomIDs    []int
	recentMoveVecs  []Coordinate
	affectedIndices []int
	nMoved          int
}

// NewConfiguration establishes the parallel arrays, assigns
// atomID[i]=i, copies coordinates into the per-atom tracked
// coordinate, and computes the type-name table as the inverse of
// possibleTypes.
func NewConfiguration(coordinates []Coordinate, elements []string, possibleTypes map[string]int) (*Configuration, error) {
	n := len(coordinates)
	if len(elements) != n {
		return nil, newError(CoordinateMismatch, "coordinates and elements have different lengths: %d != %d", n, len(elements))
	}
	typeNames := buildTypeNames(possibleTypes)

	c := &Configuration{
		coordinates:   append([]Coordinate(nil), coordinates...),
		types:         make([]int, n),
		elements:      append([]string(nil), elements...),
		atomID:        make([]int, n),
		atomCoord:     append([]Coordinate(nil), coordinates...),
		atomElement:   append([]string(nil), elements...),
		slowFlags:     make([]bool, n),
		matchLists:    make([]ConfigMatchList, n),
		possibleTypes: possibleTypes,
		typeNames:     typeNames,
	}
	for i := 0; i < n; i++ {
		t, ok := possibleTypes[elements[i]]
		if !ok {
			return nil, newError(ElementTypeError, "element %q not present in possible-types map", elements[i])
		}
		c.types[i] = t
		c.atomID[i] = i
		c.slowFlags[i] = true
	}
	return c, nil
}

// NumSites returns N, the number of lattice sites.
func (c *Configuration) NumSites() int { return len(c.coordinates) }

// Coordinate returns the immutable fractional coordinate of site i.
func (c *Configuration) Coordinate(i int) Coordinate { return c.coordinates[i] }

// Type returns the current species type of site i.
func (c *Configuration) Type(i int) int { return c.types[i] }

// Element returns the current species name of site i.
func (c *Configuration) Element(i int) string { return c.elements[i] }

// AtomID returns the atom-id currently occupying site i.
func (c *Configuration) AtomID(i int) int { return c.atomID[i] }

// AtomCoordinate returns the cumulative unwrapped coordinate of atom a.
func (c *Configuration) AtomCoordinate(a int) Coordinate { return c.atomCoord[a] }

// AtomElement returns the species name tracked for atom a.
func (c *Configuration) AtomElement(a int) string { return c.atomElement[a] }

// SlowFlag reports whether site i currently participates in at least
// one slow process.
func (c *Configuration) SlowFlag(i int) bool { return c.slowFlags[i] }

// TypeName returns the species name for a type integer.
func (c *Configuration) TypeName(t int) string { return c.typeNames[t] }

// MatchList returns the cached neighborhood match list for site i.
func (c *Configuration) MatchList(i int) ConfigMatchList { return c.matchLists[i] }

// ---- mutation facade ----
// setType/setAtomID/setElement/setAtomElement, plus the exported
// SetSlowFlag, are the narrow typed setters granted to the matcher and
// distributor logic of this package; Go has no friend-class mechanism,
// so the facade is simply these methods plus the exported
// higher-level operations that call them.

func (c *Configuration) setType(i, t int) { c.types[i] = t }

func (c *Configuration) setElement(i int, name string) { c.elements[i] = name }

func (c *Configuration) setAtomID(i, a int) { c.atomID[i] = a }

func (c *Configuration) setAtomElement(a int, name string) { c.atomElement[a] = name }

// SetSlowFlag overwrites slot i's slow/fast classification flag. This
// is the one Configuration field Matcher.ClassifyConfiguration is
// permitted to mutate directly.
func (c *Configuration) SetSlowFlag(i int, v bool) { c.slowFlags[i] = v }

// InitMatchLists builds the cached neighborhood match list for every
// site and sizes the performProcess scratch buffers to the widest
// observed match-list length.
func (c *Configuration) InitMatchLists(lm *LatticeMap, rangeShells int) {
	maxLen := 0
	for i := range c.coordinates {
		indices := lm.NeighbourIndices(i, rangeShells)
		ml := c.buildMatchList(i, indices, lm)
		c.matchLists[i] = ml
		if len(ml) > maxLen {
			maxLen = len(ml)
		}
	}
	c.movedAtomIDs = make([]int, maxLen)
	c.recentMoveVecs = make([]Coordinate, maxLen)
	c.affectedIndices = make([]int, maxLen)
}

// buildMatchList constructs a ConfigMatchList over indices, each entry
// translated to be relative to origin and periodically wrapped,
// distance equal to the wrapped coordinate's norm, match_type equal to
// the current site type.
func (c *Configuration) buildMatchList(origin int, indices []int, lm *LatticeMap) ConfigMatchList {
	out := make(ConfigMatchList, 0, len(indices))
	for _, idx := range indices {
		coord := relativeWrapped(lm, c.coordinates, origin, idx)
		out = append(out, NewConfigMatchListEntry(c.types[idx], coord, idx))
	}
	out.Sort()
	return out
}

// UpdateMatchList refreshes only the match_type field of every cached
// entry at site i, reading the current type of each neighbor.
func (c *Configuration) UpdateMatchList(i int) {
	for _, e := range c.matchLists[i] {
		e.SetMatchType(c.types[e.Index()])
	}
}

// PerformProcess applies a matching process at site, following the
// process's paired before/after match list and id-moves list. It
// returns the list of affected global indices and moved atom-ids
// (slices into Configuration-owned scratch, valid until the next
// PerformProcess call).
func (c *Configuration) PerformProcess(p ProcessLike, site int) (affected []int, movedAtoms []int) {
	cml := c.matchLists[site]
	n := 0
	for idx, pe := range p.MatchList() {
		if idx >= len(cml) {
			break
		}
		ce := cml[idx]
		if pe.UpdateType() > 0 && c.types[ce.Index()] != pe.UpdateType() {
			movedAtomID := c.atomID[ce.Index()]
			c.setType(ce.Index(), pe.UpdateType())
			newName := c.typeNames[pe.UpdateType()]
			c.setElement(ce.Index(), newName)
			if pe.HasMoveCoordinate() {
				c.atomCoord[movedAtomID] = c.atomCoord[movedAtomID].Add(pe.MoveCoordinate())
				c.recentMoveVecs[n] = pe.MoveCoordinate()
			} else {
				c.setAtomElement(movedAtomID, newName)
				c.recentMoveVecs[n] = Coordinate{}
			}
			c.affectedIndices[n] = ce.Index()
			c.movedAtomIDs[n] = movedAtomID
			n++
		}
	}
	c.nMoved = n

	// Snapshot every source atom-id before writing any destination: two
	// moves in the same step can share an index (a genuine swap is two
	// reciprocal moves), and writing one in place would corrupt the
	// other's read.
	moves := p.IDMoves()
	movingIDs := make([]int, len(moves))
	for i, mv := range moves {
		movingIDs[i] = c.atomID[cml[mv.from].Index()]
	}
	for i, mv := range moves {
		toIdx := cml[mv.to].Index()
		c.setAtomID(toIdx, movingIDs[i])
	}

	return c.affectedIndices[:n], c.movedAtomIDs[:n]
}

// NMoved returns the count of atoms moved by the most recent
// PerformProcess call.
func (c *Configuration) NMoved() int { return c.nMoved }

// RecentMoveVectors returns the unwrapped displacement applied to
// each of the most recently moved atoms, aligned with the atom-ids
// returned by PerformProcess.
func (c *Configuration) RecentMoveVectors() []Coordinate { return c.recentMoveVecs[:c.nMoved] }

// ExtractFastSpecies walks all sites and, for every element present in
// fastElements, records the element and site index, then overwrites
// the site with replaceSpecies -- temporarily voiding the region so
// redistribution can refill it.
func (c *Configuration) ExtractFastSpecies(fastElements []string, replaceSpecies string) (species []string, indices []int) {
	fastSet := make(map[string]struct{}, len(fastElements))
	for _, f := range fastElements {
		fastSet[f] = struct{}{}
	}
	replaceType := c.possibleTypes[replaceSpecies]
	for i, el := range c.elements {
		if _, ok := fastSet[el]; ok {
			species = append(species, el)
			indices = append(indices, i)
			c.setElement(i, replaceSpecies)
			c.setType(i, replaceType)
		}
	}
	return species, indices
}

// ResetSlowFlags sets all slow flags to true, except for sites whose
// current element is in fastElements.
func (c *Configuration) ResetSlowFlags(fastElements []string) {
	fastSet := make(map[string]struct{}, len(fastElements))
	for _, f := range fastElements {
		fastSet[f] = struct{}{}
	}
	for i, el := range c.elements {
		_, isFast := fastSet[el]
		c.slowFlags[i] = !isFast
	}
}

// UpdateSlowFlag sets the slow flag of site i directly.
func (c *Configuration) UpdateSlowFlag(i int, v bool) { c.slowFlags[i] = v }

// SubConfiguration carries a sub-lattice's local Configuration plus
// the global index mapping needed to write results back.
type SubConfiguration struct {
	*Configuration
	GlobalIndex []int
}

// Split partitions the configuration along with lm.Split, returning
// one SubConfiguration per tile with its global-index mapping.
func (c *Configuration) Split(lm *LatticeMap, nx, ny, nz int) ([]*SubConfiguration, error) {
	subMaps, err := lm.Split(nx, ny, nz)
	if err != nil {
		return nil, err
	}
	out := make([]*SubConfiguration, len(subMaps))
	for t, sub := range subMaps {
		oi, oj, ok := sub.Origin()
		n := sub.NumSites()
		globalIdx := make([]int, n)
		coords := make([]Coordinate, n)
		elements := make([]string, n)
		for li := 0; li < sub.Repetitions()[0]; li++ {
			for lj := 0; lj < sub.Repetitions()[1]; lj++ {
				for lk := 0; lk < sub.Repetitions()[2]; lk++ {
					for b := 0; b < sub.NBasis(); b++ {
						localIdx := sub.IndexFromCell(li, lj, lk, b)
						globalI := lm.IndexFromCell(oi+li, oj+lj, ok+lk, b)
						globalIdx[localIdx] = globalI
						coords[localIdx] = c.coordinates[globalI]
						elements[localIdx] = c.elements[globalI]
					}
				}
			}
		}
		subConf, err := NewConfiguration(coords, elements, c.possibleTypes)
		if err != nil {
			return nil, err
		}
		for li := range globalIdx {
			subConf.setAtomID(li, c.atomID[globalIdx[li]])
			subConf.slowFlags[li] = c.slowFlags[globalIdx[li]]
		}
		out[t] = &SubConfiguration{Configuration: subConf, GlobalIndex: globalIdx}
	}
	return out, nil
}
