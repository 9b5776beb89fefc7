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

// SitesMap is an immutable per-site type annotation (site-topology
// class, not species) with its own cached match lists, used when
// processes are additionally constrained by site type.
type SitesMap struct {
	coordinates []Coordinate
	types       []int
	siteNames   []string

	possibleTypes map[string]int
	matchLists    []SiteMatchList
}

// NewSitesMap constructs a SitesMap from the lattice coordinates, a
// site-type name per site, and a name->int mapping shared with the
// owning Configuration.
func NewSitesMap(coordinates []Coordinate, siteNames []string, possibleTypes map[string]int) (*SitesMap, error) {
	n := len(coordinates)
	if len(siteNames) != n {
		return nil, newError(CoordinateMismatch, "coordinates and site names have different lengths: %d != %d", n, len(siteNames))
	}
	s := &SitesMap{
		coordinates:   append([]Coordinate(nil), coordinates...),
		types:         make([]int, n),
		siteNames:     append([]string(nil), siteNames...),
		possibleTypes: possibleTypes,
		matchLists:    make([]SiteMatchList, n),
	}
	for i, name := range siteNames {
		t, ok := possibleTypes[name]
		if !ok {
			return nil, newError(ElementTypeError, "site type %q not present in possible-types map", name)
		}
		s.types[i] = t
	}
	return s, nil
}

// NumSites returns the number of sites this SitesMap covers.
func (s *SitesMap) NumSites() int { return len(s.types) }

// SiteType returns the topology class of site i.
func (s *SitesMap) SiteType(i int) int { return s.types[i] }

// InitMatchLists builds and caches, for every site, the SiteMatchList
// over its neighborhood within rangeShells, mirroring
// Configuration.InitMatchLists.
func (s *SitesMap) InitMatchLists(lm *LatticeMap, rangeShells int) {
	for i := range s.types {
		indices := lm.NeighbourIndices(i, rangeShells)
		s.matchLists[i] = s.buildMatchList(i, indices, lm)
	}
}

// buildMatchList constructs (without caching) the SiteMatchList for
// origin over the given candidate indices.
func (s *SitesMap) buildMatchList(origin int, indices []int, lm *LatticeMap) SiteMatchList {
	out := make(SiteMatchList, 0, len(indices))
	for _, idx := range indices {
		coord := relativeWrapped(lm, s.coordinates, origin, idx)
		out = append(out, NewSiteMatchListEntry(s.types[idx], coord, idx))
	}
	out.Sort()
	return out
}

// ComputeMatchList recomputes (without caching) the match list for
// origin over the given indices -- the non-cached counterpart spec
// §4.2 names for Configuration.match_list.
func (s *SitesMap) ComputeMatchList(origin int, indices []int, lm *LatticeMap) SiteMatchList {
	return s.buildMatchList(origin, indices, lm)
}

// MatchList returns the cached SiteMatchList for site i.
func (s *SitesMap) MatchList(i int) SiteMatchList { return s.matchLists[i] }
