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

import "sort"

// lessEntry implements the canonical match-list order: ascending
// distance (within Epsilon), then descending lexicographic coordinate
// for ties -- the entry that sorts later in plain lexicographic order
// comes first.
func lessEntry(a, b GeometricPoint) bool {
	if !sameWithin(a.Distance(), b.Distance()) {
		return a.Distance() < b.Distance()
	}
	return b.Coord().Less(a.Coord())
}

// ProcessMatchList is the sorted local pattern owned by a Process.
type ProcessMatchList []*ProcessMatchListEntry

func (l ProcessMatchList) Len() int      { return len(l) }
func (l ProcessMatchList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l ProcessMatchList) Less(i, j int) bool { return lessEntry(l[i], l[j]) }

// Sort orders l per the canonical match-list order.
func (l ProcessMatchList) Sort() { sort.Stable(l) }

// Points returns l as a slice of the shared GeometricPoint interface,
// for use with WhateverMatch.
func (l ProcessMatchList) Points() []GeometricPoint {
	out := make([]GeometricPoint, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// ConfigMatchList is the sorted cached neighborhood of a single
// Configuration site.
type ConfigMatchList []*ConfigMatchListEntry

func (l ConfigMatchList) Len() int           { return len(l) }
func (l ConfigMatchList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }
func (l ConfigMatchList) Less(i, j int) bool { return lessEntry(l[i], l[j]) }

// Sort orders l per the canonical match-list order.
func (l ConfigMatchList) Sort() { sort.Stable(l) }

// Points returns l as a slice of the shared GeometricPoint interface.
func (l ConfigMatchList) Points() []GeometricPoint {
	out := make([]GeometricPoint, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// SiteMatchList is the sorted cached site-topology neighborhood of a
// single SitesMap site.
type SiteMatchList []*SiteMatchListEntry

func (l SiteMatchList) Len() int           { return len(l) }
func (l SiteMatchList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }
func (l SiteMatchList) Less(i, j int) bool { return lessEntry(l[i], l[j]) }

// Sort orders l per the canonical match-list order.
func (l SiteMatchList) Sort() { sort.Stable(l) }

// Points returns l as a slice of the shared GeometricPoint interface.
func (l SiteMatchList) Points() []GeometricPoint {
	out := make([]GeometricPoint, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// WhateverMatch reports whether every entry in process finds a
// matching point in other, using the asymmetric Match rule with
// process conventionally on the left. Both lists are expected to be
// sorted per the canonical order: for each candidate, the scan of
// other starts at its first entry and stops at the first entry whose
// distance exceeds the candidate's by more than Epsilon.
func WhateverMatch(process, other []GeometricPoint) bool {
	for _, pe := range process {
		found := false
		for _, oe := range other {
			if oe.Distance()-pe.Distance() > Epsilon {
				break
			}
			if pe.Match(oe) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
