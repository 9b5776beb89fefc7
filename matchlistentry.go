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

// Wildcard is the reserved match_type that matches any type on the
// right-hand side of an asymmetric match test.
const Wildcard = 0

// GeometricPoint is the contract shared by every match-list entry
// flavor: a sortable, matchable point relative to a neighborhood
// origin. Kept as an interface rather than a base class, per the
// "variant entries" design note -- the three flavors below are
// separate structs, not a type hierarchy.
type GeometricPoint interface {
	Distance() float64
	Coord() Coordinate
	MatchType() int
	SamePoint(o GeometricPoint) bool
	Match(o GeometricPoint) bool
}

// entryBase holds the fields common to every match-list entry flavor.
type entryBase struct {
	matchType int
	distance  float64
	coord     Coordinate
}

// Distance returns the entry's distance to the neighborhood origin.
func (e entryBase) Distance() float64 { return e.distance }

// Coord returns the entry's origin-relative coordinate.
func (e entryBase) Coord() Coordinate { return e.coord }

// MatchType returns the entry's match type (0 = wildcard).
func (e entryBase) MatchType() int { return e.matchType }

// SamePoint reports whether e and o refer to the same lattice point:
// their distances agree within Epsilon and every coordinate component
// agrees within Epsilon.
func (e entryBase) SamePoint(o GeometricPoint) bool {
	return sameWithin(e.distance, o.Distance()) && e.coord.Equal(o.Coord())
}

// Match reports whether e (conventionally the process-side entry)
// matches o: SamePoint holds AND (e is a wildcard OR the match types
// are equal). This rule is asymmetric -- swapping e and o can change
// the result.
func (e entryBase) Match(o GeometricPoint) bool {
	if !e.SamePoint(o) {
		return false
	}
	return e.matchType == Wildcard || e.matchType == o.MatchType()
}

// ProcessMatchListEntry is a match-list entry belonging to a Process's
// local pattern. update_type gives the type the matched site is
// rewritten to when the process fires; move_coordinate (when present)
// gives the unwrapped displacement applied to the moving atom's
// tracked coordinate.
type ProcessMatchListEntry struct {
	entryBase
	updateType        int
	hasMoveCoordinate bool
	moveCoordinate    Coordinate
	// moveCellOffset and moveBasis hold an integer (di,dj,dk,
	// relativeBasis) cell offset for moveCoordinate. NewProcess does not
	// fill them and nothing reads them; Configuration.PerformProcess
	// applies id-moves through the process's idMoves list instead.
	moveCellOffset [3]int
	moveBasis      int
	// destEntry is the index, within the same sorted ProcessMatchList,
	// of the entry this one moves to. Populated by id-move
	// construction and rewritten whenever implicit wildcards are
	// inserted.
	destEntry int
}

// NewProcessMatchListEntry constructs a process-side entry.
func NewProcessMatchListEntry(matchType, updateType int, coord Coordinate) *ProcessMatchListEntry {
	return &ProcessMatchListEntry{
		entryBase: entryBase{matchType: matchType, distance: coord.Norm(), coord: coord},
		updateType: updateType,
		destEntry:  -1,
	}
}

// SetMoveCoordinate records the unwrapped displacement a matching atom
// undergoes when this entry's position changes identity.
func (e *ProcessMatchListEntry) SetMoveCoordinate(c Coordinate) {
	e.hasMoveCoordinate = true
	e.moveCoordinate = c
}

// HasMoveCoordinate reports whether SetMoveCoordinate has been called.
func (e *ProcessMatchListEntry) HasMoveCoordinate() bool { return e.hasMoveCoordinate }

// MoveCoordinate returns the recorded displacement.
func (e *ProcessMatchListEntry) MoveCoordinate() Coordinate { return e.moveCoordinate }

// UpdateType returns the type this entry's site is rewritten to.
func (e *ProcessMatchListEntry) UpdateType() int { return e.updateType }

// DestEntry returns the sorted-list index of the entry this one moves
// to, or -1 if this entry does not move.
func (e *ProcessMatchListEntry) DestEntry() int { return e.destEntry }

// SetDestEntry rewrites the destination index (used by implicit
// wildcard insertion's second pass).
func (e *ProcessMatchListEntry) SetDestEntry(i int) { e.destEntry = i }

// ConfigMatchListEntry is a match-list entry anchored to a live
// Configuration site: it additionally carries the global site index
// so Matcher/Distributor can read back to Configuration.
type ConfigMatchListEntry struct {
	entryBase
	index int
}

// NewConfigMatchListEntry constructs a configuration-side entry.
func NewConfigMatchListEntry(matchType int, coord Coordinate, index int) *ConfigMatchListEntry {
	return &ConfigMatchListEntry{
		entryBase: entryBase{matchType: matchType, distance: coord.Norm(), coord: coord},
		index:     index,
	}
}

// Index returns the global lattice site this entry refers to.
func (e *ConfigMatchListEntry) Index() int { return e.index }

// SetMatchType overwrites the cached match type, used by
// Configuration.UpdateMatchList when the underlying site's species
// changes.
func (e *ConfigMatchListEntry) SetMatchType(t int) { e.matchType = t }

// SiteMatchListEntry is identical in shape to ConfigMatchListEntry but
// its match type encodes a site-topology class rather than a species.
// Kept as a distinct type (not a type alias) so SitesMap and
// Configuration's caches are never accidentally interchanged.
type SiteMatchListEntry struct {
	entryBase
	index int
}

// NewSiteMatchListEntry constructs a site-topology entry.
func NewSiteMatchListEntry(matchType int, coord Coordinate, index int) *SiteMatchListEntry {
	return &SiteMatchListEntry{
		entryBase: entryBase{matchType: matchType, distance: coord.Norm(), coord: coord},
		index:     index,
	}
}

// Index returns the global lattice site this entry refers to.
func (e *SiteMatchListEntry) Index() int { return e.index }
