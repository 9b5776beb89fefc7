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
)

// LatticeMap owns the basis count, per-axis repetitions and per-axis
// periodicity of a rectangular lattice, and supplies neighborhood
// indexing and periodic wrapping over it.
type LatticeMap struct {
	nBasis int
	rep    [3]int
	period [3]bool
}

// NewLatticeMap constructs a LatticeMap for nBasis basis sites per
// cell, repetitions rep along (a,b,c), and per-axis periodicity
// period.
func NewLatticeMap(nBasis int, rep [3]int, period [3]bool) *LatticeMap {
	return &LatticeMap{nBasis: nBasis, rep: rep, period: period}
}

// NBasis returns the number of basis sites per primitive cell.
func (lm *LatticeMap) NBasis() int { return lm.nBasis }

// Repetitions returns the per-axis repetition counts.
func (lm *LatticeMap) Repetitions() [3]int { return lm.rep }

// Periodic returns the per-axis periodicity flags.
func (lm *LatticeMap) Periodic() [3]bool { return lm.period }

// NumSites returns the total number of lattice sites.
func (lm *LatticeMap) NumSites() int {
	return lm.rep[0] * lm.rep[1] * lm.rep[2] * lm.nBasis
}

// IndexFromCell returns the global index of cell (i,j,k) basis b.
// Layout is row-major: index = ((i*repB + j)*repC + k)*nBasis + b.
func (lm *LatticeMap) IndexFromCell(i, j, k, b int) int {
	return ((i*lm.rep[1]+j)*lm.rep[2]+k)*lm.nBasis + b
}

// IndicesFromCell returns the nBasis global indices within cell
// (i,j,k), in basis order.
func (lm *LatticeMap) IndicesFromCell(i, j, k int) []int {
	out := make([]int, lm.nBasis)
	for b := 0; b < lm.nBasis; b++ {
		out[b] = lm.IndexFromCell(i, j, k, b)
	}
	return out
}

// IndexToCell decomposes a global index into its (i,j,k,basis)
// components; the inverse of IndexFromCell.
func (lm *LatticeMap) IndexToCell(index int) (i, j, k, b int) {
	b = index % lm.nBasis
	rest := index / lm.nBasis
	k = rest % lm.rep[2]
	rest /= lm.rep[2]
	j = rest % lm.rep[1]
	i = rest / lm.rep[1]
	return i, j, k, b
}

// wrapAxis folds a cell coordinate v into the valid [0, rep) range if
// axis is periodic (plain modular wrap -- cell indices, unlike
// fractional coordinates, have no notion of a centered interval);
// otherwise an out-of-range v culls the candidate cell. v and rep are
// in cell-count units.
func wrapAxis(v int, rep int, periodic bool) (int, bool) {
	if !periodic {
		if v < 0 || v >= rep {
			return 0, false
		}
		return v, true
	}
	v %= rep
	if v < 0 {
		v += rep
	}
	return v, true
}

// NeighbourIndices returns the global indices of every basis site in
// every primitive cell whose cell coordinates differ from index's by
// at most shells on each axis. Non-periodic axes cull out-of-bounds
// cells; periodic axes wrap. Result order is (di outermost, then dj,
// then dk, then basis b).
func (lm *LatticeMap) NeighbourIndices(index, shells int) []int {
	i0, j0, k0, _ := lm.IndexToCell(index)
	var out []int
	for di := -shells; di <= shells; di++ {
		ci, ok := wrapAxis(i0+di, lm.rep[0], lm.period[0])
		if !ok {
			continue
		}
		for dj := -shells; dj <= shells; dj++ {
			cj, ok := wrapAxis(j0+dj, lm.rep[1], lm.period[1])
			if !ok {
				continue
			}
			for dk := -shells; dk <= shells; dk++ {
				ck, ok := wrapAxis(k0+dk, lm.rep[2], lm.period[2])
				if !ok {
					continue
				}
				for b := 0; b < lm.nBasis; b++ {
					out = append(out, lm.IndexFromCell(ci, cj, ck, b))
				}
			}
		}
	}
	return out
}

// SupersetNeighbourIndices returns the union of NeighbourIndices(i,
// shells) for every i in indices, sorted and deduplicated.
func (lm *LatticeMap) SupersetNeighbourIndices(indices []int, shells int) []int {
	seen := newIntSet()
	for _, idx := range indices {
		for _, n := range lm.NeighbourIndices(idx, shells) {
			seen.add(n)
		}
	}
	out := seen.slice()
	sort.Ints(out)
	return out
}

// IndexFromMoveInfo computes the target index when the particle at
// index moves by the given cell offset and lands on relativeBasis
// added to the source's basis.
func (lm *LatticeMap) IndexFromMoveInfo(index, di, dj, dk, relativeBasis int) (int, bool) {
	i0, j0, k0, b0 := lm.IndexToCell(index)
	ci, ok := wrapAxis(i0+di, lm.rep[0], lm.period[0])
	if !ok {
		return 0, false
	}
	cj, ok := wrapAxis(j0+dj, lm.rep[1], lm.period[1])
	if !ok {
		return 0, false
	}
	ck, ok := wrapAxis(k0+dk, lm.rep[2], lm.period[2])
	if !ok {
		return 0, false
	}
	return lm.IndexFromCell(ci, cj, ck, b0+relativeBasis), true
}

// Wrap folds every periodic component of c into [-rep/2, +rep/2).
// Non-periodic axes are left unchanged -- this is intentional:
// match_list's caller always passes origin-relative coordinates, and a
// non-periodic axis has no wrapped image to fold into, so leaving it
// alone is the only coherent choice.
func (lm *LatticeMap) Wrap(c Coordinate) Coordinate {
	return Coordinate{
		X: lm.wrapComponent(c.X, 0),
		Y: lm.wrapComponent(c.Y, 1),
		Z: lm.wrapComponent(c.Z, 2),
	}
}

// WrapAxis folds a single component of c along the given axis (0=X,
// 1=Y, 2=Z) if that axis is periodic.
func (lm *LatticeMap) WrapAxis(c Coordinate, axis int) Coordinate {
	out := c
	switch axis {
	case 0:
		out.X = lm.wrapComponent(c.X, 0)
	case 1:
		out.Y = lm.wrapComponent(c.Y, 1)
	case 2:
		out.Z = lm.wrapComponent(c.Z, 2)
	}
	return out
}

func (lm *LatticeMap) wrapComponent(v float64, axis int) float64 {
	if !lm.period[axis] {
		return v
	}
	rep := float64(lm.rep[axis])
	half := rep / 2
	for v < -half {
		v += rep
	}
	for v >= rep-half {
		v -= rep
	}
	return v
}

// SubLatticeMap is a LatticeMap plus an origin cell index within a
// parent lattice.
type SubLatticeMap struct {
	*LatticeMap
	originI, originJ, originK int
}

// Split partitions the lattice into nx*ny*nz equal tiles, in (x outer,
// y, z inner) order. It fails with InvalidSplit unless each per-axis
// repetition is evenly divisible by the corresponding divisor.
func (lm *LatticeMap) Split(nx, ny, nz int) ([]*SubLatticeMap, error) {
	if lm.rep[0]%nx != 0 || lm.rep[1]%ny != 0 || lm.rep[2]%nz != 0 {
		return nil, newError(InvalidSplit,
			"repetitions %v not divisible by split (%d,%d,%d)", lm.rep, nx, ny, nz)
	}
	subRep := [3]int{lm.rep[0] / nx, lm.rep[1] / ny, lm.rep[2] / nz}
	var out []*SubLatticeMap
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				sub := NewLatticeMap(lm.nBasis, subRep, lm.period)
				out = append(out, &SubLatticeMap{
					LatticeMap: sub,
					originI:    x * subRep[0],
					originJ:    y * subRep[1],
					originK:    z * subRep[2],
				})
			}
		}
	}
	return out, nil
}

// Origin returns the sub-lattice's origin cell within its parent.
func (s *SubLatticeMap) Origin() (i, j, k int) { return s.originI, s.originJ, s.originK }

// CheckCompatible verifies that sub shares nBasis with parent and that
// parent's repetitions are integer multiples of sub's, returning
// IncompatibleLatticeMaps otherwise.
func CheckCompatible(parent *LatticeMap, sub *SubLatticeMap) error {
	if parent.nBasis != sub.nBasis {
		return newError(IncompatibleLatticeMaps, "basis count mismatch: parent=%d sub=%d", parent.nBasis, sub.nBasis)
	}
	pr, sr := parent.rep, sub.rep
	for axis := 0; axis < 3; axis++ {
		if sr[axis] == 0 || pr[axis]%sr[axis] != 0 {
			return newError(IncompatibleLatticeMaps, "axis %d repetitions %d do not divide parent %d", axis, sr[axis], pr[axis])
		}
	}
	return nil
}

// intSet is a small unordered set of ints used by
// SupersetNeighbourIndices and the step loop's affected-index unions;
// slice returns its members in map iteration order.
type intSet struct {
	m map[int]struct{}
}

func newIntSet() *intSet { return &intSet{m: make(map[int]struct{})} }

func (s *intSet) add(v int) { s.m[v] = struct{}{} }

func (s *intSet) slice() []int {
	out := make([]int, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	return out
}
