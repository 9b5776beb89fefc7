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

import "math"

// Epsilon is the geometric tolerance used throughout the core for
// distance and coordinate-component comparisons.
const Epsilon = 1.0e-5

// Coordinate is a three-component vector in fractional lattice units.
type Coordinate struct {
	X, Y, Z float64
}

// Add returns c+o.
func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// Sub returns c-o.
func (c Coordinate) Sub(o Coordinate) Coordinate {
	return Coordinate{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

// Scale returns c scaled by s.
func (c Coordinate) Scale(s float64) Coordinate {
	return Coordinate{c.X * s, c.Y * s, c.Z * s}
}

// Dot returns the dot product of c and o.
func (c Coordinate) Dot(o Coordinate) float64 {
	return c.X*o.X + c.Y*o.Y + c.Z*o.Z
}

// Mul returns the component-wise product of c and o.
func (c Coordinate) Mul(o Coordinate) Coordinate {
	return Coordinate{c.X * o.X, c.Y * o.Y, c.Z * o.Z}
}

// Norm returns the Euclidean norm of c.
func (c Coordinate) Norm() float64 {
	return math.Sqrt(c.Dot(c))
}

// sameWithin reports whether a and b differ by no more than Epsilon.
func sameWithin(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Equal reports whether c and o are the same point within Epsilon on
// every component.
func (c Coordinate) Equal(o Coordinate) bool {
	return sameWithin(c.X, o.X) && sameWithin(c.Y, o.Y) && sameWithin(c.Z, o.Z)
}

// Less gives the lexicographic ordering (X, then Y, then Z) used as
// the secondary sort key for match-list entries, with Epsilon
// tolerance on each component.
func (c Coordinate) Less(o Coordinate) bool {
	if !sameWithin(c.X, o.X) {
		return c.X < o.X
	}
	if !sameWithin(c.Y, o.Y) {
		return c.Y < o.Y
	}
	if !sameWithin(c.Z, o.Z) {
		return c.Z < o.Z
	}
	return false
}
