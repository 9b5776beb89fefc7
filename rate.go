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

// RateCalculator computes a per-site rate for a CustomRateProcess from
// externally supplied physics. Implementations are supplied by the
// caller embedding this engine, not by the core itself -- the core
// only defines the geometry/type/rate contract a calculator must
// honor.
type RateCalculator interface {
	// Rate returns the rate for one candidate site of a custom-rate
	// process. geometry is the site's local neighborhood, in the same
	// order as the process's match list; typesBefore/typesAfter give
	// the type each geometry position holds before and after the
	// process fires; baseRate is the process's nominal rate constant;
	// processNumber is the caller-supplied process identifier; globalCoord
	// is the candidate site's absolute lattice coordinate.
	Rate(geometry []Coordinate, typesBefore, typesAfter []int, baseRate float64, processNumber int, globalCoord Coordinate) float64
}
