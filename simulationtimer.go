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

// SimulationTimer propagates simulated time as -ln(U)/R_total.
// Simulated time is abstract, measured in the reciprocal units of the
// rates supplied to processes -- the core performs no wall-clock
// scheduling.
type SimulationTimer struct {
	simTime float64
	dt      float64
	rng     RandomStream
}

// NewSimulationTimer constructs a timer drawing from rng.
func NewSimulationTimer(rng RandomStream) *SimulationTimer {
	return &SimulationTimer{rng: rng}
}

// PropagateTime advances simulated time by a sample from
// Exp(totalRate) and returns the elapsed increment.
func (t *SimulationTimer) PropagateTime(totalRate float64) float64 {
	u := t.rng.Float64()
	// u is in [0,1); guard the degenerate u==0 draw so -ln(u) stays finite.
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	dt := -math.Log(u) / totalRate
	t.dt = dt
	t.simTime += dt
	return dt
}

// SimulationTime returns the cumulative simulated time.
func (t *SimulationTimer) SimulationTime() float64 { return t.simTime }

// DeltaTime returns the most recent increment computed by
// PropagateTime.
func (t *SimulationTimer) DeltaTime() float64 { return t.dt }
