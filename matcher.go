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

// matchTask is a candidate (site, process) pair surfaced by
// indexProcessToMatch, identified by the process's stable Interactions
// index.
type matchTask struct {
	site       int
	processIdx int
}

// IndexProcessToMatch produces candidate (site, process) pairs over
// every process in interactions, filtered by basis membership,
// optional site-type compatibility, then a one-time lazy
// config.UpdateMatchList(i) per visited site.
func IndexProcessToMatch(interactions *Interactions, config *Configuration, sitesmap *SitesMap, lm *LatticeMap, indices []int) []matchTask {
	all := make([]int, len(interactions.Processes()))
	for i := range all {
		all[i] = i
	}
	return indexProcessToMatch(all, interactions.Processes(), config, sitesmap, lm, indices)
}

// indexProcessToMatch is the shared engine behind IndexProcessToMatch
// and ClassifyConfiguration, parameterized over which process indices
// are considered (all processes, or just the fast ones).
func indexProcessToMatch(processIdxs []int, processes []ProcessLike, config *Configuration, sitesmap *SitesMap, lm *LatticeMap, indices []int) []matchTask {
	refreshed := make(map[int]bool, len(indices))
	var tasks []matchTask
	for _, i := range indices {
		_, _, _, b := lm.IndexToCell(i)
		for _, pIdx := range processIdxs {
			p := processes[pIdx]
			if !p.BasisSiteAllowed(b) {
				continue
			}
			if p.HasSiteTypes() {
				if sitesmap == nil {
					continue
				}
				if !WhateverMatch(p.MatchList().Points(), sitesmap.MatchList(i).Points()) {
					continue
				}
			}
			if !refreshed[i] {
				config.UpdateMatchList(i)
				refreshed[i] = true
			}
			tasks = append(tasks, matchTask{site: i, processIdx: pIdx})
		}
	}
	return tasks
}

// CalculateMatching is the central refresh routine: build candidate
// pairs, classify each into REMOVE/UPDATE/ADD/discard by
// combining the process's current "is listed" flag with a fresh
// asymmetric match test, optionally fill custom rates via the rate
// hook, then apply REMOVE, then UPDATE (as remove+add), then ADD --
// preserving the invariant that at most one presence flag exists per
// (site, process) at every point during the pass.
func CalculateMatching(interactions *Interactions, config *Configuration, sitesmap *SitesMap, lm *LatticeMap, indices []int) {
	tasks := IndexProcessToMatch(interactions, config, sitesmap, lm, indices)

	var removes, updates, adds []matchTask
	for _, t := range tasks {
		p := interactions.Process(t.processIdx)
		wasIn := p.IsListed(t.site)
		nowMatch := WhateverMatch(p.MatchList().Points(), config.MatchList(t.site).Points())
		switch {
		case wasIn && !nowMatch:
			removes = append(removes, t)
		case wasIn && nowMatch:
			updates = append(updates, t)
		case !wasIn && nowMatch:
			adds = append(adds, t)
		}
	}

	var addRates, updateRates []float64
	if interactions.UseCustomRates() && interactions.RateCalculator() != nil {
		addRates = make([]float64, len(adds))
		for i, t := range adds {
			addRates[i] = UpdateSingleRate(t.site, interactions.Process(t.processIdx), config, interactions.RateCalculator())
		}
		updateRates = make([]float64, len(updates))
		for i, t := range updates {
			updateRates[i] = UpdateSingleRate(t.site, interactions.Process(t.processIdx), config, interactions.RateCalculator())
		}
	}

	for _, t := range removes {
		interactions.Process(t.processIdx).RemoveSite(t.site)
	}
	for i, t := range updates {
		p := interactions.Process(t.processIdx)
		p.RemoveSite(t.site)
		rate := p.RateConstant()
		if updateRates != nil {
			rate = updateRates[i]
		}
		p.AddSite(t.site, rate)
	}
	for i, t := range adds {
		p := interactions.Process(t.processIdx)
		rate := p.RateConstant()
		if addRates != nil {
			rate = addRates[i]
		}
		p.AddSite(t.site, rate)
	}
}

// ClassifyConfiguration marks a species as fast iff, at some site it
// occupies, it appears at a mutating position in a FAST process's
// local pattern.
func ClassifyConfiguration(interactions *Interactions, config *Configuration, sitesmap *SitesMap, lm *LatticeMap, indices []int, fastElements []string, forcedSlowIndices []int) {
	config.ResetSlowFlags(fastElements)

	tasks := indexProcessToMatch(interactions.FastIndices(), interactions.Processes(), config, sitesmap, lm, indices)
	for _, t := range tasks {
		p := interactions.Process(t.processIdx)
		if !p.IsListed(t.site) {
			continue
		}
		cml := config.MatchList(t.site)
		for idx, pe := range p.MatchList() {
			if idx >= len(cml) {
				break
			}
			if pe.MatchType() != pe.UpdateType() {
				config.SetSlowFlag(cml[idx].Index(), false)
			}
		}
	}

	for _, j := range forcedSlowIndices {
		config.SetSlowFlag(j, true)
	}
}

// UpdateSingleRate gathers the sub-match-list within process's cutoff,
// prepares types_before/types_after vectors, and invokes rc.Rate,
// returning the per-site rate.
func UpdateSingleRate(site int, process ProcessLike, config *Configuration, rc RateCalculator) float64 {
	cml := config.MatchList(site)
	cutoff := process.Cutoff()

	var geometry []Coordinate
	var typesBefore []int
	for _, e := range cml {
		if e.Distance() > cutoff+Epsilon {
			break // cml is sorted ascending by distance
		}
		geometry = append(geometry, e.Coord())
		typesBefore = append(typesBefore, config.Type(e.Index()))
	}

	typesAfter := append([]int(nil), typesBefore...)
	for idx, pe := range process.MatchList() {
		if idx >= len(typesAfter) {
			break
		}
		if pe.UpdateType() > 0 {
			typesAfter[idx] = pe.UpdateType()
		}
	}

	return rc.Rate(geometry, typesBefore, typesAfter, process.RateConstant(), process.ProcessNumber(), config.Coordinate(site))
}
