// Package fixture loads lattice/process test scenarios from YAML.
// It is test tooling only: it is consumed exclusively from _test.go
// files (currently only this package's own fixture_test.go), to build out whole
// lattice/configuration/process scenarios without hand-writing a
// large literal Go struct per test case.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spatialmodel/kmclattice"
)

// Lattice describes a LatticeMap construction.
type Lattice struct {
	NBasis int    `yaml:"n_basis"`
	Rep    [3]int `yaml:"rep"`
	Period [3]bool `yaml:"period"`
}

// Build constructs the kmclattice.LatticeMap this fixture describes.
func (l Lattice) Build() *kmclattice.LatticeMap {
	return kmclattice.NewLatticeMap(l.NBasis, l.Rep, l.Period)
}

// Site describes a single configuration site: its fractional
// coordinate and initial element name.
type Site struct {
	Coord   [3]float64 `yaml:"coord"`
	Element string     `yaml:"element"`
}

// LocalPoint describes one entry of a process's before/after local
// pattern.
type LocalPoint struct {
	Coord      [3]float64 `yaml:"coord"`
	Before     string     `yaml:"before"`
	After      string     `yaml:"after"`
	MoveVector *[3]float64 `yaml:"move_vector,omitempty"`
}

// Process describes a Process construction.
type Process struct {
	Name           string       `yaml:"name"`
	Pattern        []LocalPoint `yaml:"pattern"`
	Rate           float64      `yaml:"rate"`
	BasisSites     []int        `yaml:"basis_sites"`
	Fast           bool         `yaml:"fast,omitempty"`
	Redistribution bool         `yaml:"redistribution,omitempty"`
	RedistSpecies  string       `yaml:"redist_species,omitempty"`
}

// Scenario is the top-level fixture document: a lattice, its sites'
// initial elements, the possible-types table, and a set of processes.
type Scenario struct {
	Lattice       Lattice           `yaml:"lattice"`
	PossibleTypes map[string]int    `yaml:"possible_types"`
	Sites         []Site            `yaml:"sites"`
	Processes     []Process         `yaml:"processes"`
}

// Load reads and parses a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("fixture: parse YAML: %w", err)
	}
	if len(s.Sites) != s.Lattice.NBasis*s.Lattice.Rep[0]*s.Lattice.Rep[1]*s.Lattice.Rep[2] {
		return nil, fmt.Errorf("fixture: %d sites does not match lattice shape %v x nBasis=%d", len(s.Sites), s.Lattice.Rep, s.Lattice.NBasis)
	}
	return &s, nil
}

// BuildConfiguration constructs a kmclattice.Configuration from the
// scenario's sites and possible-types table.
func (s *Scenario) BuildConfiguration() (*kmclattice.Configuration, error) {
	coords := make([]kmclattice.Coordinate, len(s.Sites))
	elements := make([]string, len(s.Sites))
	for i, site := range s.Sites {
		coords[i] = kmclattice.Coordinate{X: site.Coord[0], Y: site.Coord[1], Z: site.Coord[2]}
		elements[i] = site.Element
	}
	return kmclattice.NewConfiguration(coords, elements, s.PossibleTypes)
}

// BuildProcesses constructs a kmclattice.Process per fixture process
// description, in declaration order.
func (s *Scenario) BuildProcesses(rng kmclattice.RandomStream) ([]kmclattice.ProcessLike, error) {
	out := make([]kmclattice.ProcessLike, 0, len(s.Processes))
	for _, fp := range s.Processes {
		before := make([]kmclattice.LocalSite, len(fp.Pattern))
		after := make([]kmclattice.LocalSite, len(fp.Pattern))
		var moveOrigins []int
		var moveVectors []kmclattice.Coordinate
		for i, pt := range fp.Pattern {
			c := kmclattice.Coordinate{X: pt.Coord[0], Y: pt.Coord[1], Z: pt.Coord[2]}
			beforeType, ok := s.PossibleTypes[pt.Before]
			if !ok {
				return nil, fmt.Errorf("fixture: process %q: unknown before element %q", fp.Name, pt.Before)
			}
			afterType, ok := s.PossibleTypes[pt.After]
			if !ok {
				return nil, fmt.Errorf("fixture: process %q: unknown after element %q", fp.Name, pt.After)
			}
			before[i] = kmclattice.LocalSite{MatchType: beforeType, Coord: c}
			after[i] = kmclattice.LocalSite{MatchType: afterType, Coord: c}
			if pt.MoveVector != nil {
				moveOrigins = append(moveOrigins, i)
				moveVectors = append(moveVectors, kmclattice.Coordinate{X: pt.MoveVector[0], Y: pt.MoveVector[1], Z: pt.MoveVector[2]})
			}
		}
		p, err := kmclattice.NewProcess(before, after, fp.Rate, fp.BasisSites, kmclattice.ProcessOptions{
			MoveOrigins:    moveOrigins,
			MoveVectors:    moveVectors,
			Fast:           fp.Fast,
			Redistribution: fp.Redistribution,
			RedistSpecies:  fp.RedistSpecies,
		}, rng)
		if err != nil {
			return nil, fmt.Errorf("fixture: process %q: %w", fp.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}
