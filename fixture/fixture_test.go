package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spatialmodel/kmclattice"
)

func TestParseRejectsSiteCountMismatch(t *testing.T) {
	data := []byte(`
lattice:
  n_basis: 1
  rep: [2, 1, 1]
  period: [true, false, false]
possible_types:
  "*": 0
  A: 1
sites:
  - coord: [0, 0, 0]
    element: A
`)
	_, err := Parse(data)
	require.Error(t, err, "expected an error when sites count does not match the lattice shape")
}

func TestLoadBuildsLatticeConfigurationAndProcesses(t *testing.T) {
	s, err := Load("testdata/diffusion_chain.yaml")
	require.NoError(t, err)

	lm := s.Lattice.Build()
	assert.Equal(t, 3, lm.NumSites())

	config, err := s.BuildConfiguration()
	require.NoError(t, err)
	assert.Equal(t, 3, config.NumSites())
	assert.Equal(t, "A", config.Element(0))
	assert.Equal(t, "V", config.Element(1))
	assert.Equal(t, "V", config.Element(2))

	rng := kmclattice.NewRandomStream(kmclattice.MersenneTwister, false, 17)
	procs, err := s.BuildProcesses(rng)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, 2.5, procs[0].RateConstant())
}

func TestLoadedFixtureDrivesASingleStep(t *testing.T) {
	s, err := Load("testdata/diffusion_chain.yaml")
	require.NoError(t, err)

	lm := s.Lattice.Build()
	config, err := s.BuildConfiguration()
	require.NoError(t, err)
	config.InitMatchLists(lm, 1)

	rng := kmclattice.NewRandomStream(kmclattice.MersenneTwister, false, 17)
	procs, err := s.BuildProcesses(rng)
	require.NoError(t, err)

	in := kmclattice.NewInteractions(procs, nil, rng)
	kmclattice.CalculateMatching(in, config, nil, lm, []int{0, 1, 2})

	m := kmclattice.NewLatticeModel(config, in, lm, rng, kmclattice.LatticeModelOptions{})
	require.Greater(t, m.TotalRate(), 0.0, "expected a positive total rate from the loaded process")

	before := m.SimulationTime()
	m.SingleStep()
	assert.Greater(t, m.SimulationTime(), before, "expected simulated time to advance after stepping the fixture-built model")

	aCount := 0
	for i := 0; i < config.NumSites(); i++ {
		if config.Element(i) == "A" {
			aCount++
		}
	}
	assert.Equal(t, 1, aCount, "expected exactly one A site to survive the hop")
}
