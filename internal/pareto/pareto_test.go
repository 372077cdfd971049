package pareto

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateSumsToTotal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	groups := Allocate(rng, 2000, 16, 1.5, 1.0)

	sum := 0
	for _, g := range groups {
		sum += g
	}
	require.Equal(t, 2000, sum)
	require.LessOrEqual(t, len(groups), 16)
}

func TestAllocateRespectsGroupCountOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	groups := Allocate(rng, 500, 1, 1.2, 0.8)
	require.Len(t, groups, 1)
	require.Equal(t, 500, groups[0])
}
