package seeding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrune(t *testing.T) {
	players := rankedPlayers(6)
	groups := []Group{
		{Tier: "a", Index: 0, Players: players[0:3]},
		{Tier: "a", Index: 1, Players: players[3:5]},
		{Tier: "a", Index: 2},
		{Tier: "b", Index: 0, Players: players[5:6]},
	}

	kept, pruned := Prune(groups, 2)
	assert.Equal(t, []int{3, 2}, groupSizes(kept))
	assert.Equal(t, []int{0, 1}, groupSizes(pruned))
	assert.Equal(t, TierKey("b"), pruned[1].Tier)

	kept, pruned = Prune(groups, 0)
	assert.Len(t, kept, 4)
	assert.Empty(t, pruned)
}
