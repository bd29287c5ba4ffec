package seeding

import "fmt"

// rankedPlayers returns P1..Pn with P1 the strongest.
func rankedPlayers(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{
			ID:          fmt.Sprintf("P%d", i+1),
			DisplayName: fmt.Sprintf("Player %d", i+1),
			Strength:    float64(n - i),
		}
	}
	return players
}

func playerIDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func groupIDs(groups []Group) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = playerIDs(g.Players)
	}
	return out
}

func groupSizes(groups []Group) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.Players)
	}
	return sizes
}

func intPtr(v int) *int {
	return &v
}

func shells(capacities ...int) []Group {
	groups := make([]Group, len(capacities))
	for i, c := range capacities {
		groups[i] = Group{Tier: "test", Index: i, Capacity: c}
	}
	return groups
}
