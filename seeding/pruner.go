package seeding

import "github.com/samber/lo"

// Prune splits groups into those holding at least minPerGroup players and
// those that do not. Both keep their input order.
func Prune(groups []Group, minPerGroup int) (kept []Group, pruned []Group) {
	viable := func(g Group, _ int) bool {
		return len(g.Players) >= minPerGroup
	}
	return lo.Filter(groups, viable), lo.Reject(groups, viable)
}
