package seeding

// DefaultSweepLimit bounds the number of snake draft sweeps per tier. Every
// sweep but the last places at least one player, so a tier of k groups needs
// at most k*capacity+1 sweeps; reaching the limit with room left means the
// zero-placement check failed to stop the pass.
const DefaultSweepLimit = 2000

// Group is a capacity-bounded bucket of players within a tier. Players are
// kept in assignment order.
type Group struct {
	Tier     TierKey  `json:"tier"`
	Index    int      `json:"index"`
	Capacity int      `json:"capacity"`
	Players  []Player `json:"players"`
}

func (g *Group) Size() int {
	return len(g.Players)
}

func (g *Group) room() int {
	return g.Capacity - len(g.Players)
}

func (g *Group) full() bool {
	return g.room() <= 0
}

// tierFill is the outcome of one tier's allocation pass. next is the cursor
// into the sequenced pool where the following tier starts.
type tierFill struct {
	next    int
	sweeps  int
	anomaly bool
}

// filler places players from pool[cursor:] into groups without exceeding any
// group's capacity.
type filler func(groups []Group, pool []Player, cursor int, sweepLimit int) tierFill

func fillerFor(strategy Strategy) filler {
	switch strategy {
	case StrategySnakeDraft:
		return fillSnakeDraft
	case StrategyTopHeavy:
		return fillTopHeavy
	default:
		return fillRoundRobin
	}
}

// allocateTier creates the tier's group shells and fills them from the
// cursor. The returned fill carries the advanced cursor.
func allocateTier(cfg *DistributionConfig, tier TierKey, pool []Player, cursor int, sweepLimit int) ([]Group, tierFill) {
	groups := make([]Group, cfg.EffectiveGroupCount(tier))
	for i := range groups {
		capacity := cfg.EffectiveCapacity(tier, i)
		groups[i] = Group{
			Tier:     tier,
			Index:    i,
			Capacity: capacity,
			Players:  make([]Player, 0, min(capacity, len(pool)-cursor)),
		}
	}
	if len(groups) == 0 || cursor >= len(pool) {
		return groups, tierFill{next: cursor}
	}
	return groups, fillerFor(cfg.Strategy)(groups, pool, cursor, sweepLimit)
}

// fillRoundRobin sweeps groups 0..k-1 repeatedly, one player per group with
// room per sweep. Used by Balanced and Random.
func fillRoundRobin(groups []Group, pool []Player, cursor int, _ int) tierFill {
	fill := tierFill{next: cursor}
	for fill.next < len(pool) {
		placed := 0
		for i := range groups {
			if fill.next >= len(pool) {
				break
			}
			if groups[i].full() {
				continue
			}
			groups[i].Players = append(groups[i].Players, pool[fill.next])
			fill.next++
			placed++
		}
		fill.sweeps++
		if placed == 0 {
			break
		}
	}
	return fill
}

// fillSnakeDraft alternates sweep direction, 0..k-1 then k-1..0, one player
// per group with room per step. A sweep that places nobody ends the pass.
func fillSnakeDraft(groups []Group, pool []Player, cursor int, sweepLimit int) tierFill {
	if sweepLimit <= 0 {
		sweepLimit = DefaultSweepLimit
	}
	fill := tierFill{next: cursor}
	forward := true
	for fill.next < len(pool) {
		if fill.sweeps >= sweepLimit {
			fill.anomaly = hasRoom(groups)
			break
		}
		placed := 0
		for step := range len(groups) {
			if fill.next >= len(pool) {
				break
			}
			i := step
			if !forward {
				i = len(groups) - 1 - step
			}
			if groups[i].full() {
				continue
			}
			groups[i].Players = append(groups[i].Players, pool[fill.next])
			fill.next++
			placed++
		}
		fill.sweeps++
		forward = !forward
		if placed == 0 {
			break
		}
	}
	return fill
}

// fillTopHeavy fills group 0 to capacity before group 1 receives anyone, and
// so on.
func fillTopHeavy(groups []Group, pool []Player, cursor int, _ int) tierFill {
	fill := tierFill{next: cursor, sweeps: 1}
	for i := range groups {
		for !groups[i].full() && fill.next < len(pool) {
			groups[i].Players = append(groups[i].Players, pool[fill.next])
			fill.next++
		}
		if fill.next >= len(pool) {
			break
		}
	}
	return fill
}

func hasRoom(groups []Group) bool {
	for i := range groups {
		if !groups[i].full() {
			return true
		}
	}
	return false
}
