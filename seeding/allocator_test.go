package seeding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFillers_WorkedExample(t *testing.T) {
	tests := []struct {
		name   string
		filler filler
		want   [][]string
	}{
		{
			name:   "balanced",
			filler: fillRoundRobin,
			want:   [][]string{{"P1", "P3", "P5", "P7"}, {"P2", "P4", "P6", "P8"}},
		},
		{
			name:   "top heavy",
			filler: fillTopHeavy,
			want:   [][]string{{"P1", "P2", "P3", "P4"}, {"P5", "P6", "P7", "P8"}},
		},
		{
			name:   "snake draft",
			filler: fillSnakeDraft,
			want:   [][]string{{"P1", "P4", "P5", "P8"}, {"P2", "P3", "P6", "P7"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := shells(4, 4)
			fill := tt.filler(groups, rankedPlayers(8), 0, DefaultSweepLimit)

			assert.Equal(t, 8, fill.next)
			assert.False(t, fill.anomaly)
			if diff := cmp.Diff(tt.want, groupIDs(groups)); diff != "" {
				t.Errorf("groups mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFillSnakeDraft_ThreeGroups(t *testing.T) {
	groups := shells(2, 2, 2)
	fill := fillSnakeDraft(groups, rankedPlayers(6), 0, DefaultSweepLimit)

	want := [][]string{{"P1", "P6"}, {"P2", "P5"}, {"P3", "P4"}}
	if diff := cmp.Diff(want, groupIDs(groups)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, fill.next)
}

func TestFillSnakeDraft_ExactFill(t *testing.T) {
	for k := 1; k <= 5; k++ {
		for c := 1; c <= 5; c++ {
			capacities := make([]int, k)
			for i := range capacities {
				capacities[i] = c
			}
			groups := shells(capacities...)
			fill := fillSnakeDraft(groups, rankedPlayers(k*c), 0, DefaultSweepLimit)
			for _, g := range groups {
				if len(g.Players) != c {
					t.Errorf("k=%d c=%d: group %d has %d players, want %d", k, c, g.Index, len(g.Players), c)
				}
			}
			if fill.next != k*c || fill.anomaly {
				t.Errorf("k=%d c=%d: next=%d anomaly=%v", k, c, fill.next, fill.anomaly)
			}
		}
	}
}

func TestFillSnakeDraft_StopsOnZeroPlacementSweep(t *testing.T) {
	groups := shells(2, 2)
	fill := fillSnakeDraft(groups, rankedPlayers(10), 0, DefaultSweepLimit)

	assert.Equal(t, 4, fill.next)
	// Two filling sweeps plus the empty one that ends the pass.
	assert.Equal(t, 3, fill.sweeps)
	assert.False(t, fill.anomaly)
}

func TestFillSnakeDraft_SweepLimit(t *testing.T) {
	t.Run("open groups flag an anomaly", func(t *testing.T) {
		groups := shells(4, 4)
		fill := fillSnakeDraft(groups, rankedPlayers(8), 0, 1)

		assert.True(t, fill.anomaly)
		assert.Equal(t, 2, fill.next)
		assert.Equal(t, []int{1, 1}, groupSizes(groups))
	})

	t.Run("full groups at the limit are not an anomaly", func(t *testing.T) {
		groups := shells(1, 1)
		fill := fillSnakeDraft(groups, rankedPlayers(4), 0, 1)

		assert.False(t, fill.anomaly)
		assert.Equal(t, 2, fill.next)
	})
}

func TestFillRoundRobin_SweepsEveryGroup(t *testing.T) {
	groups := shells(4, 4, 4)
	fill := fillRoundRobin(groups, rankedPlayers(5), 0, 0)

	want := [][]string{{"P1", "P4"}, {"P2", "P5"}, {"P3"}}
	if diff := cmp.Diff(want, groupIDs(groups)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, fill.next)
}

func TestFillRoundRobin_SkipsFullGroups(t *testing.T) {
	groups := shells(1, 3)
	fill := fillRoundRobin(groups, rankedPlayers(6), 0, 0)

	want := [][]string{{"P1"}, {"P2", "P3", "P4"}}
	if diff := cmp.Diff(want, groupIDs(groups)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, fill.next, "overflow stays behind the cursor")
}

func TestFillTopHeavy_LeavesOverflow(t *testing.T) {
	groups := shells(3, 3)
	fill := fillTopHeavy(groups, rankedPlayers(8), 0, 0)

	want := [][]string{{"P1", "P2", "P3"}, {"P4", "P5", "P6"}}
	if diff := cmp.Diff(want, groupIDs(groups)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, fill.next)
}

func TestAllocateTier_StartsAtCursor(t *testing.T) {
	cfg := &DistributionConfig{
		DefaultGroupCount: 2,
		MaxPerGroup:       2,
		Strategy:          StrategyTopHeavy,
	}
	groups, fill := allocateTier(cfg, "silver", rankedPlayers(9), 3, DefaultSweepLimit)

	want := [][]string{{"P4", "P5"}, {"P6", "P7"}}
	if diff := cmp.Diff(want, groupIDs(groups)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 7, fill.next)
	for i, g := range groups {
		assert.Equal(t, TierKey("silver"), g.Tier)
		assert.Equal(t, i, g.Index)
		assert.Equal(t, 2, g.Capacity)
	}
}

func TestAllocateTier_ExhaustedPool(t *testing.T) {
	cfg := &DistributionConfig{DefaultGroupCount: 2, MaxPerGroup: 3}
	groups, fill := allocateTier(cfg, "bronze", rankedPlayers(4), 4, DefaultSweepLimit)

	assert.Len(t, groups, 2)
	assert.Equal(t, []int{0, 0}, groupSizes(groups))
	assert.Equal(t, 4, fill.next)
}
