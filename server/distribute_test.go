package server

import (
	"testing"

	"github.com/echotools/groupseed/seeding"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidatePool(t *testing.T) {
	assert.NoError(t, ValidatePool(nil))
	assert.NoError(t, ValidatePool(rankedPool(3)))
	assert.ErrorIs(t, ValidatePool([]seeding.Player{{ID: "a"}, {}}), ErrMissingPlayerID)
	assert.ErrorIs(t, ValidatePool([]seeding.Player{{ID: "a"}, {ID: "b"}, {ID: "a"}}), ErrDuplicatePlayer)
}

func TestRunDistribution_SweepLimitFromSettings(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	metrics := &testMetrics{}

	settings := NewDistributionSettings()
	settings.Strategy = "snake_draft"
	settings.MaxPerGroup = 10
	settings.Tiers[0].GroupCount = intPtr(2)
	settings.SweepLimit = 3

	result := RunDistribution(logger, metrics, settings, rankedPool(20))

	assert.True(t, result.Anomaly)
	assert.Equal(t, 6, result.TotalPlaced())
	require.Len(t, metrics.distributions, 1)
	assert.Same(t, result, metrics.distributions[0])
	assert.Equal(t, 1, logs.FilterMessage("Distribution finished with anomaly").Len())
}

func TestRunDistribution_LogsEmptyResult(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	settings := NewDistributionSettings()
	settings.Tiers[0].Skip = true
	result := RunDistribution(zap.New(core), nil, settings, rankedPool(4))

	assert.Empty(t, result.Groups)
	assert.Equal(t, 4, result.Unassigned)
	assert.Equal(t, 1, logs.FilterMessage("Distribution formed no groups").Len())
}

func TestRunDistribution_NilMetrics(t *testing.T) {
	result := RunDistribution(loggerForTest(t), nil, NewDistributionSettings(), rankedPool(3))
	assert.Equal(t, 3, result.TotalPlaced())
}

func TestNewDistributeResponse(t *testing.T) {
	runID := uuid.Must(uuid.NewV4())
	result := &seeding.DistributionResult{
		Strategy: seeding.StrategyTopHeavy,
		Groups: []seeding.Group{
			{Tier: "open", Index: 0, Capacity: 2, Players: []seeding.Player{{ID: "a"}, {ID: "b"}}},
			{Tier: "open", Index: 2, Capacity: 2, Players: []seeding.Player{{ID: "x"}}},
		},
		Unassigned: 1,
		Pruned:     []seeding.Group{{Tier: "open", Index: 1}},
	}
	entries := []RatedEntry{ratedEntry("a", 20, 2), ratedEntry("b", 10, 2)}

	resp := NewDistributeResponse(runID, result, entries)

	require.Len(t, resp.Groups, 2)
	assert.Equal(t, runID, resp.RunID)
	assert.Equal(t, GroupID(runID, "open", 2), resp.Groups[1].ID)
	assert.Equal(t, uuid.V5, resp.Groups[0].ID.Version())
	require.NotNil(t, resp.Groups[0].Ordinal)
	assert.InDelta(t, 15.0-3*2.0, *resp.Groups[0].Ordinal, 1e-9)
	assert.Nil(t, resp.Groups[1].Ordinal, "no rated members")
	assert.Equal(t, 1, resp.Pruned)
	assert.True(t, resp.Deterministic)
	assert.NotNil(t, resp.UnassignedPlayers)

	assert.Equal(t, GroupID(runID, "open", 0), NewDistributeResponse(runID, result, nil).Groups[0].ID)
	assert.NotEqual(t, GroupID(runID, "open", 0), GroupID(uuid.Must(uuid.NewV4()), "open", 0))
}
