package server

import (
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/echotools/groupseed/seeding"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func loggerForTest(t *testing.T) *zap.Logger {
	t.Helper()
	return NewJSONLogger(os.Stdout, zapcore.ErrorLevel, JSONFormat)
}

var _ Metrics = (*testMetrics)(nil)

// testMetrics records calls instead of reporting them.
type testMetrics struct {
	sync.Mutex
	apiCalls        []string
	apiErrors       int
	distributions   []*seeding.DistributionResult
	settingsUpdates int
}

func (m *testMetrics) Stop(*zap.Logger) {}

func (m *testMetrics) Api(name string, _ time.Duration, _, _ int64, isErr bool) {
	m.Lock()
	defer m.Unlock()
	m.apiCalls = append(m.apiCalls, name)
	if isErr {
		m.apiErrors++
	}
}

func (m *testMetrics) Distribution(result *seeding.DistributionResult, _ time.Duration) {
	m.Lock()
	defer m.Unlock()
	m.distributions = append(m.distributions, result)
}

func (m *testMetrics) SettingsUpdated() {
	m.Lock()
	defer m.Unlock()
	m.settingsUpdates++
}

func rankedPool(n int) []seeding.Player {
	pool := make([]seeding.Player, n)
	for i := range n {
		pool[i] = seeding.Player{
			ID:       "P" + strconv.Itoa(i+1),
			Strength: float64(n - i),
		}
	}
	return pool
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func ratedEntry(id string, mu, sigma float64) RatedEntry {
	return RatedEntry{ID: id, Mu: floatPtr(mu), Sigma: floatPtr(sigma)}
}

// withSettings installs settings for the duration of the test.
func withSettings(t *testing.T, settings *DistributionSettings) {
	t.Helper()
	prev := DistributionSettingsGet()
	DistributionSettingsSet(settings)
	t.Cleanup(func() { DistributionSettingsSet(prev) })
}
