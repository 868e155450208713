package uptime

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(status Status, ms int64) HistoryEntry {
	return HistoryEntry{Status: status, ElapsedMS: ms}
}

func TestComputeUptime(t *testing.T) {
	tests := []struct {
		name    string
		history []HistoryEntry
		want    float64
	}{
		{"empty history", nil, 100},
		{"all up", []HistoryEntry{entry(StatusUp, 120), entry(StatusUp, 80)}, 100},
		{"all down", []HistoryEntry{entry(StatusDown, 120)}, 0},
		{"time weighted", []HistoryEntry{entry(StatusUp, 100), entry(StatusDown, 300)}, 25},
		{"zero elapsed weighs one", []HistoryEntry{entry(StatusUp, 0), entry(StatusDown, 0)}, 50},
		{"high latency is not up", []HistoryEntry{entry(StatusUp, 1000), entry(StatusHighLatency, 4000)}, 20},
		{"rounded to two decimals", []HistoryEntry{entry(StatusUp, 1), entry(StatusDown, 2)}, 33.33},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, ComputeUptime(test.history))
		})
	}
}

func TestRecord_UpdatesStatusAndUptime(t *testing.T) {
	target := Target{Status: StatusUnknown, Uptime: 100}

	Record(&target, ProbeResult{Timestamp: time.Now(), Status: StatusUp, ElapsedMS: 300, StatusCode: 200, Error: "OK"}, 10)
	Record(&target, ProbeResult{Timestamp: time.Now(), Status: StatusDown, ElapsedMS: 100, Error: "Timeout"}, 10)

	require.Len(t, target.History, 2)
	assert.Equal(t, StatusDown, target.Status)
	assert.Equal(t, 75.0, target.Uptime)
	assert.Equal(t, "Timeout", target.History[1].Error)
	assert.Equal(t, 200, target.History[0].StatusCode)
}

func TestRecord_EvictsOldestFirst(t *testing.T) {
	const capacity, extra = 5, 3
	var target Target
	for i := 0; i < capacity+extra; i++ {
		Record(&target, ProbeResult{Status: StatusUp, ElapsedMS: int64(i)}, capacity)
		require.LessOrEqual(t, len(target.History), capacity)
	}

	require.Len(t, target.History, capacity)
	for i, h := range target.History {
		assert.Equal(t, int64(extra+i), h.ElapsedMS, "entry %d", i)
	}
}

func TestRecord_UptimeStaysInRange(t *testing.T) {
	statuses := []Status{StatusUp, StatusDown, StatusHighLatency}
	rng := rand.New(rand.NewSource(7))
	var target Target
	for i := 0; i < 1000; i++ {
		Record(&target, ProbeResult{Status: statuses[rng.Intn(len(statuses))], ElapsedMS: rng.Int63n(5000)}, 50)
		assert.GreaterOrEqual(t, target.Uptime, 0.0)
		assert.LessOrEqual(t, target.Uptime, 100.0)
	}
	assert.Len(t, target.History, 50)
}
