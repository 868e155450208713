package uptime

import "math"

// Record appends res to the target's rolling history, evicts the oldest
// entries beyond capacity and recomputes uptime.
func Record(t *Target, res ProbeResult, capacity int) {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	t.History = append(t.History, HistoryEntry{
		Time:       res.Timestamp,
		Status:     res.Status,
		ElapsedMS:  res.ElapsedMS,
		StatusCode: res.StatusCode,
		Error:      res.Error,
	})
	if n := len(t.History); n > capacity {
		// copy so the evicted prefix does not stay reachable through the backing array
		t.History = append([]HistoryEntry(nil), t.History[n-capacity:]...)
	}
	t.Status = res.Status
	t.Uptime = ComputeUptime(t.History)
}

// ComputeUptime returns the time-weighted share of "up" entries, in percent
// rounded to two decimals. Each entry weighs its elapsed milliseconds, at
// least 1. Empty history counts as fully up.
func ComputeUptime(history []HistoryEntry) float64 {
	var total, up int64
	for _, h := range history {
		w := h.ElapsedMS
		if w < 1 {
			w = 1
		}
		total += w
		if h.Status == StatusUp {
			up += w
		}
	}
	if total == 0 {
		return 100
	}
	return math.Round(float64(up)/float64(total)*100*100) / 100
}
