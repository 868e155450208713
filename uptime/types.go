// Package uptime defines core types for the uptime monitor.
package uptime

import (
	"slices"
	"time"
)

type LogLevel int

const (
	LogNone  LogLevel = iota // no logs
	LogError                 // only down results
	LogInfo                  // every result
	LogDebug                 // verbose
)

// Status is the classified health of a target.
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusUp          Status = "up"
	StatusHighLatency Status = "high_latency"
	StatusDown        Status = "down"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusUp, StatusHighLatency, StatusDown:
		return true
	}
	return false
}

// Notifications holds a target's alert preferences. Address is an e-mail
// address or a webhook URL.
type Notifications struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address,omitempty"`
}

// Target is one monitored URL together with its schedule and derived state.
type Target struct {
	ID                 string         `json:"id"`
	URL                string         `json:"url"`
	Name               string         `json:"name,omitempty"`
	Interval           int            `json:"interval"` // seconds
	AutoMonitor        bool           `json:"auto_monitor"`
	Notifications      Notifications  `json:"notifications"`
	Status             Status         `json:"status"`
	LastChecked        time.Time      `json:"last_checked"`
	LastNotifiedStatus Status         `json:"last_notified_status"`
	Uptime             float64        `json:"uptime"`
	History            []HistoryEntry `json:"history"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Every returns the monitoring interval as a duration.
func (t Target) Every() time.Duration {
	if t.Interval <= 0 {
		return DefaultInterval
	}
	return time.Duration(t.Interval) * time.Second
}

// DueAt is the earliest time the scheduler may probe the target again.
// A target that was never checked is due immediately.
func (t Target) DueAt() time.Time {
	if t.LastChecked.IsZero() {
		return time.Time{}
	}
	return t.LastChecked.Add(t.Every())
}

// Clone returns a deep copy so callers never share the history backing array.
func (t Target) Clone() Target {
	t.History = slices.Clone(t.History)
	return t
}

// ProbeResult represents the outcome of a single health check.
type ProbeResult struct {
	Timestamp  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error"`
}

// HistoryEntry is a ProbeResult persisted on a Target.
type HistoryEntry struct {
	Time       time.Time `json:"time"`
	Status     Status    `json:"status"`
	ElapsedMS  int64     `json:"ms"`
	StatusCode int       `json:"code"`
	Error      string    `json:"error"`
}

// ProbeOutcome is published on the Results channel after a result was applied.
type ProbeOutcome struct {
	TargetID string      `json:"target_id"`
	Name     string      `json:"name"`
	URL      string      `json:"url"`
	Manual   bool        `json:"manual"`
	Result   ProbeResult `json:"result"`
}

// TargetSpec carries the caller-supplied fields for Create.
type TargetSpec struct {
	URL           string        `json:"url"`
	Name          string        `json:"name,omitempty"`
	Interval      int           `json:"interval,omitempty"`
	AutoMonitor   *bool         `json:"auto_monitor,omitempty"`
	Notifications Notifications `json:"notifications"`
}

// TargetPatch lists the fields Update may change; nil fields are left alone.
type TargetPatch struct {
	URL                  *string `json:"url,omitempty"`
	Name                 *string `json:"name,omitempty"`
	Interval             *int    `json:"interval,omitempty"`
	AutoMonitor          *bool   `json:"auto_monitor,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	NotifyAddress        *string `json:"notify_address,omitempty"`
}
