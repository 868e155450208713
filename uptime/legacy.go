package uptime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// LegacyTimeLayout is how the first dashboard wrote timestamps: local time,
// second precision.
const LegacyTimeLayout = "2006-01-02 15:04:05"

// LegacyID is a target id as the first dashboard stored it. Those ids were
// integers (creation time in milliseconds); newer ones are strings.
type LegacyID string

func (id *LegacyID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = LegacyID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = LegacyID(strconv.FormatInt(n, 10))
	return nil
}

// LegacyTime reads and writes LegacyTimeLayout. The zero time is null.
type LegacyTime time.Time

func (t LegacyTime) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(time.Time(t).Local().Format(LegacyTimeLayout))
}

func (t *LegacyTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = LegacyTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = LegacyTime{}
		return nil
	}
	parsed, err := time.ParseInLocation(LegacyTimeLayout, s, time.Local)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return fmt.Errorf("invalid time %q", s)
		}
	}
	*t = LegacyTime(parsed)
	return nil
}

type LegacyHistoryEntry struct {
	Time   LegacyTime `json:"time"`
	Status Status     `json:"status"`
	MS     int64      `json:"ms"`
	Code   int        `json:"code"`
	Error  string     `json:"error"`
}

// LegacyTarget is the record layout of the first dashboard's websites.json
// and of its /websites routes.
type LegacyTarget struct {
	ID                   LegacyID             `json:"id"`
	Name                 string               `json:"name"`
	URL                  string               `json:"url"`
	Interval             int                  `json:"interval"`
	AutoMonitor          *bool                `json:"auto_monitor"`
	NotificationsEnabled bool                 `json:"notifications_enabled"`
	Status               Status               `json:"status"`
	Uptime               float64              `json:"uptime"`
	LastChecked          LegacyTime           `json:"lastChecked"`
	ResponseHistory      []LegacyHistoryEntry `json:"responseHistory"`
}

// ToLegacy renders t in the first dashboard's layout.
func ToLegacy(t Target) LegacyTarget {
	auto := t.AutoMonitor
	out := LegacyTarget{
		ID:                   LegacyID(t.ID),
		Name:                 t.Name,
		URL:                  t.URL,
		Interval:             t.Interval,
		AutoMonitor:          &auto,
		NotificationsEnabled: t.Notifications.Enabled,
		Status:               t.Status,
		Uptime:               t.Uptime,
		LastChecked:          LegacyTime(t.LastChecked),
		ResponseHistory:      make([]LegacyHistoryEntry, len(t.History)),
	}
	for i, h := range t.History {
		out.ResponseHistory[i] = LegacyHistoryEntry{
			Time:   LegacyTime(h.Time),
			Status: h.Status,
			MS:     h.ElapsedMS,
			Code:   h.StatusCode,
			Error:  h.Error,
		}
	}
	return out
}

// Target converts a legacy record. Missing fields get the defaults the first
// dashboard applied; numeric ids also yield the creation time.
func (l LegacyTarget) Target() Target {
	t := Target{
		ID:                 string(l.ID),
		URL:                l.URL,
		Name:               l.Name,
		Interval:           l.Interval,
		AutoMonitor:        true,
		Notifications:      Notifications{Enabled: l.NotificationsEnabled},
		Status:             l.Status,
		LastChecked:        time.Time(l.LastChecked),
		LastNotifiedStatus: StatusUnknown,
		History:            make([]HistoryEntry, 0, len(l.ResponseHistory)),
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if ms, err := strconv.ParseInt(t.ID, 10, 64); err == nil {
		t.CreatedAt = time.UnixMilli(ms)
	}
	if l.AutoMonitor != nil {
		t.AutoMonitor = *l.AutoMonitor
	}
	if t.Interval < 1 {
		t.Interval = DefaultIntervalSeconds
	}
	if !t.Status.Valid() {
		t.Status = StatusUnknown
	}
	for _, h := range l.ResponseHistory {
		status := h.Status
		if !status.Valid() {
			status = StatusUnknown
		}
		t.History = append(t.History, HistoryEntry{
			Time:       time.Time(h.Time),
			Status:     status,
			ElapsedMS:  h.MS,
			StatusCode: h.Code,
			Error:      h.Error,
		})
	}
	t.Uptime = ComputeUptime(t.History)
	return t
}
