package uptime

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Notifier delivers alerts. The Checker calls it fire-and-forget: errors are
// logged and never retried.
type Notifier interface {
	Send(ctx context.Context, address string, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, address string, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, address string, msg Message) error {
	return f(ctx, address, msg)
}

type AlertKind string

const (
	AlertDown      AlertKind = "down"
	AlertRecovered AlertKind = "recovered"
)

// Message describes one transition edge.
type Message struct {
	Kind       AlertKind `json:"kind"`
	TargetID   string    `json:"target_id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	StatusCode int       `json:"status_code"`
	Reason     string    `json:"reason"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Uptime     float64   `json:"uptime"`
	At         time.Time `json:"at"`
}

func (m Message) label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.URL
}

// Subject is a one-line summary suitable for an e-mail subject.
func (m Message) Subject() string {
	if m.Kind == AlertDown {
		return fmt.Sprintf("🔴 Uptime Monitor Alert: %s is DOWN", m.label())
	}
	return fmt.Sprintf("🟢 Uptime Monitor Recovery: %s is UP", m.label())
}

// Body is the plain-text alert body.
func (m Message) Body() string {
	var b strings.Builder
	if m.Kind == AlertDown {
		b.WriteString("Uptime Monitor Alert\n\n")
	} else {
		b.WriteString("Uptime Monitor Recovery\n\n")
	}
	fmt.Fprintf(&b, "Target: %s\n", m.label())
	fmt.Fprintf(&b, "URL: %s\n", m.URL)
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(string(m.Status)))
	if m.StatusCode > 0 {
		fmt.Fprintf(&b, "HTTP Code: %d\n", m.StatusCode)
	}
	fmt.Fprintf(&b, "Reason: %s\n", m.Reason)
	if m.Kind == AlertRecovered {
		fmt.Fprintf(&b, "Response Time: %d ms\n", m.ElapsedMS)
	}
	fmt.Fprintf(&b, "Uptime: %.2f%%\n", m.Uptime)
	fmt.Fprintf(&b, "Time: %s\n", m.At.Format("2006-01-02 15:04:05"))
	return b.String()
}

// transition decides whether moving from lastNotified to current is an
// alerting edge, and what lastNotified becomes.
func transition(lastNotified, current Status) (AlertKind, Status, bool) {
	switch {
	case current == StatusDown && lastNotified != StatusDown:
		return AlertDown, StatusDown, true
	case lastNotified == StatusDown && (current == StatusUp || current == StatusHighLatency):
		return AlertRecovered, StatusUp, true
	}
	return "", lastNotified, false
}

// pendingAlert is a message waiting to be sent once the state that produced
// it has been saved.
type pendingAlert struct {
	address string
	msg     Message
}

// evaluate advances the target's notification state for its current status.
// It always updates LastNotifiedStatus on an edge and returns a pending alert
// only when notifications are enabled with an address.
func evaluate(t *Target, res ProbeResult) (pendingAlert, bool) {
	kind, next, edge := transition(t.LastNotifiedStatus, res.Status)
	if !edge {
		return pendingAlert{}, false
	}
	t.LastNotifiedStatus = next
	if !t.Notifications.Enabled || strings.TrimSpace(t.Notifications.Address) == "" {
		return pendingAlert{}, false
	}
	return pendingAlert{
		address: t.Notifications.Address,
		msg: Message{
			Kind:       kind,
			TargetID:   t.ID,
			Name:       t.Name,
			URL:        t.URL,
			Status:     res.Status,
			StatusCode: res.StatusCode,
			Reason:     res.Error,
			ElapsedMS:  res.ElapsedMS,
			Uptime:     t.Uptime,
			At:         res.Timestamp,
		},
	}, true
}
