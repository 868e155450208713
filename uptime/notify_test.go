package uptime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		last, current Status
		wantKind      AlertKind
		wantNext      Status
		wantEdge      bool
	}{
		{StatusUnknown, StatusDown, AlertDown, StatusDown, true},
		{StatusUp, StatusDown, AlertDown, StatusDown, true},
		{StatusDown, StatusDown, "", StatusDown, false},
		{StatusDown, StatusUp, AlertRecovered, StatusUp, true},
		{StatusDown, StatusHighLatency, AlertRecovered, StatusUp, true},
		{StatusUnknown, StatusUp, "", StatusUnknown, false},
		{StatusUp, StatusUp, "", StatusUp, false},
		{StatusUp, StatusHighLatency, "", StatusUp, false},
		{StatusUnknown, StatusHighLatency, "", StatusUnknown, false},
	}
	for _, test := range tests {
		t.Run(string(test.last)+"->"+string(test.current), func(t *testing.T) {
			kind, next, edge := transition(test.last, test.current)
			assert.Equal(t, test.wantKind, kind)
			assert.Equal(t, test.wantNext, next)
			assert.Equal(t, test.wantEdge, edge)
		})
	}
}

func TestEvaluate_FiresOncePerEdge(t *testing.T) {
	target := Target{
		ID:                 "t1",
		URL:                "http://example.test",
		LastNotifiedStatus: StatusUnknown,
		Notifications:      Notifications{Enabled: true, Address: "ops@example.test"},
	}
	sequence := []Status{StatusUp, StatusDown, StatusDown, StatusDown, StatusHighLatency, StatusUp, StatusDown, StatusUp}

	var kinds []AlertKind
	for _, s := range sequence {
		if a, ok := evaluate(&target, ProbeResult{Status: s}); ok {
			assert.Equal(t, "ops@example.test", a.address)
			kinds = append(kinds, a.msg.Kind)
		}
	}
	assert.Equal(t, []AlertKind{AlertDown, AlertRecovered, AlertDown, AlertRecovered}, kinds)
	assert.Equal(t, StatusUp, target.LastNotifiedStatus)
}

func TestEvaluate_DisabledStillTracksState(t *testing.T) {
	target := Target{LastNotifiedStatus: StatusUp, Notifications: Notifications{Enabled: false, Address: "ops@example.test"}}

	_, ok := evaluate(&target, ProbeResult{Status: StatusDown})
	assert.False(t, ok)
	assert.Equal(t, StatusDown, target.LastNotifiedStatus)

	// re-enabling must not replay the edge already recorded
	target.Notifications.Enabled = true
	_, ok = evaluate(&target, ProbeResult{Status: StatusDown})
	assert.False(t, ok)

	a, ok := evaluate(&target, ProbeResult{Status: StatusUp})
	assert.True(t, ok)
	assert.Equal(t, AlertRecovered, a.msg.Kind)
}

func TestEvaluate_MissingAddressSuppresses(t *testing.T) {
	target := Target{LastNotifiedStatus: StatusUnknown, Notifications: Notifications{Enabled: true, Address: "  "}}
	_, ok := evaluate(&target, ProbeResult{Status: StatusDown})
	assert.False(t, ok)
	assert.Equal(t, StatusDown, target.LastNotifiedStatus)
}

func TestMessageText(t *testing.T) {
	m := Message{Kind: AlertDown, Name: "API", URL: "https://api.example.test", Status: StatusDown, StatusCode: 502, Reason: "HTTP 502 (Bad Gateway)"}
	assert.Contains(t, m.Subject(), "API is DOWN")
	assert.Contains(t, m.Body(), "HTTP Code: 502")
	assert.Contains(t, m.Body(), "Reason: HTTP 502 (Bad Gateway)")

	r := Message{Kind: AlertRecovered, URL: "https://api.example.test", Status: StatusUp, ElapsedMS: 42}
	assert.Contains(t, r.Subject(), "https://api.example.test is UP")
	assert.Contains(t, r.Body(), "Response Time: 42 ms")
}
