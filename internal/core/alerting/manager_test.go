package alerting

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	pkgerrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// recordingNotifier captures dispatch calls for assertions
type recordingNotifier struct {
	calls []dispatchCall
}

type dispatchCall struct {
	alert      Alert
	channels   []Channel
	recipients []string
	vars       map[string]string
}

func (r *recordingNotifier) Dispatch(alert Alert, channels []Channel, recipients []string, vars map[string]string) {
	r.calls = append(r.calls, dispatchCall{alert, channels, recipients, vars})
}

func newTestManager(t *testing.T) (*Manager, *recordingNotifier) {
	t.Helper()
	log, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	return NewManager(notifier, metrics.NewCollector(), log), notifier
}

func TestManager_Create_ChannelsBySeverity(t *testing.T) {
	tests := []struct {
		severity Severity
		channels []Channel
	}{
		{SeverityEmergency, []Channel{ChannelEmail, ChannelInApp, ChannelSMS, ChannelDashboard}},
		{SeverityCritical, []Channel{ChannelEmail, ChannelInApp, ChannelDashboard}},
		{SeverityError, []Channel{ChannelInApp, ChannelDashboard}},
		{SeverityWarning, []Channel{ChannelDashboard}},
		{SeverityInfo, []Channel{ChannelDashboard}},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			m, notifier := newTestManager(t)
			id, err := m.Create(CreateRequest{
				Type:     "test_alert",
				Severity: tt.severity,
				Source:   "test",
				Title:    "Test",
			})
			require.NoError(t, err)

			alert, err := m.Get(id)
			require.NoError(t, err)
			assert.Equal(t, tt.channels, alert.Channels)
			assert.Equal(t, StatusActive, alert.Status)
			assert.Equal(t, 0, alert.EscalationLevel)

			// one dispatch round over the initial channels
			require.Len(t, notifier.calls, 1)
			assert.Equal(t, tt.channels, notifier.calls[0].channels)
			assert.Equal(t, "created", notifier.calls[0].vars["event"])
		})
	}
}

func TestManager_Create_MalformedInput(t *testing.T) {
	m, notifier := newTestManager(t)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing type", CreateRequest{Severity: SeverityInfo, Source: "s", Title: "t"}},
		{"bad severity", CreateRequest{Type: "x", Severity: Severity("urgent"), Source: "s", Title: "t"}},
		{"missing source", CreateRequest{Type: "x", Severity: SeverityInfo, Title: "t"}},
		{"missing title", CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(tt.req)
			assert.Error(t, err)
		})
	}

	// rejected before storage: nothing stored, nothing dispatched
	assert.Empty(t, m.GetActive())
	assert.Empty(t, notifier.calls)
}

func TestManager_AcknowledgeResolveFlow(t *testing.T) {
	m, _ := newTestManager(t)

	id, err := m.Create(CreateRequest{
		Type: "budget_warning", Severity: SeverityWarning, Source: "alpha", Title: "Budget",
	})
	require.NoError(t, err)

	require.NoError(t, m.Acknowledge(id, "u1"))
	require.NoError(t, m.Resolve(id, "u1", "fixed"))

	alert, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)
	assert.Equal(t, "u1", alert.AcknowledgedBy)
}

func TestManager_ResolveIsTerminal(t *testing.T) {
	m, _ := newTestManager(t)

	id, err := m.Create(CreateRequest{
		Type: "x", Severity: SeverityError, Source: "s", Title: "t",
	})
	require.NoError(t, err)
	require.NoError(t, m.Resolve(id, "op", ""))

	before, _ := m.Get(id)

	assert.ErrorIs(t, m.Acknowledge(id, "u1"), pkgerrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, m.Resolve(id, "u1", ""), pkgerrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, m.Suppress(id, "u1"), pkgerrors.ErrInvalidStateTransition)
	rule := AlertRule{EscalationSteps: []EscalationStep{{Level: 1}}}
	assert.ErrorIs(t, m.Escalate(id, &rule), pkgerrors.ErrInvalidStateTransition)

	// alert unchanged by the rejected mutations
	after, _ := m.Get(id)
	assert.Equal(t, before, after)
}

func TestManager_InvalidTransitions(t *testing.T) {
	m, _ := newTestManager(t)

	id, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityError, Source: "s", Title: "t"})
	require.NoError(t, m.Acknowledge(id, "u1"))

	// acknowledging an acknowledged alert is an error
	assert.ErrorIs(t, m.Acknowledge(id, "u2"), pkgerrors.ErrInvalidStateTransition)

	// unknown ids
	assert.ErrorIs(t, m.Acknowledge("alert-999999", "u1"), pkgerrors.ErrNotFound)
	assert.ErrorIs(t, m.Resolve("alert-999999", "u1", ""), pkgerrors.ErrNotFound)
	assert.ErrorIs(t, m.Suppress("alert-999999", "u1"), pkgerrors.ErrNotFound)
}

func TestManager_AcknowledgeFromEscalated(t *testing.T) {
	m, _ := newTestManager(t)

	id, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityError, Source: "s", Title: "t"})
	rule := AlertRule{EscalationSteps: []EscalationStep{
		{Level: 1, TriggerAfter: time.Minute, AdditionalChannels: []Channel{ChannelEmail}},
	}}
	require.NoError(t, m.Escalate(id, &rule))

	require.NoError(t, m.Acknowledge(id, "oncall"))
	alert, _ := m.Get(id)
	assert.Equal(t, StatusAcknowledged, alert.Status)
	// escalation level survives acknowledgment
	assert.Equal(t, 1, alert.EscalationLevel)
}

func TestManager_Escalate(t *testing.T) {
	m, notifier := newTestManager(t)

	id, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityError, Source: "s", Title: "t"})
	rule := AlertRule{EscalationSteps: []EscalationStep{
		{Level: 1, TriggerAfter: 30 * time.Minute, AdditionalChannels: []Channel{ChannelEmail}, Recipients: []string{"oncall@x.io"}},
		{Level: 2, TriggerAfter: time.Hour, AdditionalChannels: []Channel{ChannelSMS, ChannelInApp}, Recipients: []string{"lead@x.io"}},
	}}

	require.NoError(t, m.Escalate(id, &rule))
	alert, _ := m.Get(id)
	assert.Equal(t, StatusEscalated, alert.Status)
	assert.Equal(t, 1, alert.EscalationLevel)
	assert.Contains(t, alert.Channels, ChannelEmail)

	// second step unions without duplicating in_app
	require.NoError(t, m.Escalate(id, &rule))
	alert, _ = m.Get(id)
	assert.Equal(t, 2, alert.EscalationLevel)
	assert.Contains(t, alert.Channels, ChannelSMS)
	count := 0
	for _, ch := range alert.Channels {
		if ch == ChannelInApp {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// policy exhausted: level stays put
	assert.ErrorIs(t, m.Escalate(id, &rule), pkgerrors.ErrNoMoreEscalationLevels)
	alert, _ = m.Get(id)
	assert.Equal(t, 2, alert.EscalationLevel)

	// escalation dispatches carried the step recipients
	last := notifier.calls[len(notifier.calls)-1]
	assert.Equal(t, "escalated", last.vars["event"])
	assert.Equal(t, []string{"lead@x.io"}, last.recipients)
	assert.Equal(t, []Channel{ChannelSMS, ChannelInApp}, last.channels)
}

func TestManager_GetActiveSorting(t *testing.T) {
	m, _ := newTestManager(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	m.now = func() time.Time { return clock }

	mk := func(severity Severity, title string) string {
		id, err := m.Create(CreateRequest{Type: "x", Severity: severity, Source: "s", Title: title})
		require.NoError(t, err)
		clock = clock.Add(time.Minute)
		return id
	}

	mk(SeverityWarning, "w1")
	mk(SeverityEmergency, "e1")
	infoID := mk(SeverityInfo, "i1")
	mk(SeverityCritical, "c1")
	mk(SeverityWarning, "w2")
	resolvedID := mk(SeverityEmergency, "e2")
	require.NoError(t, m.Resolve(resolvedID, "op", ""))
	suppressedID := mk(SeverityCritical, "c2")
	require.NoError(t, m.Suppress(suppressedID, "op"))
	require.NoError(t, m.Resolve(infoID, "op", ""))

	active := m.GetActive()
	titles := make([]string, 0, len(active))
	for _, alert := range active {
		titles = append(titles, alert.Title)
	}

	// severity weight descending, oldest first within equal severity;
	// resolved and suppressed excluded
	assert.Equal(t, []string{"e1", "c1", "w1", "w2"}, titles)
}

func TestManager_Statistics(t *testing.T) {
	m, _ := newTestManager(t)

	a1, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityEmergency, Source: "alpha", Title: "t"})
	m.Create(CreateRequest{Type: "x", Severity: SeverityCritical, Source: "alpha", Title: "t"})
	m.Create(CreateRequest{Type: "x", Severity: SeverityWarning, Source: "beta", Title: "t"})
	require.NoError(t, m.Resolve(a1, "op", ""))

	stats := m.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Critical)
	assert.Equal(t, 1, stats.ByStatus[StatusResolved])
	assert.Equal(t, 2, stats.ByStatus[StatusActive])
	assert.Equal(t, 2, stats.BySource["alpha"])
	assert.Equal(t, 1, stats.BySeverity[SeverityWarning])
}

func TestManager_PurgeResolved(t *testing.T) {
	m, _ := newTestManager(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	m.now = func() time.Time { return clock }

	oldID, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s", Title: "old"})
	require.NoError(t, m.Resolve(oldID, "op", ""))

	clock = base.Add(48 * time.Hour)
	freshID, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s", Title: "fresh"})
	require.NoError(t, m.Resolve(freshID, "op", ""))
	openID, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s", Title: "open"})

	removed := m.PurgeResolved(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, err := m.Get(oldID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	_, err = m.Get(freshID)
	assert.NoError(t, err)
	_, err = m.Get(openID)
	assert.NoError(t, err)
}

func TestManager_MonotonicIDs(t *testing.T) {
	m, _ := newTestManager(t)

	first, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s", Title: "t"})
	second, _ := m.Create(CreateRequest{Type: "x", Severity: SeverityInfo, Source: "s", Title: "t"})

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}
