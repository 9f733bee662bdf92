package alerting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	pkgerrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// fakeSender records external sends and optionally fails
type fakeSender struct {
	payloads []ExternalPayload
	err      error
}

func (f *fakeSender) SendExternal(ctx context.Context, payload ExternalPayload) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

// fakeBroadcaster records hub broadcasts
type fakeBroadcaster struct {
	frames []string
}

func (f *fakeBroadcaster) BroadcastNotification(alertID, channel, subject, body string) {
	f.frames = append(f.frames, fmt.Sprintf("%s/%s: %s", alertID, channel, subject))
}

func sampleAlert() Alert {
	return Alert{
		ID:       "alert-000001",
		Type:     "budget_warning",
		Severity: SeverityWarning,
		Source:   "alpha",
		Title:    "Daily cost over budget",
		Message:  "cost.dailyCost gt 1.67",
		Status:   StatusActive,
	}
}

func TestTemplateStore_Resolve(t *testing.T) {
	store := NewTemplateStore([]AlertTemplate{
		{ID: "exact", AlertType: "budget_warning", Channel: ChannelEmail, Subject: "exact"},
		{ID: "fallback", AlertType: DefaultTemplateType, Channel: ChannelEmail, Subject: "fallback"},
		{ID: "dash", AlertType: DefaultTemplateType, Channel: ChannelDashboard, Subject: "dash"},
	})

	tpl, found := store.Resolve("budget_warning", ChannelEmail)
	require.True(t, found)
	assert.Equal(t, "exact", tpl.ID)

	tpl, found = store.Resolve("integration_degraded", ChannelEmail)
	require.True(t, found)
	assert.Equal(t, "fallback", tpl.ID)

	_, found = store.Resolve("budget_warning", ChannelSMS)
	assert.False(t, found)
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		expected string
	}{
		{
			"substitutes known fields",
			"[{{severity}}] {{title}}",
			map[string]string{"severity": "warning", "title": "Budget"},
			"[warning] Budget",
		},
		{
			"unresolved placeholders left verbatim",
			"{{title}} at {{unknown.metric}}",
			map[string]string{"title": "Budget"},
			"Budget at {{unknown.metric}}",
		},
		{
			"no placeholders",
			"plain text",
			map[string]string{"title": "Budget"},
			"plain text",
		},
		{
			"no variables",
			"{{title}}",
			nil,
			"{{title}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Interpolate(tt.template, tt.vars))
		})
	}
}

func newTestDispatcher(t *testing.T, templates []AlertTemplate, sender ExternalSender, broadcaster Broadcaster) (*Dispatcher, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return NewDispatcher(NewTemplateStore(templates), sender, broadcaster, metrics.NewCollector(), log, time.Second), hook
}

func TestDispatcher_ExternalDelivery(t *testing.T) {
	sender := &fakeSender{}
	dispatcher, _ := newTestDispatcher(t, []AlertTemplate{
		{ID: "t1", AlertType: "budget_warning", Channel: ChannelEmail, ExternallyIntegrated: true,
			Subject: "[{{severity}}] {{title}}", Body: "{{message}}"},
	}, sender, nil)

	alert := sampleAlert()
	dispatcher.Dispatch(alert, []Channel{ChannelEmail}, []string{"oncall@x.io"}, map[string]string{
		"severity": "warning", "title": alert.Title, "message": alert.Message,
	})

	require.Len(t, sender.payloads, 1)
	payload := sender.payloads[0]
	assert.Equal(t, "[warning] Daily cost over budget", payload.Subject)
	assert.Equal(t, "cost.dailyCost gt 1.67", payload.Body)
	assert.Equal(t, ChannelEmail, payload.Channel)
	assert.Equal(t, []string{"oncall@x.io"}, payload.Recipients)
}

func TestDispatcher_ExternalFailureFallsBackToSink(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("smtp relay down")}
	dispatcher, hook := newTestDispatcher(t, []AlertTemplate{
		{ID: "t1", AlertType: "budget_warning", Channel: ChannelEmail, ExternallyIntegrated: true,
			Subject: "{{title}}", Body: "{{message}}"},
	}, sender, nil)

	dispatcher.Dispatch(sampleAlert(), []Channel{ChannelEmail}, nil, map[string]string{"title": "x", "message": "y"})

	// the failed external send was attempted, then the internal sink
	// recorded the notification
	require.Len(t, sender.payloads, 1)

	var sinkEntry bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Notification" && entry.Level == logrus.InfoLevel {
			sinkEntry = true
		}
	}
	assert.True(t, sinkEntry, "internal sink must record the notification")
}

func TestDispatcher_NotExternallyIntegratedUsesSink(t *testing.T) {
	sender := &fakeSender{}
	broadcaster := &fakeBroadcaster{}
	dispatcher, _ := newTestDispatcher(t, []AlertTemplate{
		{ID: "t1", AlertType: DefaultTemplateType, Channel: ChannelInApp, ExternallyIntegrated: false,
			Subject: "{{title}}", Body: "{{message}}"},
	}, sender, broadcaster)

	dispatcher.Dispatch(sampleAlert(), []Channel{ChannelInApp}, nil, map[string]string{"title": "Budget", "message": "m"})

	assert.Empty(t, sender.payloads)
	require.Len(t, broadcaster.frames, 1)
	assert.Equal(t, "alert-000001/in_app: Budget", broadcaster.frames[0])
}

func TestDispatcher_MissingTemplateIsNoop(t *testing.T) {
	sender := &fakeSender{}
	broadcaster := &fakeBroadcaster{}
	dispatcher, hook := newTestDispatcher(t, nil, sender, broadcaster)

	dispatcher.Dispatch(sampleAlert(), []Channel{ChannelEmail, ChannelSMS}, nil, nil)

	assert.Empty(t, sender.payloads)
	assert.Empty(t, broadcaster.frames)

	warns := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warns++
			err, _ := entry.Data[logrus.ErrorKey].(error)
			assert.ErrorIs(t, err, pkgerrors.ErrTemplateMissing)
		}
	}
	assert.Equal(t, 2, warns, "one template-missing warning per channel")
}
