package alerting

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// DefaultTemplateType matches any alert type when no exact template
// exists for (type, channel)
const DefaultTemplateType = "default"

// ExternalPayload is the structured payload forwarded to the external
// communication collaborator for externally integrated templates
type ExternalPayload struct {
	AlertID    string    `json:"alert_id"`
	Type       string    `json:"type"`
	Severity   Severity  `json:"severity"`
	Source     string    `json:"source"`
	Channel    Channel   `json:"channel"`
	Recipients []string  `json:"recipients,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

// ExternalSender forwards payloads to the external communication
// collaborator (webhook, mail relay, ...)
type ExternalSender interface {
	SendExternal(ctx context.Context, payload ExternalPayload) error
}

// Broadcaster pushes rendered notifications to connected dashboard and
// in-app clients
type Broadcaster interface {
	BroadcastNotification(alertID string, channel string, subject, body string)
}

// TemplateStore resolves notification templates by (alert type, channel).
// Templates are read-mostly configuration.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[templateKey]*AlertTemplate
}

type templateKey struct {
	alertType string
	channel   Channel
}

// NewTemplateStore creates a template store
func NewTemplateStore(templates []AlertTemplate) *TemplateStore {
	ts := &TemplateStore{templates: make(map[templateKey]*AlertTemplate)}
	for i := range templates {
		tpl := templates[i]
		ts.templates[templateKey{tpl.AlertType, tpl.Channel}] = &tpl
	}
	return ts
}

// Add registers a template, replacing any existing (type, channel) entry
func (ts *TemplateStore) Add(tpl AlertTemplate) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.templates[templateKey{tpl.AlertType, tpl.Channel}] = &tpl
}

// Resolve looks up a template for the alert type and channel, falling
// back to the generic default template for the channel
func (ts *TemplateStore) Resolve(alertType string, channel Channel) (AlertTemplate, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if tpl, ok := ts.templates[templateKey{alertType, channel}]; ok {
		return *tpl, true
	}
	if tpl, ok := ts.templates[templateKey{DefaultTemplateType, channel}]; ok {
		return *tpl, true
	}
	return AlertTemplate{}, false
}

// Dispatcher resolves templates, interpolates alert fields and forwards
// notifications. Failures are logged and absorbed; they never reach the
// lifecycle transition that triggered the dispatch.
type Dispatcher struct {
	templates   *TemplateStore
	sender      ExternalSender
	broadcaster Broadcaster
	logger      *logrus.Logger
	metrics     *metrics.Collector
	sendTimeout time.Duration
}

// NewDispatcher creates a notification dispatcher. sender and
// broadcaster may be nil; the internal log sink always works.
func NewDispatcher(templates *TemplateStore, sender ExternalSender, broadcaster Broadcaster, collector *metrics.Collector, logger *logrus.Logger, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		templates:   templates,
		sender:      sender,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     collector,
		sendTimeout: sendTimeout,
	}
}

// Dispatch sends one notification per channel for the alert
func (d *Dispatcher) Dispatch(alert Alert, channels []Channel, recipients []string, vars map[string]string) {
	for _, channel := range channels {
		d.dispatchOne(alert, channel, recipients, vars)
	}
}

func (d *Dispatcher) dispatchOne(alert Alert, channel Channel, recipients []string, vars map[string]string) {
	tpl, found := d.templates.Resolve(alert.Type, channel)
	if !found {
		d.metrics.Notifications.WithLabelValues(string(channel), "template_missing").Inc()
		d.logger.WithError(errors.ErrTemplateMissing).WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"type":     alert.Type,
			"channel":  channel,
		}).Warn("No notification template for alert type and channel")
		return
	}

	subject := Interpolate(tpl.Subject, vars)
	body := Interpolate(tpl.Body, vars)

	if tpl.ExternallyIntegrated && d.sender != nil {
		payload := ExternalPayload{
			AlertID:    alert.ID,
			Type:       alert.Type,
			Severity:   alert.Severity,
			Source:     alert.Source,
			Channel:    channel,
			Recipients: recipients,
			Subject:    subject,
			Body:       body,
			Timestamp:  time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sender.SendExternal(ctx, payload)
		cancel()
		if err == nil {
			d.metrics.Notifications.WithLabelValues(string(channel), "sent").Inc()
			d.logger.WithFields(logrus.Fields{
				"alert_id": alert.ID,
				"channel":  channel,
				"template": tpl.ID,
			}).Debug("Notification delivered externally")
			return
		}

		d.metrics.Notifications.WithLabelValues(string(channel), "fallback").Inc()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"channel":  channel,
		}).Warn("External delivery failed, falling back to internal sink")
	}

	d.internalSink(alert, channel, tpl.ID, subject, body)
}

// internalSink records the notification in the log and pushes it to any
// connected in-app clients. It cannot fail.
func (d *Dispatcher) internalSink(alert Alert, channel Channel, templateID, subject, body string) {
	d.metrics.Notifications.WithLabelValues(string(channel), "internal").Inc()
	d.logger.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"channel":  channel,
		"template": templateID,
		"subject":  subject,
		"body":     body,
	}).Info("Notification")

	if d.broadcaster != nil && (channel == ChannelInApp || channel == ChannelDashboard) {
		d.broadcaster.BroadcastNotification(alert.ID, string(channel), subject, body)
	}
}

// Interpolate substitutes {{name}} placeholders with variable values.
// Unresolved placeholders are left verbatim rather than dropped.
func Interpolate(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
