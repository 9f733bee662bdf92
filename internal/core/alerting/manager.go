package alerting

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// Notifier delivers alert notifications. Delivery failures are handled
// inside the notifier and never surface to lifecycle transitions.
type Notifier interface {
	Dispatch(alert Alert, channels []Channel, recipients []string, vars map[string]string)
}

// CreateRequest carries the input for a new alert
type CreateRequest struct {
	RuleID   string
	Type     string
	Severity Severity
	Source   string
	Title    string
	Message  string
	Details  AlertDetails
	// TemplateID is the rule's communication template, recorded on the
	// alert for audit
	TemplateID string
	// MetricValues are the snapshot values that triggered the alert,
	// made available to template interpolation; not stored on the alert
	MetricValues map[string]float64
}

// Manager owns the alert collection and enforces the state machine. All
// mutations are linearized behind a single mutex; reads return copies.
type Manager struct {
	mu         sync.RWMutex
	alerts     map[string]*Alert
	seq        uint64
	lastByRule map[string]time.Time

	notifier Notifier
	logger   *logrus.Logger
	metrics  *metrics.Collector

	// now is swappable for tests
	now func() time.Time
}

// NewManager creates an alert lifecycle manager
func NewManager(notifier Notifier, collector *metrics.Collector, logger *logrus.Logger) *Manager {
	return &Manager{
		alerts:     make(map[string]*Alert),
		lastByRule: make(map[string]time.Time),
		notifier:   notifier,
		logger:     logger,
		metrics:    collector,
		now:        time.Now,
	}
}

// Create allocates a new alert, selects its channels from severity and
// stores it as a single atomic step, then dispatches notifications.
func (m *Manager) Create(req CreateRequest) (string, error) {
	if req.Type == "" {
		return "", fmt.Errorf("alert type is required")
	}
	if !req.Severity.Valid() {
		return "", fmt.Errorf("unknown severity: %s", req.Severity)
	}
	if req.Source == "" {
		return "", fmt.Errorf("alert source is required")
	}
	if req.Title == "" {
		return "", fmt.Errorf("alert title is required")
	}

	m.mu.Lock()
	m.seq++
	alert := &Alert{
		ID:              fmt.Sprintf("alert-%06d", m.seq),
		RuleID:          req.RuleID,
		Type:            req.Type,
		Severity:        req.Severity,
		Source:          req.Source,
		Title:           req.Title,
		Message:         req.Message,
		Details:         req.Details,
		Status:          StatusActive,
		CreatedAt:       m.now(),
		EscalationLevel: 0,
		Channels:        ChannelsForSeverity(req.Severity),
		TemplateUsed:    req.TemplateID,
	}
	m.alerts[alert.ID] = alert
	if req.RuleID != "" {
		m.lastByRule[req.RuleID] = alert.CreatedAt
	}
	snapshot := *alert
	snapshot.Channels = append([]Channel(nil), alert.Channels...)
	m.mu.Unlock()

	m.metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	m.updateActiveGauge()

	m.logger.WithFields(logrus.Fields{
		"alert_id": snapshot.ID,
		"rule_id":  snapshot.RuleID,
		"type":     snapshot.Type,
		"severity": snapshot.Severity,
		"source":   snapshot.Source,
		"channels": snapshot.Channels,
	}).Info("Alert created")

	if m.notifier != nil {
		vars := alertVars(snapshot)
		vars["event"] = "created"
		for name, value := range req.MetricValues {
			vars[name] = fmt.Sprintf("%g", value)
		}
		m.notifier.Dispatch(snapshot, snapshot.Channels, nil, vars)
	}

	return snapshot.ID, nil
}

// Acknowledge marks an alert as acknowledged. Valid only from active or
// escalated; acknowledging twice is an invalid transition.
func (m *Manager) Acknowledge(alertID, by string) error {
	m.mu.Lock()
	alert, exists := m.alerts[alertID]
	if !exists {
		m.mu.Unlock()
		return errors.ErrNotFound
	}
	switch alert.Status {
	case StatusActive, StatusEscalated:
	default:
		status := alert.Status
		m.mu.Unlock()
		return fmt.Errorf("acknowledge from %s: %w", status, errors.ErrInvalidStateTransition)
	}
	alert.Status = StatusAcknowledged
	alert.AcknowledgedBy = by
	snapshot := m.copyLocked(alert)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"alert_id":        alertID,
		"acknowledged_by": by,
	}).Info("Alert acknowledged")

	m.dispatchEvent(snapshot, "acknowledged", map[string]string{"acknowledged_by": by})
	return nil
}

// Resolve terminally resolves an alert from any non-terminal state. No
// field may change afterwards.
func (m *Manager) Resolve(alertID, by, note string) error {
	m.mu.Lock()
	alert, exists := m.alerts[alertID]
	if !exists {
		m.mu.Unlock()
		return errors.ErrNotFound
	}
	if alert.Status == StatusResolved {
		m.mu.Unlock()
		return fmt.Errorf("resolve from resolved: %w", errors.ErrInvalidStateTransition)
	}
	now := m.now()
	alert.Status = StatusResolved
	alert.ResolvedAt = &now
	snapshot := m.copyLocked(alert)
	m.mu.Unlock()

	m.metrics.AlertsResolved.Inc()
	m.updateActiveGauge()

	m.logger.WithFields(logrus.Fields{
		"alert_id":    alertID,
		"resolved_by": by,
		"note":        note,
		"duration":    now.Sub(snapshot.CreatedAt).String(),
	}).Info("Alert resolved")

	m.dispatchEvent(snapshot, "resolved", map[string]string{"resolved_by": by, "note": note})
	return nil
}

// Suppress moves an alert into the suppressed state via explicit
// operator action. Suppressed alerts are excluded from the active list
// but can still be resolved.
func (m *Manager) Suppress(alertID, by string) error {
	m.mu.Lock()
	alert, exists := m.alerts[alertID]
	if !exists {
		m.mu.Unlock()
		return errors.ErrNotFound
	}
	switch alert.Status {
	case StatusActive, StatusAcknowledged, StatusEscalated:
	default:
		status := alert.Status
		m.mu.Unlock()
		return fmt.Errorf("suppress from %s: %w", status, errors.ErrInvalidStateTransition)
	}
	alert.Status = StatusSuppressed
	m.mu.Unlock()

	m.updateActiveGauge()
	m.logger.WithFields(logrus.Fields{
		"alert_id":      alertID,
		"suppressed_by": by,
	}).Info("Alert suppressed")
	return nil
}

// Escalate advances an alert one escalation level against its rule's
// policy, unions in the step's channels and notifies its recipients.
func (m *Manager) Escalate(alertID string, rule *AlertRule) error {
	m.mu.Lock()
	alert, exists := m.alerts[alertID]
	if !exists {
		m.mu.Unlock()
		return errors.ErrNotFound
	}
	switch alert.Status {
	case StatusActive, StatusAcknowledged, StatusEscalated:
	default:
		status := alert.Status
		m.mu.Unlock()
		return fmt.Errorf("escalate from %s: %w", status, errors.ErrInvalidStateTransition)
	}
	if alert.EscalationLevel >= len(rule.EscalationSteps) {
		m.mu.Unlock()
		return errors.ErrNoMoreEscalationLevels
	}
	step := rule.EscalationSteps[alert.EscalationLevel]
	alert.EscalationLevel++
	alert.Status = StatusEscalated
	for _, ch := range step.AdditionalChannels {
		if !containsChannel(alert.Channels, ch) {
			alert.Channels = append(alert.Channels, ch)
		}
	}
	snapshot := m.copyLocked(alert)
	m.mu.Unlock()

	m.metrics.AlertsEscalated.Inc()

	m.logger.WithFields(logrus.Fields{
		"alert_id":         alertID,
		"rule_id":          rule.ID,
		"escalation_level": snapshot.EscalationLevel,
		"added_channels":   step.AdditionalChannels,
		"recipients":       step.Recipients,
	}).Warn("Alert escalated")

	if m.notifier != nil {
		vars := alertVars(snapshot)
		vars["event"] = "escalated"
		vars["escalation_level"] = fmt.Sprintf("%d", snapshot.EscalationLevel)
		m.notifier.Dispatch(snapshot, step.AdditionalChannels, step.Recipients, vars)
	}
	return nil
}

// Get returns a copy of a single alert
func (m *Manager) Get(alertID string) (Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, exists := m.alerts[alertID]
	if !exists {
		return Alert{}, errors.ErrNotFound
	}
	return m.copyLocked(alert), nil
}

// GetActive returns alerts in active, acknowledged or escalated status,
// sorted by severity weight descending, oldest first within a severity.
func (m *Manager) GetActive() []Alert {
	m.mu.RLock()
	active := make([]Alert, 0)
	for _, alert := range m.alerts {
		switch alert.Status {
		case StatusActive, StatusAcknowledged, StatusEscalated:
			active = append(active, m.copyLocked(alert))
		}
	}
	m.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		wi, wj := active[i].Severity.Weight(), active[j].Severity.Weight()
		if wi != wj {
			return wi > wj
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// Escalatable returns copies of alerts the escalation monitor should
// examine: everything not resolved and not suppressed.
func (m *Manager) Escalatable() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]Alert, 0)
	for _, alert := range m.alerts {
		switch alert.Status {
		case StatusActive, StatusAcknowledged, StatusEscalated:
			alerts = append(alerts, m.copyLocked(alert))
		}
	}
	return alerts
}

// LastCreatedFor returns the creation time of the most recent alert
// raised by the given rule. Lookup is keyed by rule id so one rule's
// cooldown never suppresses another rule's alerts.
func (m *Manager) LastCreatedFor(ruleID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.lastByRule[ruleID]
	return t, ok
}

// Statistics summarizes the alert collection
func (m *Manager) Statistics() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		ByStatus:   make(map[Status]int),
		BySeverity: make(map[Severity]int),
		BySource:   make(map[string]int),
	}
	for _, alert := range m.alerts {
		stats.Total++
		stats.ByStatus[alert.Status]++
		stats.BySeverity[alert.Severity]++
		stats.BySource[alert.Source]++
		if alert.Severity == SeverityCritical || alert.Severity == SeverityEmergency {
			stats.Critical++
		}
	}
	return stats
}

// PurgeResolved drops resolved alerts older than the retention period
// and returns how many were removed
func (m *Manager) PurgeResolved(retention time.Duration) int {
	cutoff := m.now().Add(-retention)

	m.mu.Lock()
	removed := 0
	for id, alert := range m.alerts {
		if alert.Status == StatusResolved && alert.ResolvedAt != nil && alert.ResolvedAt.Before(cutoff) {
			delete(m.alerts, id)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.WithField("removed_count", removed).Info("Purged old resolved alerts")
	}
	return removed
}

func (m *Manager) dispatchEvent(alert Alert, event string, extra map[string]string) {
	if m.notifier == nil {
		return
	}
	vars := alertVars(alert)
	vars["event"] = event
	for k, v := range extra {
		vars[k] = v
	}
	m.notifier.Dispatch(alert, alert.Channels, nil, vars)
}

func (m *Manager) updateActiveGauge() {
	m.mu.RLock()
	count := 0
	for _, alert := range m.alerts {
		switch alert.Status {
		case StatusActive, StatusAcknowledged, StatusEscalated, StatusSuppressed:
			count++
		}
	}
	m.mu.RUnlock()
	m.metrics.ActiveAlerts.Set(float64(count))
}

// copyLocked returns a value copy with its own channel slice; the
// caller must hold at least a read lock
func (m *Manager) copyLocked(alert *Alert) Alert {
	snapshot := *alert
	snapshot.Channels = append([]Channel(nil), alert.Channels...)
	return snapshot
}

func containsChannel(channels []Channel, ch Channel) bool {
	for _, c := range channels {
		if c == ch {
			return true
		}
	}
	return false
}

func alertVars(alert Alert) map[string]string {
	return map[string]string{
		"alert_id": alert.ID,
		"title":    alert.Title,
		"message":  alert.Message,
		"severity": string(alert.Severity),
		"source":   alert.Source,
		"type":     alert.Type,
		"status":   string(alert.Status),
	}
}
