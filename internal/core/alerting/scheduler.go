package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// Scheduler holds the rule set and periodically evaluates every enabled
// rule against the latest merged snapshot.
type Scheduler struct {
	mu        sync.RWMutex
	rules     map[string]*AlertRule
	streaks   map[string]int
	providers []SnapshotProvider

	manager         *Manager
	logger          *logrus.Logger
	metrics         *metrics.Collector
	interval        time.Duration
	snapshotTimeout time.Duration

	now func() time.Time
}

// NewScheduler creates a rule scheduler. Providers are polled once per
// tick and their snapshots merged into a single metric tree.
func NewScheduler(manager *Manager, providers []SnapshotProvider, collector *metrics.Collector, logger *logrus.Logger, interval, snapshotTimeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if snapshotTimeout <= 0 {
		snapshotTimeout = 10 * time.Second
	}
	return &Scheduler{
		rules:           make(map[string]*AlertRule),
		streaks:         make(map[string]int),
		providers:       providers,
		manager:         manager,
		logger:          logger,
		metrics:         collector,
		interval:        interval,
		snapshotTimeout: snapshotTimeout,
		now:             time.Now,
	}
}

// AddRule validates and registers a rule. A missing id gets generated.
func (s *Scheduler) AddRule(rule AlertRule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", fmt.Errorf("invalid rule %q: %w", rule.Name, err)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.rules[rule.ID] = &rule
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"rule_id":  rule.ID,
		"name":     rule.Name,
		"metric":   rule.Condition.Metric,
		"severity": rule.Severity,
		"enabled":  rule.Enabled,
	}).Info("Alert rule added")
	return rule.ID, nil
}

// Rule returns a copy of a rule by id
func (s *Scheduler) Rule(ruleID string) (AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[ruleID]
	if !exists {
		return AlertRule{}, errors.ErrNotFound
	}
	return *rule, nil
}

// Rules returns copies of all registered rules
func (s *Scheduler) Rules() []AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]AlertRule, 0, len(s.rules))
	for _, rule := range s.rules {
		rules = append(rules, *rule)
	}
	return rules
}

// SetEnabled flips a rule's enabled flag
func (s *Scheduler) SetEnabled(ruleID string, enabled bool) error {
	s.mu.Lock()
	rule, exists := s.rules[ruleID]
	if !exists {
		s.mu.Unlock()
		return errors.ErrNotFound
	}
	rule.Enabled = enabled
	if !enabled {
		delete(s.streaks, ruleID)
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"enabled": enabled,
	}).Info("Alert rule toggled")
	return nil
}

// run is the periodic evaluation loop; it ticks until the context is
// cancelled and lets an in-flight tick complete before returning
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval.String()).Info("Rule evaluation loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Rule evaluation loop stopped")
			return
		case <-ticker.C:
			s.EvaluateTick(ctx)
		}
	}
}

// EvaluateTick pulls the latest snapshot and evaluates every enabled
// rule against it. Failures are logged per rule so one bad rule never
// halts the tick for the others.
func (s *Scheduler) EvaluateTick(ctx context.Context) {
	snapshot := s.collectSnapshot(ctx)

	s.mu.RLock()
	enabled := make([]*AlertRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	s.mu.RUnlock()

	for _, rule := range enabled {
		s.evaluateRule(rule, snapshot)
	}
}

// collectSnapshot polls every provider with a bounded timeout and merges
// the results. A failed provider contributes nothing (fail-open).
func (s *Scheduler) collectSnapshot(ctx context.Context) Snapshot {
	parts := make([]Snapshot, 0, len(s.providers))
	for _, provider := range s.providers {
		callCtx, cancel := context.WithTimeout(ctx, s.snapshotTimeout)
		part, err := provider.GetSnapshot(callCtx)
		cancel()
		if err != nil {
			s.metrics.SnapshotFailures.WithLabelValues(provider.Name()).Inc()
			s.logger.WithError(err).WithField("provider", provider.Name()).Warn("Snapshot provider failed")
			continue
		}
		parts = append(parts, part)
	}
	return MergeSnapshots(parts...)
}

func (s *Scheduler) evaluateRule(rule *AlertRule, snapshot Snapshot) {
	value, ok := ExtractMetricValue(snapshot, rule.Condition.Metric)
	if !ok {
		// Metric unavailable this tick: skip the rule, no alert
		s.metrics.RuleEvaluations.WithLabelValues("skipped").Inc()
		s.logger.WithError(errors.ErrMetricUnavailable).WithFields(logrus.Fields{
			"rule_id": rule.ID,
			"metric":  rule.Condition.Metric,
		}).Debug("Rule skipped")
		return
	}

	if !rule.Condition.Evaluate(value) {
		s.metrics.RuleEvaluations.WithLabelValues("passed").Inc()
		s.mu.Lock()
		delete(s.streaks, rule.ID)
		s.mu.Unlock()
		return
	}

	s.metrics.RuleEvaluations.WithLabelValues("triggered").Inc()

	if !s.sustainedBreach(rule) {
		return
	}

	if s.inCooldown(rule) {
		s.metrics.CooldownSuppress.Inc()
		s.logger.WithFields(logrus.Fields{
			"rule_id":  rule.ID,
			"cooldown": rule.CooldownPeriod.String(),
		}).Debug("Alert suppressed by cooldown")
		return
	}

	req := CreateRequest{
		RuleID:   rule.ID,
		Type:     rule.AlertType,
		Severity: rule.Severity,
		Source:   rule.Source,
		Title:    rule.Name,
		Message: fmt.Sprintf("%s: %s %s %g (observed %g)",
			rule.Name, rule.Condition.Metric, rule.Condition.Operator, rule.Condition.Threshold, value),
		TemplateID:   rule.TemplateID,
		MetricValues: map[string]float64{rule.Condition.Metric: value},
	}
	if _, err := s.manager.Create(req); err != nil {
		s.logger.WithError(err).WithField("rule_id", rule.ID).Error("Failed to create alert from rule")
	}
}

// sustainedBreach tracks consecutive positive evaluations per rule and
// reports whether the condition has held long enough. Rules without a
// sustained duration fire on the first breach.
func (s *Scheduler) sustainedBreach(rule *AlertRule) bool {
	if rule.Condition.SustainedFor <= 0 {
		return true
	}

	// round up so a partial tick still counts toward the window
	required := int((rule.Condition.SustainedFor + s.interval - 1) / s.interval)
	if required < 1 {
		required = 1
	}

	s.mu.Lock()
	s.streaks[rule.ID]++
	streak := s.streaks[rule.ID]
	if streak >= required {
		// re-arm after firing
		delete(s.streaks, rule.ID)
	}
	s.mu.Unlock()

	return streak >= required
}

// inCooldown checks whether this rule created an alert within its
// cooldown period. The lookup is keyed by rule id.
func (s *Scheduler) inCooldown(rule *AlertRule) bool {
	if rule.CooldownPeriod <= 0 {
		return false
	}
	last, ok := s.manager.LastCreatedFor(rule.ID)
	if !ok {
		return false
	}
	return s.now().Sub(last) < rule.CooldownPeriod
}
