package alerting

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	pkgerrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// EscalationMonitor periodically re-examines unresolved alerts and
// advances them through their rule's escalation steps as they age.
type EscalationMonitor struct {
	manager   *Manager
	scheduler *Scheduler
	logger    *logrus.Logger
	interval  time.Duration

	now func() time.Time
}

// NewEscalationMonitor creates an escalation monitor sharing the rule
// store with the scheduler
func NewEscalationMonitor(manager *Manager, scheduler *Scheduler, logger *logrus.Logger, interval time.Duration) *EscalationMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &EscalationMonitor{
		manager:   manager,
		scheduler: scheduler,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}
}

// run ticks until the context is cancelled
func (em *EscalationMonitor) run(ctx context.Context) {
	ticker := time.NewTicker(em.interval)
	defer ticker.Stop()

	em.logger.WithField("interval", em.interval.String()).Info("Escalation monitor started")
	for {
		select {
		case <-ctx.Done():
			em.logger.Info("Escalation monitor stopped")
			return
		case <-ticker.C:
			em.CheckOnce(em.now())
		}
	}
}

// CheckOnce performs a single escalation pass at the given time. Errors
// are logged per alert so one failed escalation never halts the pass.
func (em *EscalationMonitor) CheckOnce(now time.Time) {
	for _, alert := range em.manager.Escalatable() {
		if alert.RuleID == "" {
			// manually created alerts carry no escalation policy
			continue
		}
		rule, err := em.scheduler.Rule(alert.RuleID)
		if err != nil {
			em.logger.WithFields(logrus.Fields{
				"alert_id": alert.ID,
				"rule_id":  alert.RuleID,
			}).Warn("Originating rule not found, alert cannot escalate")
			continue
		}
		em.checkAlert(alert, rule, now)
	}
}

func (em *EscalationMonitor) checkAlert(alert Alert, rule AlertRule, now time.Time) {
	if alert.EscalationLevel >= len(rule.EscalationSteps) {
		// escalation policy exhausted; manual intervention required
		em.logger.WithFields(logrus.Fields{
			"alert_id":         alert.ID,
			"escalation_level": alert.EscalationLevel,
		}).Debug("No more escalation levels")
		return
	}

	step := rule.EscalationSteps[alert.EscalationLevel]
	if now.Sub(alert.CreatedAt) <= step.TriggerAfter {
		return
	}

	err := em.manager.Escalate(alert.ID, &rule)
	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrNoMoreEscalationLevels):
		// informational: another pass escalated the alert first
		em.logger.WithField("alert_id", alert.ID).Debug("No more escalation levels")
	default:
		em.logger.WithError(err).WithField("alert_id", alert.ID).Error("Escalation failed")
	}
}
