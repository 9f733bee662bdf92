package alerting

import (
	"fmt"
	"time"
)

// Severity represents the urgency level of an alert or rule
type Severity string

const (
	SeverityEmergency Severity = "emergency"
	SeverityCritical  Severity = "critical"
	SeverityError     Severity = "error"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "info"
)

// Weight returns the sort weight of a severity, highest first
func (s Severity) Weight() int {
	switch s {
	case SeverityEmergency:
		return 5
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the severity is a known level
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// Status represents the lifecycle state of an alert
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusEscalated    Status = "escalated"
	StatusSuppressed   Status = "suppressed"
)

// Channel represents a notification delivery medium
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelInApp     Channel = "in_app"
	ChannelSMS       Channel = "sms"
	ChannelDashboard Channel = "dashboard"
)

// ChannelsForSeverity returns the initial channel set for a new alert.
// The switch is exhaustive over Severity so a new level cannot be added
// without choosing its channels.
func ChannelsForSeverity(s Severity) []Channel {
	switch s {
	case SeverityEmergency:
		return []Channel{ChannelEmail, ChannelInApp, ChannelSMS, ChannelDashboard}
	case SeverityCritical:
		return []Channel{ChannelEmail, ChannelInApp, ChannelDashboard}
	case SeverityError:
		return []Channel{ChannelInApp, ChannelDashboard}
	case SeverityWarning:
		return []Channel{ChannelDashboard}
	case SeverityInfo:
		return []Channel{ChannelDashboard}
	default:
		return []Channel{ChannelDashboard}
	}
}

// Operator represents a comparison applied to a metric value
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpLessThan       Operator = "lt"
	OpGreaterOrEqual Operator = "gte"
	OpLessOrEqual    Operator = "lte"
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
)

// Condition defines a threshold condition over a dotted metric path
type Condition struct {
	Metric    string        `json:"metric"`
	Operator  Operator      `json:"operator"`
	Threshold float64       `json:"threshold"`
	// SustainedFor, when positive, requires the condition to hold across
	// consecutive evaluation ticks covering at least this duration
	SustainedFor time.Duration `json:"sustained_for,omitempty"`
}

// EscalationStep defines one step of a rule's escalation policy
type EscalationStep struct {
	Level              int           `json:"level"`
	TriggerAfter       time.Duration `json:"trigger_after"`
	AdditionalChannels []Channel     `json:"additional_channels"`
	Recipients         []string      `json:"recipients"`
}

// AlertRule defines a rule for generating alerts
type AlertRule struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	AlertType       string           `json:"alert_type"`
	Source          string           `json:"source"`
	Condition       Condition        `json:"condition"`
	Severity        Severity         `json:"severity"`
	CooldownPeriod  time.Duration    `json:"cooldown_period"`
	EscalationSteps []EscalationStep `json:"escalation_steps"`
	TemplateID      string           `json:"template_id"`
	Enabled         bool             `json:"enabled"`
}

// AlertDetails carries operator-facing context attached to an alert
type AlertDetails struct {
	AffectedSystems         []string `json:"affected_systems,omitempty"`
	PotentialImpact         string   `json:"potential_impact,omitempty"`
	RecommendedActions      []string `json:"recommended_actions,omitempty"`
	RelatedAlerts           []string `json:"related_alerts,omitempty"`
	AutoResolutionAttempted bool     `json:"auto_resolution_attempted"`
}

// Alert represents a raised alert
type Alert struct {
	ID              string       `json:"id"`
	RuleID          string       `json:"rule_id,omitempty"`
	Type            string       `json:"type"`
	Severity        Severity     `json:"severity"`
	Source          string       `json:"source"`
	Title           string       `json:"title"`
	Message         string       `json:"message"`
	Details         AlertDetails `json:"details"`
	Status          Status       `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
	AcknowledgedBy  string       `json:"acknowledged_by,omitempty"`
	EscalationLevel int          `json:"escalation_level"`
	Channels        []Channel    `json:"channels"`
	TemplateUsed    string       `json:"template_used,omitempty"`
}

// AlertTemplate defines a parameterized subject/body pair for a channel
type AlertTemplate struct {
	ID                   string   `json:"id"`
	AlertType            string   `json:"alert_type"`
	Channel              Channel  `json:"channel"`
	ExternallyIntegrated bool     `json:"externally_integrated"`
	Subject              string   `json:"subject"`
	Body                 string   `json:"body"`
	Variables            []string `json:"variables,omitempty"`
}

// Stats summarizes the alert collection
type Stats struct {
	Total      int                `json:"total"`
	ByStatus   map[Status]int     `json:"by_status"`
	BySeverity map[Severity]int   `json:"by_severity"`
	BySource   map[string]int     `json:"by_source"`
	// Critical counts alerts at critical or emergency severity
	Critical int `json:"critical"`
}

// Validate checks rule invariants before the rule is accepted
func (r *AlertRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.AlertType == "" {
		return fmt.Errorf("rule alert_type is required")
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("unknown severity: %s", r.Severity)
	}
	if r.Condition.Metric == "" {
		return fmt.Errorf("condition metric path is required")
	}
	switch r.Condition.Operator {
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpNotEqual:
	default:
		return fmt.Errorf("unknown operator: %s", r.Condition.Operator)
	}
	// Escalation levels must be contiguous starting at 1
	for i, step := range r.EscalationSteps {
		if step.Level != i+1 {
			return fmt.Errorf("escalation step levels must be contiguous starting at 1, got %d at position %d", step.Level, i)
		}
	}
	return nil
}
