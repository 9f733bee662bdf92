package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// Catalog is the YAML document declaring alert rules and notification
// templates. Durations are strings ("30m", "1h") parsed on load.
type Catalog struct {
	Rules     []RuleSpec     `yaml:"rules"`
	Templates []TemplateSpec `yaml:"templates"`
}

type RuleSpec struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	AlertType string `yaml:"alert_type"`
	Source    string `yaml:"source"`
	Condition struct {
		Metric       string  `yaml:"metric"`
		Operator     string  `yaml:"operator"`
		Threshold    float64 `yaml:"threshold"`
		SustainedFor string  `yaml:"sustained_for"`
	} `yaml:"condition"`
	Severity        string               `yaml:"severity"`
	Cooldown        string               `yaml:"cooldown"`
	TemplateID      string               `yaml:"template_id"`
	Enabled         bool                 `yaml:"enabled"`
	EscalationSteps []EscalationStepSpec `yaml:"escalation_steps"`
}

type EscalationStepSpec struct {
	Level              int      `yaml:"level"`
	TriggerAfter       string   `yaml:"trigger_after"`
	AdditionalChannels []string `yaml:"additional_channels"`
	Recipients         []string `yaml:"recipients"`
}

type TemplateSpec struct {
	ID                   string   `yaml:"id"`
	AlertType            string   `yaml:"alert_type"`
	Channel              string   `yaml:"channel"`
	ExternallyIntegrated bool     `yaml:"externally_integrated"`
	Subject              string   `yaml:"subject"`
	Body                 string   `yaml:"body"`
	Variables            []string `yaml:"variables"`
}

// LoadCatalog parses the rule and template catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &catalog, nil
}

// AlertRules converts the declared rules into engine rules
func (c *Catalog) AlertRules() ([]alerting.AlertRule, error) {
	rules := make([]alerting.AlertRule, 0, len(c.Rules))
	for _, spec := range c.Rules {
		rule, err := spec.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// AlertTemplates converts the declared templates
func (c *Catalog) AlertTemplates() []alerting.AlertTemplate {
	templates := make([]alerting.AlertTemplate, 0, len(c.Templates))
	for _, spec := range c.Templates {
		templates = append(templates, alerting.AlertTemplate{
			ID:                   spec.ID,
			AlertType:            spec.AlertType,
			Channel:              alerting.Channel(spec.Channel),
			ExternallyIntegrated: spec.ExternallyIntegrated,
			Subject:              spec.Subject,
			Body:                 spec.Body,
			Variables:            spec.Variables,
		})
	}
	return templates
}

func (spec RuleSpec) toRule() (alerting.AlertRule, error) {
	cooldown, err := parseDuration(spec.Cooldown)
	if err != nil {
		return alerting.AlertRule{}, fmt.Errorf("cooldown: %w", err)
	}
	sustained, err := parseDuration(spec.Condition.SustainedFor)
	if err != nil {
		return alerting.AlertRule{}, fmt.Errorf("sustained_for: %w", err)
	}

	steps := make([]alerting.EscalationStep, 0, len(spec.EscalationSteps))
	for _, stepSpec := range spec.EscalationSteps {
		trigger, err := parseDuration(stepSpec.TriggerAfter)
		if err != nil {
			return alerting.AlertRule{}, fmt.Errorf("escalation step %d trigger_after: %w", stepSpec.Level, err)
		}
		channels := make([]alerting.Channel, 0, len(stepSpec.AdditionalChannels))
		for _, ch := range stepSpec.AdditionalChannels {
			channels = append(channels, alerting.Channel(ch))
		}
		steps = append(steps, alerting.EscalationStep{
			Level:              stepSpec.Level,
			TriggerAfter:       trigger,
			AdditionalChannels: channels,
			Recipients:         stepSpec.Recipients,
		})
	}

	return alerting.AlertRule{
		ID:        spec.ID,
		Name:      spec.Name,
		AlertType: spec.AlertType,
		Source:    spec.Source,
		Condition: alerting.Condition{
			Metric:       spec.Condition.Metric,
			Operator:     alerting.Operator(spec.Condition.Operator),
			Threshold:    spec.Condition.Threshold,
			SustainedFor: sustained,
		},
		Severity:        alerting.Severity(spec.Severity),
		CooldownPeriod:  cooldown,
		EscalationSteps: steps,
		TemplateID:      spec.TemplateID,
		Enabled:         spec.Enabled,
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
