package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetricValue(t *testing.T) {
	snapshot := Snapshot{
		"cost": map[string]interface{}{
			"dailyCost":   2.00,
			"monthlyCost": 48,
		},
		"system": map[string]interface{}{
			"cpu": map[string]interface{}{
				"usagePercent": 91.5,
			},
		},
		"label": "not-a-number",
	}

	tests := []struct {
		name     string
		path     string
		expected float64
		found    bool
	}{
		{"top level nested", "cost.dailyCost", 2.00, true},
		{"integer leaf", "cost.monthlyCost", 48, true},
		{"deeply nested", "system.cpu.usagePercent", 91.5, true},
		{"missing leaf", "cost.weeklyCost", 0, false},
		{"missing root", "billing.total", 0, false},
		{"non-numeric leaf", "label", 0, false},
		{"path through leaf", "cost.dailyCost.cents", 0, false},
		{"empty path", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, found := ExtractMetricValue(snapshot, tt.path)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}

func TestExtractMetricValue_NilSnapshot(t *testing.T) {
	_, found := ExtractMetricValue(nil, "cost.dailyCost")
	assert.False(t, found)
}

func TestCondition_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		operator  Operator
		threshold float64
		value     float64
		expected  bool
	}{
		{"gt true", OpGreaterThan, 1.67, 2.00, true},
		{"gt false on equal", OpGreaterThan, 2.00, 2.00, false},
		{"lt true", OpLessThan, 0.75, 0.5, true},
		{"lt false", OpLessThan, 0.75, 0.9, false},
		{"gte true on equal", OpGreaterOrEqual, 90, 90, true},
		{"gte false", OpGreaterOrEqual, 90, 89.9, false},
		{"lte true", OpLessOrEqual, 10, 10, true},
		{"lte false", OpLessOrEqual, 10, 10.1, false},
		{"eq true", OpEqual, 5, 5, true},
		{"eq false", OpEqual, 5, 5.1, false},
		{"ne true", OpNotEqual, 5, 5.1, true},
		{"ne false", OpNotEqual, 5, 5, false},
		{"unknown operator", Operator("like"), 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := Condition{Metric: "m", Operator: tt.operator, Threshold: tt.threshold}
			assert.Equal(t, tt.expected, cond.Evaluate(tt.value))
		})
	}
}

func TestMergeSnapshots(t *testing.T) {
	a := Snapshot{"cost": map[string]interface{}{"dailyCost": 2.0}}
	b := Snapshot{"system": map[string]interface{}{"cpu": map[string]interface{}{"usagePercent": 50.0}}}

	merged := MergeSnapshots(a, b)

	value, found := ExtractMetricValue(merged, "cost.dailyCost")
	assert.True(t, found)
	assert.Equal(t, 2.0, value)

	value, found = ExtractMetricValue(merged, "system.cpu.usagePercent")
	assert.True(t, found)
	assert.Equal(t, 50.0, value)
}
