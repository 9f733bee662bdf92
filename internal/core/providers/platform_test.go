package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

func TestPlatformProvider_SetAndSnapshot(t *testing.T) {
	provider := NewPlatformProvider("platform")
	provider.Set("cost.dailyCost", 2.00)
	provider.SetAll(map[string]float64{
		"cost.monthlyCost":           48,
		"integrations.overallHealth": 0.92,
	})

	snapshot, err := provider.GetSnapshot(context.Background())
	require.NoError(t, err)

	value, found := alerting.ExtractMetricValue(snapshot, "cost.dailyCost")
	require.True(t, found)
	assert.Equal(t, 2.00, value)

	value, found = alerting.ExtractMetricValue(snapshot, "cost.monthlyCost")
	require.True(t, found)
	assert.Equal(t, 48.0, value)

	value, found = alerting.ExtractMetricValue(snapshot, "integrations.overallHealth")
	require.True(t, found)
	assert.Equal(t, 0.92, value)
}

func TestPlatformProvider_OverwriteValue(t *testing.T) {
	provider := NewPlatformProvider("")
	assert.Equal(t, "platform", provider.Name())

	provider.Set("cost.dailyCost", 1.0)
	provider.Set("cost.dailyCost", 2.5)

	snapshot, err := provider.GetSnapshot(context.Background())
	require.NoError(t, err)

	value, found := alerting.ExtractMetricValue(snapshot, "cost.dailyCost")
	require.True(t, found)
	assert.Equal(t, 2.5, value)
}

func TestPlatformProvider_EmptySnapshot(t *testing.T) {
	provider := NewPlatformProvider("platform")

	snapshot, err := provider.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}
