package alerting

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	log, _ := test.NewNullLogger()
	provider := &staticProvider{name: "test", snapshot: Snapshot{
		"cost": map[string]interface{}{"dailyCost": 2.00},
	}}
	return NewEngine(Options{
		EvaluationInterval: 50 * time.Millisecond,
		EscalationInterval: 50 * time.Millisecond,
		SnapshotTimeout:    time.Second,
		NotifyTimeout:      time.Second,
	}, []SnapshotProvider{provider}, NewTemplateStore(nil), nil, nil, log)
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	assert.False(t, engine.Running())

	engine.StartMonitoring()
	assert.True(t, engine.Running())

	// starting twice is a no-op
	engine.StartMonitoring()
	assert.True(t, engine.Running())

	engine.StopMonitoring()
	assert.False(t, engine.Running())

	// stopping when not started is a no-op
	engine.StopMonitoring()
	assert.False(t, engine.Running())
}

func TestEngine_Restart(t *testing.T) {
	engine := newTestEngine(t)

	engine.StartMonitoring()
	engine.StopMonitoring()
	engine.StartMonitoring()
	assert.True(t, engine.Running())
	engine.StopMonitoring()
}

func TestEngine_EvaluatesRulesWhileRunning(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Scheduler.AddRule(budgetRule())
	require.NoError(t, err)

	engine.StartMonitoring()
	defer engine.StopMonitoring()

	require.Eventually(t, func() bool {
		return len(engine.Manager.GetActive()) == 1
	}, 2*time.Second, 20*time.Millisecond, "scheduler tick should raise the alert")
}
