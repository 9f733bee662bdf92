package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
)

// Options configures the engine's periodic tasks
type Options struct {
	EvaluationInterval time.Duration
	EscalationInterval time.Duration
	SnapshotTimeout    time.Duration
	NotifyTimeout      time.Duration
	// Retention controls how long resolved alerts are kept before the
	// hourly purge drops them
	Retention time.Duration
}

// Engine owns the alerting subsystem: rule scheduler, lifecycle manager,
// escalation monitor and notification dispatcher. State is in-memory for
// the lifetime of the process.
type Engine struct {
	Manager    *Manager
	Scheduler  *Scheduler
	Monitor    *EscalationMonitor
	Dispatcher *Dispatcher
	Metrics    *metrics.Collector

	logger    *logrus.Logger
	retention time.Duration
	cron      *cron.Cron

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine wires the alerting components together
func NewEngine(opts Options, providers []SnapshotProvider, templates *TemplateStore, sender ExternalSender, broadcaster Broadcaster, logger *logrus.Logger) *Engine {
	collector := metrics.NewCollector()
	dispatcher := NewDispatcher(templates, sender, broadcaster, collector, logger, opts.NotifyTimeout)
	manager := NewManager(dispatcher, collector, logger)
	scheduler := NewScheduler(manager, providers, collector, logger, opts.EvaluationInterval, opts.SnapshotTimeout)
	monitor := NewEscalationMonitor(manager, scheduler, logger, opts.EscalationInterval)

	retention := opts.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	return &Engine{
		Manager:    manager,
		Scheduler:  scheduler,
		Monitor:    monitor,
		Dispatcher: dispatcher,
		Metrics:    collector,
		logger:     logger,
		retention:  retention,
	}
}

// StartMonitoring starts the rule evaluation and escalation loops plus
// the retention purge schedule. Starting twice is a no-op.
func (e *Engine) StartMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.logger.Info("Monitoring already started")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.Scheduler.run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.Monitor.run(ctx)
	}()

	e.cron = cron.New()
	e.cron.AddFunc("@hourly", func() {
		e.Manager.PurgeResolved(e.retention)
	})
	e.cron.Start()

	e.logger.Info("Alert monitoring started")
}

// StopMonitoring cancels both periodic tasks and waits for in-flight
// ticks to complete. Stopping when not started is a no-op.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.cancel()
	e.wg.Wait()
	cronCtx := e.cron.Stop()
	<-cronCtx.Done()

	e.running = false
	e.logger.Info("Alert monitoring stopped")
}

// Running reports whether the periodic tasks are active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}
