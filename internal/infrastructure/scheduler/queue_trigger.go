// Package scheduler drives the scheduled catalog sync from a ticker.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appintegration "github.com/erp/catalogsync/internal/application/integration"
	"github.com/erp/catalogsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// SettingsProvider returns the sync settings in effect
type SettingsProvider interface {
	Current(ctx context.Context) (integration.SyncSettings, error)
}

// QueueRunner performs one scheduled sync step
type QueueRunner interface {
	DrainOrRefill(ctx context.Context, settings integration.SyncSettings) (*appintegration.QueueRunResult, error)
}

// ---------------------------------------------------------------------------
// QueueTriggerConfig
// ---------------------------------------------------------------------------

// QueueTriggerConfig holds configuration for the queue trigger
type QueueTriggerConfig struct {
	// CheckInterval is how often the trigger wakes up to compare the elapsed
	// time with the configured schedule interval
	CheckInterval time.Duration

	// RunTimeout bounds one DrainOrRefill call
	RunTimeout time.Duration
}

// DefaultQueueTriggerConfig returns default configuration
func DefaultQueueTriggerConfig() QueueTriggerConfig {
	return QueueTriggerConfig{
		CheckInterval: 30 * time.Second,
		RunTimeout:    10 * time.Minute,
	}
}

// Validate checks the configuration
func (c QueueTriggerConfig) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ---------------------------------------------------------------------------
// QueueTrigger
// ---------------------------------------------------------------------------

// QueueTrigger calls DrainOrRefill once per schedule interval. The interval
// is read from the settings on every check so that edits apply without a
// restart.
type QueueTrigger struct {
	config   QueueTriggerConfig
	settings SettingsProvider
	runner   QueueRunner
	logger   *zap.Logger
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunMu sync.Mutex
	lastRun   time.Time
}

// NewQueueTrigger creates a new queue trigger
func NewQueueTrigger(
	config QueueTriggerConfig,
	settings SettingsProvider,
	runner QueueRunner,
	logger *zap.Logger,
) (*QueueTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &QueueTrigger{
		config:   config,
		settings: settings,
		runner:   runner,
		logger:   logger.Named("queue_trigger"),
		now:      time.Now,
	}, nil
}

// Start starts the trigger loop
func (t *QueueTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Queue trigger started", zap.Duration("check_interval", t.config.CheckInterval))
	return nil
}

// Stop stops the trigger and waits for a running step to finish
func (t *QueueTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Queue trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (t *QueueTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

func (t *QueueTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	t.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.check(ctx)
		}
	}
}

// check runs one step when the schedule interval has elapsed since the last
// one. It reports whether a step was attempted.
func (t *QueueTrigger) check(ctx context.Context) bool {
	settings, err := t.settings.Current(ctx)
	if err != nil {
		t.logger.Error("Failed to load sync settings", zap.Error(err))
		return false
	}

	now := t.now()
	t.lastRunMu.Lock()
	due := t.lastRun.IsZero() || now.Sub(t.lastRun) >= settings.ScheduleInterval
	if due {
		t.lastRun = now
	}
	t.lastRunMu.Unlock()
	if !due {
		return false
	}

	runCtx, cancel := context.WithTimeout(ctx, t.config.RunTimeout)
	defer cancel()

	result, err := t.runner.DrainOrRefill(runCtx, settings)
	if err != nil {
		t.logger.Error("Scheduled sync step failed", zap.Error(err))
		return true
	}

	t.logger.Info("Scheduled sync step finished",
		zap.String("phase", string(result.Phase)),
		zap.Int("queued", result.Queued),
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
	)
	return true
}
