package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mural/internal/config"
	"mural/internal/logging"
	"mural/internal/notifications"
	"mural/internal/runstore"
	"mural/internal/staging"
)

// RunRecorder persists per-cycle run records. Satisfied by
// *runstore.Store; tests substitute a fake.
type RunRecorder interface {
	RecordStart(ctx context.Context, cycleID, trigger string) error
	RecordFinish(ctx context.Context, cycleID string, record runstore.FinishRecord) error
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Running       bool
	CycleActive   bool
	Stitch        bool
	PollInterval  time.Duration
	NextRunAt     time.Time
	LastCycleID   string
	LastState     string
	LastOutcome   string
	LastCommitted int
	LastError     string
	LastFinished  time.Time
}

// Manager schedules acquisition cycles on a fixed interval and serves
// manual triggers. Cycles are single-flight: one goroutine runs them
// all, so a manual trigger during a running cycle waits for it.
type Manager struct {
	cfg          *config.Config
	cycle        *Cycle
	recorder     RunRecorder
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration
	stagingAge   time.Duration

	// Buffered with capacity one so concurrent triggers coalesce.
	runNow chan struct{}

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	stitch       bool
	cycleActive  bool
	nextRunAt    time.Time
	last         *Result
	lastFinished time.Time
}

// NewManager constructs a scheduler around cycle.
func NewManager(cfg *config.Config, cycle *Cycle, recorder RunRecorder, notifier notifications.Service, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		cycle:        cycle,
		recorder:     recorder,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "scheduler"),
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
		stagingAge:   time.Duration(cfg.Workflow.StagingMaxAgeHours) * time.Hour,
		runNow:       make(chan struct{}, 1),
		stitch:       cfg.Apply.Stitch,
	}
}

// Start begins background scheduling. The first cycle runs immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.loop(runCtx)
	return nil
}

// Stop terminates scheduling and waits for an in-flight cycle to end.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// RunNow requests an immediate cycle. Returns false when a request is
// already pending; requests never queue beyond one.
func (m *Manager) RunNow() bool {
	select {
	case m.runNow <- struct{}{}:
		return true
	default:
		return false
	}
}

// ToggleStitch flips stitch mode for subsequent cycles and returns the
// new value.
func (m *Manager) ToggleStitch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stitch = !m.stitch
	return m.stitch
}

// Status reports the scheduler's current snapshot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		Running:      m.running,
		CycleActive:  m.cycleActive,
		Stitch:       m.stitch,
		PollInterval: m.pollInterval,
		NextRunAt:    m.nextRunAt,
		LastFinished: m.lastFinished,
	}
	if m.last != nil {
		status.LastCycleID = m.last.CycleID
		status.LastState = string(m.last.State)
		status.LastOutcome = m.last.Outcome
		status.LastCommitted = m.last.Committed
		if m.last.Err != nil {
			status.LastError = m.last.Err.Error()
		}
	}
	return status
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	m.executeCycle(ctx, runstore.TriggerInterval)

	for {
		timer := time.NewTimer(m.pollInterval)
		m.mu.Lock()
		m.nextRunAt = time.Now().Add(m.pollInterval)
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.executeCycle(ctx, runstore.TriggerInterval)
		case <-m.runNow:
			timer.Stop()
			m.executeCycle(ctx, runstore.TriggerManual)
		}
	}
}

func (m *Manager) executeCycle(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	staging.CleanStale(m.cfg.Paths.StagingDir, m.stagingAge, m.logger)

	m.mu.Lock()
	stitch := m.stitch
	m.cycleActive = true
	m.mu.Unlock()

	// An in-flight cycle always runs to natural completion or failure.
	// Stop only takes effect at the sleep boundary, so the cycle body
	// must not observe the scheduler's cancellation.
	cycleCtx := context.WithoutCancel(ctx)
	result := m.runRecorded(cycleCtx, RunContext{CycleID: uuid.New().String(), Stitch: stitch, Trigger: trigger})

	m.mu.Lock()
	m.cycleActive = false
	m.last = &result
	m.lastFinished = time.Now()
	m.mu.Unlock()

	m.notify(cycleCtx, result)
}

func (m *Manager) runRecorded(ctx context.Context, runCtx RunContext) Result {
	if err := m.recorder.RecordStart(ctx, runCtx.CycleID, runCtx.Trigger); err != nil {
		m.logger.Warn("run record not started", logging.Error(err))
	}

	result := m.cycle.Run(ctx, runCtx)

	record := runstore.FinishRecord{
		Status:     runstore.StatusCompleted,
		Outcome:    result.Outcome,
		Candidates: result.Candidates,
		Accepted:   result.Accepted,
		Committed:  result.Committed,
		Updated:    result.Updated,
		Stitched:   result.Stitched,
	}
	if result.State == StateFailed {
		record.Status = runstore.StatusFailed
		if result.Err != nil {
			record.Error = result.Err.Error()
		}
	}
	if err := m.recorder.RecordFinish(ctx, result.CycleID, record); err != nil {
		m.logger.Warn("run record not finished", logging.Error(err))
	}
	return result
}

func (m *Manager) notify(ctx context.Context, result Result) {
	switch {
	case result.State == StateFailed:
		if err := m.notifier.NotifyCycleFailed(ctx, string(result.Stage), result.Err); err != nil {
			m.logger.Debug("failure notification not delivered", logging.Error(err))
		}
	case result.Updated:
		if err := m.notifier.NotifyCycleCompleted(ctx, result.Committed, result.Stitched); err != nil {
			m.logger.Debug("completion notification not delivered", logging.Error(err))
		}
		if result.Applied != "" {
			if err := m.notifier.NotifyWallpaperApplied(ctx, result.Applied); err != nil {
				m.logger.Debug("apply notification not delivered", logging.Error(err))
			}
		}
	}
}
