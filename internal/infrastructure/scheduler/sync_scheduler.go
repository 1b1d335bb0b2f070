package scheduler

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// SyncRunner executes one full sync run for a tenant. The scheduler does
// not interpret the result beyond recording its outcome; dispatch failures
// surface as errors.
type SyncRunner interface {
	RunSync(ctx context.Context, tenantID uuid.UUID, companyName string, port int) (*syncdomain.SyncResult, error)
}

// Schedule describes a tenant's armed automatic sync
type Schedule struct {
	CompanyName string
	Port        int
	Interval    time.Duration
}

// tenantSchedule is the per-tenant timer state
type tenantSchedule struct {
	schedule Schedule
	cancel   context.CancelFunc
	wg       gosync.WaitGroup
}

// SyncScheduler runs automatic sync at a fixed cadence, one independent
// timer per tenant, and funnels manual runs through the same per-tenant
// in-flight slot. At most one run is ever in flight per tenant: a timer
// tick that fires during a run is skipped, never queued, and a manual run
// during a run is rejected.
type SyncScheduler struct {
	runner          SyncRunner
	defaultInterval time.Duration
	logger          *zap.Logger

	mu        gosync.Mutex
	closed    bool
	schedules map[uuid.UUID]*tenantSchedule
	slots     map[uuid.UUID]*atomic.Bool
	outcomes  map[uuid.UUID]*syncdomain.RunOutcome
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(runner SyncRunner, defaultInterval time.Duration, logger *zap.Logger) (*SyncScheduler, error) {
	if defaultInterval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &SyncScheduler{
		runner:          runner,
		defaultInterval: defaultInterval,
		logger:          logger.Named("scheduler"),
		schedules:       make(map[uuid.UUID]*tenantSchedule),
		slots:           make(map[uuid.UUID]*atomic.Bool),
		outcomes:        make(map[uuid.UUID]*syncdomain.RunOutcome),
	}, nil
}

// slot returns the tenant's in-flight guard, creating it on first use
func (s *SyncScheduler) slot(tenantID uuid.UUID) *atomic.Bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[tenantID]
	if !ok {
		slot = &atomic.Bool{}
		s.slots[tenantID] = slot
	}
	return slot
}

// Start arms automatic sync for the tenant. If a schedule is already
// armed this is a no-op; only one schedule per tenant ever exists. An
// interval of zero or less falls back to the configured default. The
// first run fires immediately, subsequent runs at the interval.
func (s *SyncScheduler) Start(ctx context.Context, tenantID uuid.UUID, companyName string, port int, interval time.Duration) error {
	if companyName == "" {
		return syncdomain.ErrCompanyNameEmpty
	}
	if port < 1 || port > 65535 {
		return syncdomain.ErrInvalidPort
	}
	if interval <= 0 {
		interval = s.defaultInterval
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if _, exists := s.schedules[tenantID]; exists {
		s.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sched := &tenantSchedule{
		schedule: Schedule{CompanyName: companyName, Port: port, Interval: interval},
		cancel:   cancel,
	}
	s.schedules[tenantID] = sched
	sched.wg.Add(1)
	s.mu.Unlock()

	go s.runLoop(runCtx, tenantID, sched)

	s.logger.Info("Automatic sync started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("company", companyName),
		zap.Int("port", port),
		zap.Duration("interval", interval),
	)
	return nil
}

// Stop disarms the tenant's schedule. When it returns, no further
// scheduled runs will begin for this tenant; a run already in flight is
// allowed to complete and Stop waits for it. Stopping a tenant without a
// schedule is a no-op. The last recorded outcome is retained.
func (s *SyncScheduler) Stop(tenantID uuid.UUID) error {
	s.mu.Lock()
	sched, exists := s.schedules[tenantID]
	if exists {
		delete(s.schedules, tenantID)
	}
	s.mu.Unlock()

	if !exists {
		return nil
	}

	sched.cancel()
	sched.wg.Wait()

	s.logger.Info("Automatic sync stopped", zap.String("tenant_id", tenantID.String()))
	return nil
}

// RunOnce executes a single user-triggered sync run through the tenant's
// in-flight slot. A run already in flight, scheduled or manual, rejects
// this one with ErrRunInFlight rather than queueing behind it.
func (s *SyncScheduler) RunOnce(ctx context.Context, tenantID uuid.UUID, companyName string, port int) (*syncdomain.SyncResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	s.mu.Unlock()

	slot := s.slot(tenantID)
	if !slot.CompareAndSwap(false, true) {
		return nil, ErrRunInFlight
	}
	defer slot.Store(false)

	return s.run(ctx, tenantID, companyName, port)
}

// ScheduleFor returns the tenant's armed schedule, if any
func (s *SyncScheduler) ScheduleFor(tenantID uuid.UUID) (Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, exists := s.schedules[tenantID]
	if !exists {
		return Schedule{}, false
	}
	return sched.schedule, true
}

// IsScheduled reports whether the tenant currently has an armed schedule
func (s *SyncScheduler) IsScheduled(tenantID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.schedules[tenantID]
	return exists
}

// LastOutcome returns the outcome of the tenant's most recently completed
// run, manual or scheduled. The second return is false when no run has
// completed yet.
func (s *SyncScheduler) LastOutcome(tenantID uuid.UUID) (syncdomain.RunOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, ok := s.outcomes[tenantID]
	if !ok {
		return syncdomain.RunOutcome{}, false
	}
	return *outcome, true
}

// Shutdown disarms every schedule. The scheduler accepts no new work
// afterwards.
func (s *SyncScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	remaining := make([]*tenantSchedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		remaining = append(remaining, sched)
	}
	s.schedules = make(map[uuid.UUID]*tenantSchedule)
	s.mu.Unlock()

	for _, sched := range remaining {
		sched.cancel()
	}

	done := make(chan struct{})
	go func() {
		for _, sched := range remaining {
			sched.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler shut down", zap.Int("schedules", len(remaining)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop fires an immediate run, then ticks at the schedule's interval
// until the schedule is disarmed
func (s *SyncScheduler) runLoop(ctx context.Context, tenantID uuid.UUID, sched *tenantSchedule) {
	defer sched.wg.Done()

	s.tryRun(ctx, tenantID, sched)

	ticker := time.NewTicker(sched.schedule.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryRun(ctx, tenantID, sched)
		}
	}
}

// tryRun launches one scheduled run unless one is already in flight, in
// which case the tick is skipped. Runs execute off the loop goroutine so
// a slow agent never causes ticks to pile up behind it.
func (s *SyncScheduler) tryRun(ctx context.Context, tenantID uuid.UUID, sched *tenantSchedule) {
	if ctx.Err() != nil {
		return
	}

	slot := s.slot(tenantID)
	if !slot.CompareAndSwap(false, true) {
		s.logger.Debug("Skipping sync tick, run already in flight",
			zap.String("tenant_id", tenantID.String()),
		)
		return
	}

	sched.wg.Add(1)
	go func() {
		defer sched.wg.Done()
		defer slot.Store(false)
		// Disarming cancels the loop only; a run that already started
		// completes against the agent's own request timeout.
		s.run(context.WithoutCancel(ctx), tenantID, sched.schedule.CompanyName, sched.schedule.Port)
	}()
}

// run executes a single sync run and records its outcome. The caller must
// hold the tenant's in-flight slot; holding it is what entitles this run
// to overwrite the last-outcome memory.
func (s *SyncScheduler) run(ctx context.Context, tenantID uuid.UUID, companyName string, port int) (*syncdomain.SyncResult, error) {
	result, err := s.runner.RunSync(ctx, tenantID, companyName, port)

	outcome := syncdomain.RunOutcome{Time: time.Now()}
	switch {
	case err != nil:
		outcome.Success = false
		outcome.Message = err.Error()
		s.logger.Warn("Sync run failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("company", companyName),
			zap.Error(err),
		)
	default:
		outcome.Success = result.Success
		outcome.Message = result.Message
		s.logger.Info("Sync run completed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("company", companyName),
			zap.Bool("success", result.Success),
		)
	}

	s.mu.Lock()
	s.outcomes[tenantID] = &outcome
	s.mu.Unlock()

	return result, err
}
