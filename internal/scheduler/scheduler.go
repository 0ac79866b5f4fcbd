// Package scheduler drives the periodic execution of registered bots.
// A single loop evaluates which jobs are due each tick and launches
// them in goroutines; the loop itself never waits on a job.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Result is the per-run activity summary a job reports back.
type Result struct {
	Scanned int
	Matched int
	Alerts  int
}

// JobFunc performs one scan cycle for a bot.
type JobFunc func(ctx context.Context) (Result, error)

// Job is a registered bot with its cadence.
type Job struct {
	Name     string
	Interval time.Duration
	// AllowClosedDays lets the job run on weekends and market holidays.
	AllowClosedDays bool
	Run             JobFunc
}

// StatsSink receives telemetry for every completed run. Sink failures
// are logged and never block scheduling.
type StatsSink interface {
	RecordRun(bot string, scanned, matched, alerts int, runtime time.Duration) error
	RecordError(bot, reason string) error
}

// Calendar decides whether a given instant falls on a trading day.
type Calendar interface {
	IsTradingDay(t time.Time) bool
}

// JobStatus is a point-in-time view of one job, for status surfaces.
type JobStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Running   bool          `json:"running"`
	LastStart time.Time     `json:"last_start,omitempty"`
}

type jobState struct {
	running   bool
	started   bool
	lastStart time.Time
}

// Config wires a Scheduler.
type Config struct {
	Tick     time.Duration
	Timeout  time.Duration
	Stats    StatsSink
	Calendar Calendar
	Log      zerolog.Logger
}

// Scheduler owns the tick loop and the per-job run state.
type Scheduler struct {
	tick     time.Duration
	timeout  time.Duration
	stats    StatsSink
	calendar Calendar
	log      zerolog.Logger

	mu    sync.Mutex
	jobs  []*Job
	state map[string]*jobState

	wg  sync.WaitGroup
	now func() time.Time
}

// New creates an empty scheduler. Register jobs before calling Run.
func New(cfg Config) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = 20 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	return &Scheduler{
		tick:     cfg.Tick,
		timeout:  cfg.Timeout,
		stats:    cfg.Stats,
		calendar: cfg.Calendar,
		log:      cfg.Log.With().Str("component", "scheduler").Logger(),
		state:    make(map[string]*jobState),
		now:      time.Now,
	}
}

// Register adds a job. Registering twice under the same name replaces
// the earlier definition but keeps its run state.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.jobs {
		if existing.Name == job.Name {
			s.jobs[i] = job
			return
		}
	}
	s.jobs = append(s.jobs, job)
	s.state[job.Name] = &jobState{}
}

// Run executes the tick loop until ctx is cancelled. When cycles is
// positive the loop stops after that many evaluations, which keeps
// tests deterministic. Run returns without waiting for in-flight jobs;
// call Wait to drain them.
func (s *Scheduler) Run(ctx context.Context, cycles int) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info().
		Dur("tick", s.tick).
		Dur("timeout", s.timeout).
		Int("jobs", len(s.jobs)).
		Msg("scheduler started")

	count := 0
	for {
		s.launchDue(s.now())
		count++
		if cycles > 0 && count >= cycles {
			return
		}
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until all in-flight job runs have finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Snapshot returns the current state of every registered job.
func (s *Scheduler) Snapshot() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		st := s.state[job.Name]
		js := JobStatus{Name: job.Name, Interval: job.Interval, Running: st.running}
		if st.started {
			js.LastStart = st.lastStart
		}
		out = append(out, js)
	}
	return out
}

// Running reports whether the named job has a run in flight.
func (s *Scheduler) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state[name]
	return ok && st.running
}

// launchDue starts a goroutine for every job that is due at now. A job
// is due when it has no run in flight and its interval has elapsed
// since the last launch; an interval of zero means every tick.
func (s *Scheduler) launchDue(now time.Time) {
	tradingDay := s.calendar == nil || s.calendar.IsTradingDay(now)

	s.mu.Lock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if !tradingDay && !job.AllowClosedDays {
			continue
		}

		s.mu.Lock()
		st := s.state[job.Name]
		due := !st.running && (!st.started || now.Sub(st.lastStart) >= job.Interval)
		if due {
			st.running = true
			st.started = true
			st.lastStart = now
		}
		s.mu.Unlock()

		if !due {
			continue
		}
		s.wg.Add(1)
		go s.runGuarded(job)
	}
}
