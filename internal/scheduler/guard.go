package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// runGuarded executes one job run with a timeout, panic containment,
// and guaranteed stats recording. A failed run always produces a
// zero-activity run record alongside its error entry, so a bot that
// only ever fails still shows up with a runtime history.
func (s *Scheduler) runGuarded(job *Job) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.state[job.Name].running = false
		s.mu.Unlock()
	}()

	runID := uuid.NewString()[:8]
	log := s.log.With().Str("bot", job.Name).Str("run_id", runID).Logger()

	start := s.now()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := invoke(ctx, job.Run)
	runtime := s.now().Sub(start)

	switch {
	case err == nil:
		s.recordRun(log, job.Name, res, runtime)
		log.Debug().
			Int("scanned", res.Scanned).
			Int("matched", res.Matched).
			Int("alerts", res.Alerts).
			Dur("runtime", runtime).
			Msg("run complete")
	case errors.Is(err, context.DeadlineExceeded):
		reason := fmt.Sprintf("timed out after %s", s.timeout)
		s.recordError(log, job.Name, reason)
		s.recordRun(log, job.Name, Result{}, runtime)
		log.Error().Dur("runtime", runtime).Msg("run timed out")
	default:
		s.recordError(log, job.Name, err.Error())
		s.recordRun(log, job.Name, Result{}, runtime)
		log.Error().Err(err).Dur("runtime", runtime).Msg("run failed")
	}
}

// invoke runs fn in its own goroutine so a body that ignores its
// context cannot hold the guard past the deadline. A panic inside fn
// surfaces as an error.
func invoke(ctx context.Context, fn JobFunc) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := fn(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Scheduler) recordRun(log zerolog.Logger, bot string, res Result, runtime time.Duration) {
	if s.stats == nil {
		return
	}
	if err := s.stats.RecordRun(bot, res.Scanned, res.Matched, res.Alerts, runtime); err != nil {
		log.Warn().Err(err).Msg("failed to record run stats")
	}
}

func (s *Scheduler) recordError(log zerolog.Logger, bot, reason string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.RecordError(bot, reason); err != nil {
		log.Warn().Err(err).Msg("failed to record error")
	}
}
