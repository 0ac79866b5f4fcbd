// Package dedup provides the per-trading-day suppression set bots use to
// avoid alerting the same symbol twice in one session.
package dedup

import (
	"sync"
	"time"
)

// DateProvider supplies the current trading date. The market calendar
// satisfies this; tests inject fixed dates.
type DateProvider interface {
	TradingDate(t time.Time) string
}

type scopeState struct {
	day  string
	seen map[string]bool
}

// Store holds one day-scoped seen-set per scope. A scope is usually a bot
// name, or bot name plus category for bots that alert on several channels.
type Store struct {
	mu     sync.Mutex
	scopes map[string]*scopeState
	dates  DateProvider
	now    func() time.Time
}

// New creates an empty store backed by the given date provider.
func New(dates DateProvider) *Store {
	return &Store{
		scopes: make(map[string]*scopeState),
		dates:  dates,
		now:    time.Now,
	}
}

// Seen reports whether key was marked within scope today. Callers check this
// before doing expensive work.
func (s *Store) Seen(scope, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scopeLocked(scope).seen[key]
}

// Mark records key as seen within scope for the rest of the trading day.
// Call it only after the corresponding side effect (the alert) has actually
// been handed off, so a failure in between never suppresses the symbol for
// the whole day.
func (s *Store) Mark(scope, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scopeLocked(scope).seen[key] = true
}

// Count returns the number of keys marked within scope today.
func (s *Store) Count(scope string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.scopeLocked(scope).seen)
}

// scopeLocked returns the scope's state, resetting its set first when the
// trading day has rolled over since the last access.
func (s *Store) scopeLocked(scope string) *scopeState {
	today := s.dates.TradingDate(s.now())

	st, ok := s.scopes[scope]
	if !ok {
		st = &scopeState{day: today, seen: make(map[string]bool)}
		s.scopes[scope] = st
		return st
	}

	if st.day != today {
		st.day = today
		st.seen = make(map[string]bool)
	}

	return st
}

// SetClock replaces the store's clock. Test use only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}
