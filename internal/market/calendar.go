// Package market provides the trading calendar used to gate bot execution.
package market

import (
	"time"
)

// Premarket session bounds in minutes since midnight ET.
const (
	premarketStartMin = 4 * 60       // 04:00
	premarketEndMin   = 9*60 + 29    // 09:29
	regularOpenMin    = 9*60 + 30    // 09:30
	regularCloseMin   = 16 * 60      // 16:00
)

// Calendar answers "is this a valid trading instant" questions for US equity
// markets. All checks are evaluated in America/New_York.
type Calendar struct {
	loc      *time.Location
	holidays map[string]bool // yyyy-mm-dd
}

// NewCalendar creates a calendar with the built-in US market holidays.
func NewCalendar() *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback keeps the gate usable on systems without tzdata.
		loc = time.FixedZone("EST", -5*60*60)
	}

	c := &Calendar{
		loc:      loc,
		holidays: make(map[string]bool),
	}

	for _, d := range usHolidays {
		c.holidays[d] = true
	}

	return c
}

// usHolidays lists full-day US market closures.
var usHolidays = []string{
	// 2025
	"2025-01-01", "2025-01-20", "2025-02-17", "2025-04-18", "2025-05-26",
	"2025-06-19", "2025-07-04", "2025-09-01", "2025-11-27", "2025-12-25",
	// 2026
	"2026-01-01", "2026-01-19", "2026-02-16", "2026-04-10", "2026-05-25",
	"2026-06-19", "2026-07-03", "2026-09-07", "2026-11-26", "2026-12-25",
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// NowEastern returns the current time in the calendar's zone.
func (c *Calendar) NowEastern() time.Time {
	return time.Now().In(c.loc)
}

// IsTradingDay reports whether t falls on a weekday that is not a market
// holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	et := t.In(c.loc)
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.holidays[et.Format("2006-01-02")]
}

// TradingDate returns the calendar date (in ET) used to scope daily state
// such as dedup sets.
func (c *Calendar) TradingDate(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// InPremarketWindow reports whether t falls in the 04:00–09:29 ET premarket
// session on a trading day.
func (c *Calendar) InPremarketWindow(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	mins := minutesSinceMidnight(t.In(c.loc))
	return mins >= premarketStartMin && mins <= premarketEndMin
}

// InRegularHours reports whether t falls in the 09:30–16:00 ET regular
// session on a trading day.
func (c *Calendar) InRegularHours(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	mins := minutesSinceMidnight(t.In(c.loc))
	return mins >= regularOpenMin && mins < regularCloseMin
}

// FormatEastern renders a timestamp the way alerts and heartbeats display it,
// e.g. "3:04 PM EST · Jan 02".
func (c *Calendar) FormatEastern(t time.Time) string {
	return t.In(c.loc).Format("3:04 PM EST · Jan 02")
}

func minutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
