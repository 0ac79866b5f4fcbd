package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// recentErrorWindow is how far back errors count toward the status line.
const recentErrorWindow = time.Hour

// displayNames maps internal bot names to short human labels where the
// mechanical title-casing reads poorly.
var displayNames = map[string]string{
	"rsi_signals": "RSI Signals",
	"debug_ping":  "Debug Ping",
}

// Composer renders the consolidated health message from the recorder's
// latest-per-bot view. It is purely read-side: it never triggers a run.
type Composer struct {
	rec    *Recorder
	order  []string
	format func(time.Time) string
	now    func() time.Time
}

// NewComposer creates a composer. order fixes the bot display order; format
// renders timestamps for humans (eastern time in production).
func NewComposer(rec *Recorder, order []string, format func(time.Time) string) *Composer {
	return &Composer{
		rec:    rec,
		order:  order,
		format: format,
		now:    time.Now,
	}
}

// ShouldSend applies the minimum interval between heartbeats.
func (c *Composer) ShouldSend(minInterval time.Duration) bool {
	doc := c.rec.Snapshot()
	return c.now().Sub(doc.LastHeartbeat) >= minInterval
}

// MarkSent persists the heartbeat timestamp.
func (c *Composer) MarkSent() error {
	return c.rec.MarkHeartbeat(c.now())
}

// Compose reads the stats document once and renders the heartbeat text.
func (c *Composer) Compose() string {
	doc := c.rec.Snapshot()
	now := c.now()

	recentErrors := 0
	errorBots := make(map[string]bool)
	for _, e := range doc.Errors {
		if now.Sub(e.At) <= recentErrorWindow {
			recentErrors++
			errorBots[strings.ToLower(e.Bot)] = true
		}
	}

	statusLine := "✅ ALL SYSTEMS GOOD"
	switch {
	case recentErrors >= 3:
		statusLine = "❌ ERRORS DETECTED"
	case recentErrors > 0:
		statusLine = "⚠️ PARTIAL ISSUES"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📡 MoneySignal Heartbeat · %s\n", c.format(now))
	b.WriteString(statusLine + "\n\n")

	b.WriteString("🤖 Bots\n")
	totalScanned, totalMatched, totalAlerts := 0, 0, 0
	for _, name := range c.order {
		latest := latestFor(doc, name)

		indicator := "⚪"
		lastSeen := "no data yet"
		if latest != nil {
			indicator = "🟢"
			lastSeen = c.format(latest.FinishedAt)
			totalScanned += latest.Scanned
			totalMatched += latest.Matched
			totalAlerts += latest.Alerts
		}
		if errorBots[strings.ToLower(name)] {
			indicator = "🔴"
		}

		fmt.Fprintf(&b, "• %-16s %s %s\n", displayName(name), indicator, lastSeen)
	}

	b.WriteString("\n📊 Totals\n")
	fmt.Fprintf(&b, "• Scanned: %d • Matches: %d • Alerts: %d\n", totalScanned, totalMatched, totalAlerts)

	b.WriteString("\n📈 Per Bot (scanned | matches | alerts | median runtime)\n")
	for _, name := range c.order {
		latest := latestFor(doc, name)
		if latest == nil {
			fmt.Fprintf(&b, "• %-16s no data yet\n", displayName(name))
			continue
		}
		fmt.Fprintf(&b, "• %-16s %d | %d | %d | %.1fs\n",
			displayName(name), latest.Scanned, latest.Matched, latest.Alerts,
			medianRuntime(doc, name))
	}

	b.WriteString("\n🛠 Diagnostics\n")
	quiet := make([]string, 0)
	neverRan := make([]string, 0)
	for _, name := range c.order {
		latest := latestFor(doc, name)
		if latest == nil {
			neverRan = append(neverRan, displayName(name))
			continue
		}
		if latest.Scanned > 0 && latest.Alerts == 0 {
			quiet = append(quiet, displayName(name))
		}
	}
	fmt.Fprintf(&b, "• High scan, zero alerts: %s\n", listOrNone(quiet))
	fmt.Fprintf(&b, "• No runtime yet: %s\n", listOrNone(neverRan))

	return strings.TrimRight(b.String(), "\n")
}

func latestFor(doc *Document, bot string) *Record {
	bs := doc.Bots[bot]
	if bs == nil {
		return nil
	}
	return bs.Latest
}

// medianRuntime computes the median of a bot's recorded runtimes.
func medianRuntime(doc *Document, bot string) float64 {
	bs := doc.Bots[bot]
	if bs == nil || len(bs.History) == 0 {
		return 0
	}

	runtimes := make([]float64, 0, len(bs.History))
	for _, rec := range bs.History {
		runtimes = append(runtimes, rec.Runtime)
	}
	sort.Float64s(runtimes)

	return stat.Quantile(0.5, stat.Empirical, runtimes, nil)
}

func displayName(bot string) string {
	if v, ok := displayNames[bot]; ok {
		return v
	}
	words := strings.Split(bot, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}

// SetClock replaces the composer's clock. Test use only.
func (c *Composer) SetClock(now func() time.Time) {
	c.now = now
}
