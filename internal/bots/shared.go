package bots

import (
	"fmt"
	"strings"

	"github.com/moneysignal/signals/internal/clients/polygon"
)

// defaultETFBlacklist keeps broad index and sector ETFs out of the
// single-stock scanners.
var defaultETFBlacklist = []string{
	"SPY", "QQQ", "IWM", "DIA", "XLF", "XLE", "XLK", "XLV",
}

// Blacklist is a symbol exclusion set.
type Blacklist map[string]bool

// NewBlacklist builds the ETF exclusion set from the defaults plus any
// configured extras.
func NewBlacklist(extra []string) Blacklist {
	bl := make(Blacklist, len(defaultETFBlacklist)+len(extra))
	for _, s := range defaultETFBlacklist {
		bl[s] = true
	}
	for _, s := range extra {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			bl[s] = true
		}
	}
	return bl
}

// Contains reports whether symbol is excluded.
func (b Blacklist) Contains(symbol string) bool {
	return b[strings.ToUpper(symbol)]
}

// ChartLink returns the TradingView chart URL used in every alert.
func ChartLink(symbol string) string {
	return "https://www.tradingview.com/chart/?symbol=" + strings.ToUpper(symbol)
}

// Grade assigns a rough A+/A/B/C label to a setup from the move
// magnitude, relative volume, and dollar volume. Intentionally simple,
// it only exists to give alerts a quick qualitative tag.
func Grade(movePct, rvol, dollarVol float64) string {
	score := 0

	if movePct >= 3 {
		score++
	}
	if movePct >= 5 {
		score++
	}
	if movePct >= 8 {
		score++
	}

	if rvol >= 2 {
		score++
	}
	if rvol >= 3 {
		score++
	}

	if dollarVol >= 25_000_000 {
		score++
	}
	if dollarVol >= 75_000_000 {
		score++
	}
	if dollarVol >= 200_000_000 {
		score++
	}

	switch {
	case score >= 6:
		return "A+"
	case score >= 4:
		return "A"
	case score >= 2:
		return "B"
	default:
		return "C"
	}
}

// relativeVolume compares today's volume against the average of up to
// the last twenty historical bars. Returns 0 with no usable history.
func relativeVolume(todayVolume float64, history []polygon.Bar) float64 {
	if len(history) > 20 {
		history = history[len(history)-20:]
	}
	var sum float64
	var n int
	for _, b := range history {
		if b.Volume > 0 {
			sum += b.Volume
			n++
		}
	}
	if n == 0 || sum == 0 {
		return 0
	}
	return todayVolume / (sum / float64(n))
}

// groupThousands renders a count with comma separators, the way the
// alert bodies print share and dollar volumes.
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
