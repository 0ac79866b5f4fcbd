package bots

import (
	"context"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/scheduler"
	"github.com/moneysignal/signals/internal/universe"
)

const rsiName = "rsi_signals"

// RSI flags daily-RSI extremes with a moving-average trend read.
// Overbought and oversold fire independently, each once per symbol
// per side per day.
type RSI struct {
	deps      *Deps
	blacklist Blacklist
	log       zerolog.Logger

	period       int
	oversold     float64
	overbought   float64
	minPrice     float64
	minDollarVol float64
	lookbackDays int
	maxUniverse  int
}

func NewRSI(d *Deps) *RSI {
	return &RSI{
		deps:         d,
		blacklist:    NewBlacklist(d.Config.ETFBlacklist),
		log:          d.Log.With().Str("bot", rsiName).Logger(),
		period:       14,
		oversold:     30.0,
		overbought:   70.0,
		minPrice:     5.0,
		minDollarVol: 200_000,
		lookbackDays: 80,
		maxUniverse:  d.Config.BotMaxUniverse(rsiName, 100),
	}
}

// Run performs one RSI scan cycle.
func (b *RSI) Run(ctx context.Context) (scheduler.Result, error) {
	if !b.deps.Market.Configured() {
		b.log.Debug().Msg("market data not configured, skipping")
		return scheduler.Result{}, nil
	}
	now := b.deps.now()
	if !b.deps.Calendar.InRegularHours(now) {
		return scheduler.Result{}, nil
	}

	symbols := b.deps.Universe.Resolve(ctx, universe.Request{
		Bot:        rsiName,
		Override:   b.deps.Config.BotUniverseOverride(rsiName),
		MaxTickers: b.maxUniverse,
	})
	if len(symbols) == 0 {
		b.log.Warn().Msg("empty universe, skipping scan")
		return scheduler.Result{}, nil
	}

	var res scheduler.Result
	for _, sym := range symbols {
		if b.blacklist.Contains(sym) {
			continue
		}
		res.Scanned++

		bars, err := b.deps.Market.DailyBars(ctx, sym, now.AddDate(0, 0, -b.lookbackDays), now)
		if err != nil || len(bars) < b.period+5 {
			continue
		}

		closes := make([]float64, len(bars))
		for i, bar := range bars {
			closes[i] = bar.Close
		}
		today := bars[len(bars)-1]
		prev := bars[len(bars)-2]
		last := today.Close
		if last < b.minPrice || prev.Close <= 0 {
			continue
		}
		if last*today.Volume < math.Max(b.minDollarVol, b.deps.Config.MinVolume) {
			continue
		}

		rsis := talib.Rsi(closes, b.period)
		rsiLast := rsis[len(rsis)-1]
		if math.IsNaN(rsiLast) {
			continue
		}

		var signal string
		switch {
		case rsiLast <= b.oversold:
			signal = "oversold"
		case rsiLast >= b.overbought:
			signal = "overbought"
		default:
			continue
		}
		key := sym + ":" + signal
		if b.deps.Dedup.Seen(rsiName, key) {
			continue
		}

		res.Matched++
		dayMovePct := (last - prev.Close) / prev.Close * 100
		regime := trendRegime(closes)
		rvol := relativeVolume(today.Volume, bars[:len(bars)-1])

		if b.deps.Alerts.SendAlert(ctx, b.format(sym, signal, rsiLast, last, dayMovePct, rvol, regime)) {
			b.deps.Dedup.Mark(rsiName, key)
			res.Alerts++
		}
	}

	b.log.Info().
		Int("scanned", res.Scanned).
		Int("matched", res.Matched).
		Msg("rsi scan complete")
	return res, nil
}

// trendRegime labels the trend from price against its 20 and 50 day
// simple moving averages.
func trendRegime(closes []float64) string {
	if len(closes) < 50 {
		return "Range-bound / mixed MAs"
	}
	price := closes[len(closes)-1]
	ma20 := talib.Sma(closes, 20)[len(closes)-1]
	ma50 := talib.Sma(closes, 50)[len(closes)-1]
	switch {
	case price > ma20 && ma20 > ma50:
		return "Uptrend (price > MA20 > MA50)"
	case ma20 > 0 && ma50 > 0 && price < ma20 && ma20 < ma50:
		return "Downtrend (price < MA20 < MA50)"
	default:
		return "Range-bound / mixed MAs"
	}
}

func (b *RSI) format(sym, signal string, rsiVal, last, dayMovePct, rvol float64, regime string) string {
	headerEmoji := "🔥"
	headerTitle := "RSI OVERBOUGHT"
	threshold := fmt.Sprintf("(≥ %.0f OVERBOUGHT)", b.overbought)
	read := "Short-term move looks stretched. Possible fade / digestion zone."
	if signal == "oversold" {
		headerEmoji = "🧠"
		headerTitle = "RSI OVERSOLD"
		threshold = fmt.Sprintf("(≤ %.0f OVERSOLD)", b.oversold)
		read = "Short-term momentum washed out. Potential bounce or mean-reversion zone."
	}

	direction := "UP"
	if dayMovePct < 0 {
		direction = "DOWN"
	}
	rvolText := "N/A"
	if rvol > 0 {
		rvolText = fmt.Sprintf("%.1fx", rvol)
	}

	return fmt.Sprintf(
		"%s %s — %s\n"+
			"🕒 %s\n"+
			"\n"+
			"💰 Price Snapshot\n"+
			"• Last: $%.2f (%.1f%% %s)\n"+
			"• RVOL: %s\n"+
			"\n"+
			"📉 Momentum Setup\n"+
			"• RSI(%d): %.1f %s\n"+
			"• Trend: %s\n"+
			"\n"+
			"🧠 Read\n"+
			"%s\n"+
			"\n"+
			"🔗 Chart\n"+
			"%s",
		headerEmoji, headerTitle, sym,
		b.deps.Calendar.FormatEastern(b.deps.now()),
		last, dayMovePct, direction,
		rvolText,
		b.period, rsiVal, threshold,
		regime,
		read,
		ChartLink(sym),
	)
}
