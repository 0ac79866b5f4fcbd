package bots

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/scheduler"
	"github.com/moneysignal/signals/internal/universe"
)

const premarketName = "premarket"

// Premarket scans for meaningful premarket moves with real liquidity:
// gap percentage against the prior close, partial-day relative volume,
// and share plus dollar volume floors. ETFs are excluded and each
// symbol alerts at most once per trading day.
type Premarket struct {
	deps      *Deps
	blacklist Blacklist
	log       zerolog.Logger

	minPrice     float64
	minMovePct   float64
	maxMovePct   float64 // 0 disables the ceiling
	minDollarVol float64
	minRVOL      float64
	lookbackDays int
	maxUniverse  int
}

// NewPremarket builds the premarket scanner with its default
// thresholds.
func NewPremarket(d *Deps) *Premarket {
	return &Premarket{
		deps:         d,
		blacklist:    NewBlacklist(d.Config.ETFBlacklist),
		log:          d.Log.With().Str("bot", premarketName).Logger(),
		minPrice:     5.0,
		minMovePct:   3.0,
		maxMovePct:   0,
		minDollarVol: 500_000,
		minRVOL:      1.5,
		lookbackDays: 40,
		maxUniverse:  d.Config.BotMaxUniverse(premarketName, 120),
	}
}

// Run performs one premarket scan cycle.
func (b *Premarket) Run(ctx context.Context) (scheduler.Result, error) {
	if !b.deps.Market.Configured() {
		b.log.Debug().Msg("market data not configured, skipping")
		return scheduler.Result{}, nil
	}
	now := b.deps.now()
	if !b.deps.Calendar.InPremarketWindow(now) {
		return scheduler.Result{}, nil
	}

	symbols := b.deps.Universe.Resolve(ctx, universe.Request{
		Bot:        premarketName,
		Override:   b.deps.Config.BotUniverseOverride(premarketName),
		MaxTickers: b.maxUniverse,
	})
	if len(symbols) == 0 {
		b.log.Warn().Msg("empty universe, skipping scan")
		return scheduler.Result{}, nil
	}

	b.log.Info().Int("symbols", len(symbols)).Msg("scanning premarket movers")

	var res scheduler.Result
	for _, sym := range symbols {
		if b.blacklist.Contains(sym) || b.deps.Dedup.Seen(premarketName, sym) {
			continue
		}
		res.Scanned++

		bars, err := b.deps.Market.DailyBars(ctx, sym, now.AddDate(0, 0, -b.lookbackDays), now)
		if err != nil || len(bars) < 2 {
			continue
		}
		prevClose := bars[len(bars)-2].Close
		todayVol := bars[len(bars)-1].Volume
		if prevClose <= 0 || todayVol <= 0 {
			continue
		}

		trade, err := b.deps.Market.LastTrade(ctx, sym)
		if err != nil || trade.Price <= 0 {
			continue
		}
		last := trade.Price
		if last < b.minPrice {
			continue
		}

		movePct := (last - prevClose) / prevClose * 100
		absMove := math.Abs(movePct)
		if absMove < b.minMovePct {
			continue
		}
		if b.maxMovePct > 0 && absMove > b.maxMovePct {
			continue
		}

		dollarVol := last * todayVol
		if dollarVol < b.minDollarVol {
			continue
		}

		rvol := relativeVolume(todayVol, bars[:len(bars)-1])
		if rvol < math.Max(b.minRVOL, b.deps.Config.MinRVOL) {
			continue
		}
		if todayVol < b.deps.Config.MinVolume {
			continue
		}

		res.Matched++
		// Mark only on accepted delivery so a sink outage does not
		// suppress the symbol for the rest of the day.
		if b.deps.Alerts.SendAlert(ctx, b.format(sym, last, prevClose, movePct, rvol, todayVol, dollarVol)) {
			b.deps.Dedup.Mark(premarketName, sym)
			res.Alerts++
		}
	}

	b.log.Info().
		Int("scanned", res.Scanned).
		Int("matched", res.Matched).
		Msg("premarket scan complete")
	return res, nil
}

func (b *Premarket) format(sym string, last, prevClose, movePct, rvol, todayVol, dollarVol float64) string {
	direction := "up"
	emoji := "🚀"
	bias := "Long premarket momentum / gap-and-go watch"
	if movePct < 0 {
		direction = "down"
		emoji = "⚠️"
		bias = "Gap-down pressure; watch for flush or bounce"
	}
	grade := Grade(math.Abs(movePct), rvol, dollarVol)

	return fmt.Sprintf(
		"📣 PREMARKET — %s\n"+
			"🕒 %s\n"+
			"💰 $%.2f · 📊 RVOL %.1fx\n"+
			"────────────\n"+
			"%s Premarket move: %.1f%% %s vs prior close\n"+
			"📈 Prev Close: $%.2f → Premarket Last: $%.2f\n"+
			"📦 Day Vol (partial): %s (≈ $%s)\n"+
			"🎯 Grade: %s\n"+
			"🧠 Bias: %s\n"+
			"🔗 Chart: %s",
		sym,
		b.deps.Calendar.FormatEastern(b.deps.now()),
		last, rvol,
		emoji, movePct, direction,
		prevClose, last,
		groupThousands(todayVol), groupThousands(dollarVol),
		grade,
		bias,
		ChartLink(sym),
	)
}
