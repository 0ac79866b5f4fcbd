package bots

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/scheduler"
	"github.com/moneysignal/signals/internal/universe"
)

const volumeName = "volume"

// Volume flags intraday volume spikes: today's running volume against
// the trailing twenty-session average, with global volume and price
// floors. Runs only during regular trading hours.
type Volume struct {
	deps      *Deps
	blacklist Blacklist
	log       zerolog.Logger

	minPrice     float64
	lookbackDays int
	maxUniverse  int
}

func NewVolume(d *Deps) *Volume {
	return &Volume{
		deps:         d,
		blacklist:    NewBlacklist(d.Config.ETFBlacklist),
		log:          d.Log.With().Str("bot", volumeName).Logger(),
		minPrice:     5.0,
		lookbackDays: 35,
		maxUniverse:  d.Config.BotMaxUniverse(volumeName, 100),
	}
}

// Run performs one volume-spike scan cycle.
func (b *Volume) Run(ctx context.Context) (scheduler.Result, error) {
	if !b.deps.Market.Configured() {
		b.log.Debug().Msg("market data not configured, skipping")
		return scheduler.Result{}, nil
	}
	now := b.deps.now()
	if !b.deps.Calendar.InRegularHours(now) {
		return scheduler.Result{}, nil
	}

	symbols := b.deps.Universe.Resolve(ctx, universe.Request{
		Bot:        volumeName,
		Override:   b.deps.Config.BotUniverseOverride(volumeName),
		MaxTickers: b.maxUniverse,
	})
	if len(symbols) == 0 {
		b.log.Warn().Msg("empty universe, skipping scan")
		return scheduler.Result{}, nil
	}

	var res scheduler.Result
	for _, sym := range symbols {
		if b.blacklist.Contains(sym) || b.deps.Dedup.Seen(volumeName, sym) {
			continue
		}
		res.Scanned++

		bars, err := b.deps.Market.DailyBars(ctx, sym, now.AddDate(0, 0, -b.lookbackDays), now)
		if err != nil || len(bars) < 2 {
			continue
		}
		today := bars[len(bars)-1]
		prev := bars[len(bars)-2]
		if today.Close < b.minPrice || prev.Close <= 0 {
			continue
		}
		if today.Volume < b.deps.Config.MinVolume {
			continue
		}

		rvol := relativeVolume(today.Volume, bars[:len(bars)-1])
		if rvol < b.deps.Config.MinRVOL {
			continue
		}

		movePct := (today.Close - prev.Close) / prev.Close * 100
		dollarVol := today.Close * today.Volume

		res.Matched++
		if b.deps.Alerts.SendAlert(ctx, b.format(sym, today.Close, movePct, rvol, today.Volume, dollarVol)) {
			b.deps.Dedup.Mark(volumeName, sym)
			res.Alerts++
		}
	}

	b.log.Info().
		Int("scanned", res.Scanned).
		Int("matched", res.Matched).
		Msg("volume scan complete")
	return res, nil
}

func (b *Volume) format(sym string, last, movePct, rvol, vol, dollarVol float64) string {
	direction := "UP"
	if movePct < 0 {
		direction = "DOWN"
	}
	grade := Grade(math.Abs(movePct), rvol, dollarVol)

	return fmt.Sprintf(
		"📦 VOLUME SPIKE — %s\n"+
			"🕒 %s\n"+
			"💰 $%.2f (%.1f%% %s) · 📊 RVOL %.1fx\n"+
			"────────────\n"+
			"📦 Day Vol: %s (≈ $%s)\n"+
			"🎯 Grade: %s\n"+
			"🔗 Chart: %s",
		sym,
		b.deps.Calendar.FormatEastern(b.deps.now()),
		last, movePct, direction, rvol,
		groupThousands(vol), groupThousands(dollarVol),
		grade,
		ChartLink(sym),
	)
}
