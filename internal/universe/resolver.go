// Package universe resolves the ordered symbol list a bot scans in one run.
package universe

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/cache"
	"github.com/moneysignal/signals/internal/clients/polygon"
)

// snapshotTTL bounds how often the full-market snapshot is refetched; every
// bot resolving a dynamic universe inside this window shares one API call.
const snapshotTTL = 3 * time.Minute

// defaultFallback is served when the provider is unreachable and no snapshot
// was ever cached.
var defaultFallback = []string{"SPY", "QQQ", "IWM", "AAPL", "MSFT", "NVDA"}

// SnapshotSource supplies the full-market snapshot for liquidity ranking.
type SnapshotSource interface {
	SnapshotTickers(ctx context.Context) ([]polygon.TickerSnapshot, error)
}

// Request describes one universe resolution.
type Request struct {
	Bot            string
	Override       []string // bot-specific explicit list, wins outright
	GlobalOverride []string // process-wide explicit list
	MaxTickers     int      // soft cap for the dynamic ranking
}

// Resolver produces scan universes with a non-negotiable hard cap.
type Resolver struct {
	source   SnapshotSource
	cache    *cache.Store[[]polygon.TickerSnapshot]
	hardCap  int
	coverage float64
	fallback []string
	log      zerolog.Logger
}

// NewResolver creates a resolver. hardCap is the absolute ceiling applied to
// every result regardless of overrides; coverage is the fraction of observed
// day volume the dynamic ranking tries to capture.
func NewResolver(source SnapshotSource, hardCap int, coverage float64, log zerolog.Logger) *Resolver {
	return &Resolver{
		source:   source,
		cache:    cache.New[[]polygon.TickerSnapshot](),
		hardCap:  hardCap,
		coverage: coverage,
		fallback: defaultFallback,
		log:      log.With().Str("component", "universe").Logger(),
	}
}

// Resolve returns the symbols a bot should scan, first non-empty source wins:
// bot override, global override, liquidity-ranked dynamic selection. The
// result is always clipped to the hard cap.
func (r *Resolver) Resolve(ctx context.Context, req Request) []string {
	if len(req.Override) > 0 {
		return r.clip(req.Override)
	}
	if len(req.GlobalOverride) > 0 {
		return r.clip(req.GlobalOverride)
	}
	return r.clip(r.dynamic(ctx, req))
}

// dynamic greedily picks symbols by descending day volume until the coverage
// fraction of total observed volume is reached or the soft max is hit.
func (r *Resolver) dynamic(ctx context.Context, req Request) []string {
	snapshot, err := r.cache.GetOrFetch("snapshot:us", snapshotTTL, func() ([]polygon.TickerSnapshot, error) {
		return r.source.SnapshotTickers(ctx)
	})
	if err != nil {
		// Last good snapshot beats no universe at all.
		if stale, ok := r.cache.Peek("snapshot:us"); ok {
			r.log.Warn().Err(err).Str("bot", req.Bot).Msg("Snapshot fetch failed, using stale snapshot")
			snapshot = stale
		} else {
			r.log.Warn().Err(err).Str("bot", req.Bot).Msg("Snapshot fetch failed, using fallback universe")
			return r.fallback
		}
	}
	if len(snapshot) == 0 {
		return r.fallback
	}

	ranked := make([]polygon.TickerSnapshot, len(snapshot))
	copy(ranked, snapshot)

	// Descending volume, lexical tie-break so results are reproducible for a
	// given snapshot.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DayVolume != ranked[j].DayVolume {
			return ranked[i].DayVolume > ranked[j].DayVolume
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	total := 0.0
	for _, s := range ranked {
		total += s.DayVolume
	}
	if total <= 0 {
		total = 1
	}

	softMax := req.MaxTickers
	if softMax <= 0 {
		softMax = r.hardCap
	}

	picked := make([]string, 0, softMax)
	running := 0.0
	for _, s := range ranked {
		running += s.DayVolume
		picked = append(picked, s.Symbol)
		if running/total >= r.coverage || len(picked) >= softMax {
			break
		}
	}

	if len(picked) == 0 {
		return r.fallback
	}
	return picked
}

// clip truncates to the hard cap, preserving order.
func (r *Resolver) clip(symbols []string) []string {
	if r.hardCap >= 0 && len(symbols) > r.hardCap {
		return symbols[:r.hardCap]
	}
	return symbols
}

// SetFallback replaces the fallback universe. Test use only.
func (r *Resolver) SetFallback(symbols []string) {
	r.fallback = symbols
}
