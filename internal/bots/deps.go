// Package bots holds the scanner implementations and the registry the
// scheduler runs them from. Each bot is a thin consumer of the shared
// services: universe resolution, market data, per-day dedup, and the
// Telegram sink.
package bots

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/clients/polygon"
	"github.com/moneysignal/signals/internal/config"
	"github.com/moneysignal/signals/internal/dedup"
	"github.com/moneysignal/signals/internal/market"
	"github.com/moneysignal/signals/internal/universe"
)

// MarketData is the slice of the polygon client the bots consume.
type MarketData interface {
	Configured() bool
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]polygon.Bar, error)
	LastTrade(ctx context.Context, symbol string) (polygon.Trade, error)
}

// UniverseSource resolves the symbol list a bot scans.
type UniverseSource interface {
	Resolve(ctx context.Context, req universe.Request) []string
}

// AlertSender hands a formatted message to the notification channel.
// Delivery is best effort; the return value only reports acceptance.
type AlertSender interface {
	SendAlert(ctx context.Context, text string) bool
}

// Deps bundles the shared services every bot receives.
type Deps struct {
	Config   *config.Config
	Market   MarketData
	Universe UniverseSource
	Dedup    *dedup.Store
	Alerts   AlertSender
	Calendar *market.Calendar
	Log      zerolog.Logger
	Now      func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
