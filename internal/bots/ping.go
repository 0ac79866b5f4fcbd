package bots

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moneysignal/signals/internal/scheduler"
)

const pingName = "debug_ping"

// Ping is a connectivity tester. It ignores market data and market
// hours entirely; if the message shows up in the alerts channel, the
// credentials and the scheduler wiring are good.
type Ping struct {
	deps *Deps
	log  zerolog.Logger
}

func NewPing(d *Deps) *Ping {
	return &Ping{
		deps: d,
		log:  d.Log.With().Str("bot", pingName).Logger(),
	}
}

// Run sends one ping. The scheduler's interval controls the cadence.
func (b *Ping) Run(ctx context.Context) (scheduler.Result, error) {
	msg := fmt.Sprintf(
		"🧪 DEBUG PING\n"+
			"🕒 %s\n"+
			"────────────\n"+
			"If you can see this, the Telegram credentials\n"+
			"are correctly configured and the scheduler is running.",
		b.deps.Calendar.FormatEastern(b.deps.now()),
	)

	if !b.deps.Alerts.SendAlert(ctx, msg) {
		b.log.Debug().Msg("ping not delivered")
		return scheduler.Result{}, nil
	}
	return scheduler.Result{Alerts: 1}, nil
}
