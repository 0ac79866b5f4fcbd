package bots

import (
	"time"

	"github.com/moneysignal/signals/internal/scheduler"
)

// Definition describes a registerable bot before per-deployment config
// (interval overrides, disabled list) is applied.
type Definition struct {
	Name            string
	DefaultInterval time.Duration
	AllowClosedDays bool
	Run             scheduler.JobFunc
}

// Registry returns every bot this build ships, in display order.
func Registry(d *Deps) []Definition {
	return []Definition{
		{Name: premarketName, DefaultInterval: 60 * time.Second, Run: NewPremarket(d).Run},
		{Name: volumeName, DefaultInterval: 60 * time.Second, Run: NewVolume(d).Run},
		{Name: rsiName, DefaultInterval: 60 * time.Second, Run: NewRSI(d).Run},
		{Name: pingName, DefaultInterval: 300 * time.Second, AllowClosedDays: true, Run: NewPing(d).Run},
	}
}

// Names returns the registry's bot names in display order.
func Names() []string {
	return []string{premarketName, volumeName, rsiName, pingName}
}
