package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type statusBot struct {
	Name            string `json:"name"`
	IntervalSeconds int    `json:"interval_seconds"`
	Enabled         bool   `json:"enabled"`
	TestMode        bool   `json:"test_mode"`
	Running         bool   `json:"running"`
	LastStart       string `json:"last_start,omitempty"`
}

// handleStatus reports the process and the bot registry.
// GET /
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	running := map[string]statusBot{}
	if s.jobs != nil {
		for _, js := range s.jobs.Snapshot() {
			sb := statusBot{Running: js.Running}
			if !js.LastStart.IsZero() {
				sb.LastStart = s.calendar.FormatEastern(js.LastStart)
			}
			running[js.Name] = sb
		}
	}

	bots := make([]statusBot, 0, len(s.bots))
	for _, b := range s.bots {
		sb := statusBot{
			Name:            b.Name,
			IntervalSeconds: int(b.Interval.Seconds()),
			Enabled:         b.Enabled,
			TestMode:        b.TestMode,
		}
		if live, ok := running[b.Name]; ok {
			sb.Running = live.Running
			sb.LastStart = live.LastStart
		}
		bots = append(bots, sb)
	}

	s.writeJSON(w, map[string]any{
		"service":        "moneysignal",
		"now_est":        s.calendar.FormatEastern(s.calendar.NowEastern()),
		"trading_day":    s.calendar.IsTradingDay(time.Now()),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"bots":           bots,
	})
}

type healthBot struct {
	Scanned    int     `json:"scanned"`
	Matched    int     `json:"matched"`
	Alerts     int     `json:"alerts"`
	RuntimeSec float64 `json:"runtime_seconds"`
	FinishedAt string  `json:"finished_at"`
}

// handleHealth reports liveness plus a per-bot latest-run summary and
// host load.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	bots := map[string]healthBot{}
	if s.stats != nil {
		doc := s.stats.Snapshot()
		for name, bs := range doc.Bots {
			if bs.Latest == nil {
				continue
			}
			bots[name] = healthBot{
				Scanned:    bs.Latest.Scanned,
				Matched:    bs.Latest.Matched,
				Alerts:     bs.Latest.Alerts,
				RuntimeSec: bs.Latest.Runtime,
				FinishedAt: s.calendar.FormatEastern(bs.Latest.FinishedAt),
			}
		}
	}

	cpuPct, ramPct := s.systemStats()
	s.writeJSON(w, map[string]any{
		"status":      "healthy",
		"now_est":     s.calendar.FormatEastern(s.calendar.NowEastern()),
		"cpu_percent": cpuPct,
		"ram_percent": ramPct,
		"bots":        bots,
	})
}

// systemStats samples CPU over a short window so the endpoint responds
// fast enough for an aggressive poller.
func (s *Server) systemStats() (float64, float64) {
	cpuAvg := 0.0
	if pct, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuAvg = pct[0]
	} else if err != nil {
		s.log.Warn().Err(err).Msg("failed to get cpu percentage")
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to get memory statistics")
		return cpuAvg, 0
	}
	return cpuAvg, memStat.UsedPercent
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}
