// Package main is the entry point for the MoneySignal bot runtime. It
// wires configuration, market data, the scan bots, the scheduler loop,
// the heartbeat cron, and the HTTP status surface, then runs until
// SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/moneysignal/signals/internal/alerts"
	"github.com/moneysignal/signals/internal/bots"
	"github.com/moneysignal/signals/internal/clients/polygon"
	"github.com/moneysignal/signals/internal/config"
	"github.com/moneysignal/signals/internal/dedup"
	"github.com/moneysignal/signals/internal/market"
	"github.com/moneysignal/signals/internal/reliability"
	"github.com/moneysignal/signals/internal/scheduler"
	"github.com/moneysignal/signals/internal/server"
	"github.com/moneysignal/signals/internal/stats"
	"github.com/moneysignal/signals/internal/universe"
	"github.com/moneysignal/signals/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Msg("Starting MoneySignal")

	calendar := market.NewCalendar()
	recorder := stats.NewRecorder(cfg.StatsPath, log)

	polygonClient := polygon.NewClient(cfg.PolygonBaseURL, cfg.PolygonKey, log)
	if !polygonClient.Configured() {
		log.Warn().Msg("POLYGON_KEY not set, market scans will be skipped")
	}

	telegram := alerts.NewTelegram(alerts.Config{
		BotToken:     cfg.TelegramAlertsToken,
		AlertsChatID: cfg.TelegramAlertsChat,
		StatusChatID: cfg.TelegramStatusChat,
	}, log)
	if !telegram.Enabled() {
		log.Warn().Msg("Telegram not configured, alerts will be dropped")
	}

	statusSender := telegram
	if cfg.TelegramStatusToken != "" && cfg.TelegramStatusToken != cfg.TelegramAlertsToken {
		statusSender = alerts.NewTelegram(alerts.Config{
			BotToken:     cfg.TelegramStatusToken,
			AlertsChatID: cfg.TelegramStatusChat,
		}, log)
	}

	resolver := universe.NewResolver(polygonClient, cfg.UniverseHardCap, cfg.VolumeCoverage, log)

	deps := &bots.Deps{
		Config:   cfg,
		Market:   polygonClient,
		Universe: resolver,
		Dedup:    dedup.New(calendar),
		Alerts:   telegram,
		Calendar: calendar,
		Log:      log,
	}

	sched := scheduler.New(scheduler.Config{
		Tick:     cfg.ScanInterval,
		Timeout:  cfg.BotTimeout,
		Stats:    recorder,
		Calendar: calendar,
		Log:      log,
	})

	var botInfos []server.BotInfo
	for _, def := range bots.Registry(deps) {
		enabled := cfg.BotEnabled(def.Name)
		botInfos = append(botInfos, server.BotInfo{
			Name:     def.Name,
			Interval: cfg.BotInterval(def.Name, def.DefaultInterval),
			Enabled:  enabled,
			TestMode: cfg.TestModeBots[def.Name],
		})
		if !enabled {
			log.Info().Str("bot", def.Name).Msg("bot disabled by configuration")
			continue
		}
		sched.Register(&scheduler.Job{
			Name:            def.Name,
			Interval:        cfg.BotInterval(def.Name, def.DefaultInterval),
			AllowClosedDays: def.AllowClosedDays,
			Run:             def.Run,
		})
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Calendar:  calendar,
		Stats:     recorder,
		Jobs:      sched,
		Bots:      botInfos,
		StartedAt: time.Now(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx, 0)

	// Heartbeat and backup run off a cron rather than the scan loop so
	// their cadence is independent of the tick.
	composer := stats.NewComposer(recorder, bots.Names(), calendar.FormatEastern)
	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc("0 * * * * *", func() {
		if !composer.ShouldSend(cfg.HeartbeatInterval) {
			return
		}
		hbCtx, hbCancel := context.WithTimeout(ctx, 30*time.Second)
		defer hbCancel()
		if statusSender.SendStatus(hbCtx, composer.Compose()) {
			if err := composer.MarkSent(); err != nil {
				log.Warn().Err(err).Msg("failed to persist heartbeat timestamp")
			}
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule heartbeat")
	}

	if cfg.Backup.Enabled() {
		backup, err := reliability.NewR2Backup(cfg.Backup, cfg.StatsPath, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize stats backup, continuing without it")
		} else {
			_, err = c.AddFunc(cfg.Backup.Schedule, func() {
				bkCtx, bkCancel := context.WithTimeout(ctx, 2*time.Minute)
				defer bkCancel()
				if err := backup.Upload(bkCtx); err != nil {
					log.Error().Err(err).Msg("stats backup failed")
				}
			})
			if err != nil {
				log.Error().Err(err).Str("schedule", cfg.Backup.Schedule).Msg("Failed to schedule stats backup")
			} else {
				log.Info().Str("schedule", cfg.Backup.Schedule).Msg("Stats backup scheduled")
			}
		}
	}
	c.Start()

	log.Info().
		Int("port", cfg.Port).
		Dur("tick", cfg.ScanInterval).
		Msg("MoneySignal running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()
	c.Stop()

	// Give in-flight bot runs a bounded window to finish.
	drained := make(chan struct{})
	go func() {
		sched.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.BotTimeout):
		log.Warn().Msg("shutdown proceeding with bot runs still in flight")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("MoneySignal stopped")
}
