package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/drewmudry/chatshorts-api/config"
	"github.com/drewmudry/chatshorts-api/internal/platform"
	"github.com/drewmudry/chatshorts-api/worker"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Only run one instance of this service.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.ConfigureLogging(cfg.LogLevel)

	db := platform.NewDBConnection(cfg.Database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err = c.AddFunc(cfg.Scheduler.SweepSpec, func() {
		if _, err := worker.SweepStale(db, cfg.Scheduler.StaleAfter, time.Now()); err != nil {
			log.Printf("Error sweeping stale generations: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", cfg.Scheduler.SweepSpec, err)
	}

	c.Start()
	log.Printf("Scheduler started, sweeping %s for generations older than %s", cfg.Scheduler.SweepSpec, cfg.Scheduler.StaleAfter)

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}
