package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/moodlog/moodlog-be/internal/services"
)

// Pruner removes old activity events on a fixed schedule so the events table
// does not grow without bound.
type Pruner struct {
	events    services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
}

// NewPruner creates a pruner that keeps events for the given retention window.
func NewPruner(events services.EventServiceProvider, retention time.Duration) *Pruner {
	return &Pruner{events: events, retention: retention, cron: cron.New()}
}

// Start schedules the daily prune job and runs one pass immediately.
func (p *Pruner) Start() error {
	if _, err := p.cron.AddFunc("@daily", p.prune); err != nil {
		return err
	}
	p.cron.Start()
	go p.prune()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *Pruner) prune() {
	cutoff := time.Now().UTC().Add(-p.retention)
	removed, err := p.events.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune old events")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned old events")
	}
}
