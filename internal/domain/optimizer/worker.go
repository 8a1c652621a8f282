package optimizer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker runs the optimizer and the underperformer check over every active campaign
type Worker struct {
	optimizer    *Optimizer
	systemUserID int64
	interval     time.Duration
	passTimeout  time.Duration
	stopCh       chan struct{}
	done         chan struct{}
	stopOnce     sync.Once
}

// NewWorker creates a new optimizer worker
func NewWorker(optimizer *Optimizer, systemUserID int64, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &Worker{
		optimizer:    optimizer,
		systemUserID: systemUserID,
		interval:     interval,
		passTimeout:  5 * time.Minute,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting optimizer worker...")
	go w.loop()
}

// Stop signals the loop and waits for the current pass to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		log.Info().Msg("Stopping optimizer worker...")
		close(w.stopCh)
	})
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.RunOnce()

	for {
		select {
		case <-ticker.C:
			w.RunOnce()
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce performs one optimize-then-alert sweep over active campaigns
func (w *Worker) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.passTimeout)
	defer cancel()

	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	campaigns, err := w.optimizer.campaigns.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active campaigns")
		return
	}

	log.Debug().Int("campaigns", len(campaigns)).Msg("Starting optimizer sweep...")

	var optimized, alerted int
	for _, c := range campaigns {
		if ctx.Err() != nil {
			break
		}

		res, err := w.optimizer.Optimize(ctx, c.ID, w.systemUserID)
		if err != nil {
			log.Error().Err(err).Int64("campaign_id", c.ID).Msg("Optimizer pass failed")
		} else {
			optimized += res.OptimizedCount
		}

		alerts, err := w.optimizer.CheckUnderperformers(ctx, c.ID)
		if err != nil {
			log.Error().Err(err).Int64("campaign_id", c.ID).Msg("Underperformer check failed")
		} else {
			alerted += alerts.Alerted
		}
	}

	log.Info().Int("campaigns", len(campaigns)).Int("optimized", optimized).Int("alerted", alerted).
		Msg("Finished optimizer sweep")
}
