package jobs

import (
	"context"
	"log"
	"time"

	"micmap/models"
	"micmap/sources"
)

// StartScheduler enqueues an index run for every enabled source on its
// configured cadence. Each source gets its own ticker so a slow daily source
// does not gate an hourly one.
func StartScheduler(ctx context.Context, reg *sources.Registry) {
	for _, src := range reg.Enabled() {
		go scheduleSource(ctx, reg, src.SourceID)
	}
}

func scheduleSource(ctx context.Context, reg *sources.Registry, sourceID string) {
	interval := reg.Interval(sourceID)
	log.Printf("[Scheduler] %s every %s", sourceID, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	enqueueRun := func() {
		job := NewIndexJob(models.IndexJobArgs{SourceID: sourceID})
		if err := Enqueue(ctx, job); err != nil {
			log.Printf("[Scheduler] enqueue index for %s: %v", sourceID, err)
		}
	}

	enqueueRun()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueueRun()
		}
	}
}
