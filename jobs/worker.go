package jobs

import (
	"context"
	"log"
	"strings"
	"time"

	"micmap/db"
	"micmap/models"

	"go.mongodb.org/mongo-driver/bson"
)

// StartWorkers launches n queue consumers plus the retry promoter. They run
// until ctx is cancelled.
func StartWorkers(ctx context.Context, p *Pipeline, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		go workerLoop(ctx, p, i)
	}
	go retryLoop(ctx)
	log.Printf("[Workers] %d job workers started", n)
}

func workerLoop(ctx context.Context, p *Pipeline, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker %d] dequeue: %v", id, err)
			time.Sleep(time.Second)
			continue
		}
		if job.JobID == "" {
			continue // timed out waiting; poll again
		}
		handle(ctx, p, job)
	}
}

func retryLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			promoteDueRetries(ctx)
		}
	}
}

func handle(ctx context.Context, p *Pipeline, job models.Job) {
	job.State = models.JobStateRunning
	if err := saveJob(ctx, job); err != nil {
		log.Printf("[Worker] mark running %s: %v", job.JobID, err)
	}

	switch job.Kind {
	case models.JobKindIndex:
		handleIndex(ctx, p, job)
	case models.JobKindDetail:
		handleDetail(ctx, p, job)
	default:
		log.Printf("[Worker] unknown job kind %q, discarding %s", job.Kind, job.JobID)
		job.State = models.JobStateDiscarded
		job.LastError = "unknown job kind"
		saveJob(ctx, job)
	}
}

func handleIndex(ctx context.Context, p *Pipeline, job models.Job) {
	summary, err := p.RunIndex(ctx, job.JobID, *job.Index)
	if err != nil {
		log.Printf("[IndexJob] %s failed: %v", job.JobID, err)
		job.LastError = err.Error()
		job.State = models.JobStateDiscarded
	} else {
		// completed means the fan-out is enqueued; detail outcomes keep
		// rolling up onto this record as they resolve
		job.State = models.JobStateCompleted
	}
	if err := saveIndexOutcome(ctx, job, summary); err != nil {
		log.Printf("[IndexJob] save outcome %s: %v", job.JobID, err)
	}
}

func handleDetail(ctx context.Context, p *Pipeline, job models.Job) {
	args := *job.Detail
	err := p.RunDetail(ctx, args)
	if err == nil {
		job.State = models.JobStateCompleted
		job.LastError = ""
		saveJob(ctx, job)
		rollUp(ctx, args, "ok", "")
		return
	}

	if retryable(err) && args.Attempt+1 < maxAttempts {
		args.Attempt++
		job.Detail = &args
		delay := backoffDelay(args.Attempt)
		log.Printf("[DetailJob] %s attempt %d failed, retry in %s: %v",
			args.Candidate.DetailURL, args.Attempt, delay, err)
		job.LastError = err.Error()
		if rErr := enqueueRetry(ctx, job, delay); rErr != nil {
			log.Printf("[DetailJob] requeue %s: %v", job.JobID, rErr)
		}
		return
	}

	log.Printf("[DetailJob] %s discarded: %v", args.Candidate.DetailURL, err)
	job.State = models.JobStateDiscarded
	job.LastError = err.Error()
	saveJob(ctx, job)
	rollUp(ctx, args, "failed", err.Error())
}

// rollUp records this candidate's outcome on its parent index job.
func rollUp(ctx context.Context, args models.DetailJobArgs, outcome, reason string) {
	if args.ParentID == "" {
		return
	}
	field := "summary.success_venues"
	metaVal := outcome
	if outcome != "ok" {
		field = "summary.failed_venues"
		metaVal = outcome + ": " + reason
	}
	// dots would nest the key in mongo
	metaKey := "meta.venue:" + strings.ReplaceAll(args.Candidate.DetailURL, ".", "_")
	_, err := db.JobsCollection.UpdateOne(ctx,
		bson.M{"jobid": args.ParentID},
		bson.M{
			"$inc": bson.M{field: 1},
			"$set": bson.M{metaKey: metaVal},
		},
	)
	if err != nil {
		log.Printf("[DetailJob] roll-up to %s: %v", args.ParentID, err)
	}
}
