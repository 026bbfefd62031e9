package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"micmap/db"
	"micmap/models"
	"micmap/rdx"
	"micmap/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	queueKey = "jobs:queue"
	retryKey = "jobs:retry"
)

// NewIndexJob builds a queued index-run envelope.
func NewIndexJob(args models.IndexJobArgs) models.Job {
	now := time.Now()
	return models.Job{
		JobID:     utils.GetUUID(),
		Kind:      models.JobKindIndex,
		State:     models.JobStateQueued,
		Index:     &args,
		Meta:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewDetailJob builds a queued detail-fetch envelope for one candidate.
func NewDetailJob(args models.DetailJobArgs) models.Job {
	now := time.Now()
	return models.Job{
		JobID:     utils.GetUUID(),
		Kind:      models.JobKindDetail,
		State:     models.JobStateQueued,
		Detail:    &args,
		Meta:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Enqueue persists the job record and pushes it on the work queue.
func Enqueue(ctx context.Context, job models.Job) error {
	if err := saveJob(ctx, job); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JobID, err)
	}
	return rdx.Conn.LPush(ctx, queueKey, data).Err()
}

// enqueueRetry schedules the job to re-enter the queue after delay, using a
// sorted set scored by ready-at time.
func enqueueRetry(ctx context.Context, job models.Job, delay time.Duration) error {
	job.State = models.JobStateQueued
	if err := saveJob(ctx, job); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JobID, err)
	}
	return rdx.Conn.ZAdd(ctx, retryKey, redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: data,
	}).Err()
}

// dequeue blocks up to timeout for the next job. A zero job and nil error
// means the wait timed out.
func dequeue(ctx context.Context, timeout time.Duration) (models.Job, error) {
	res, err := rdx.Conn.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return models.Job{}, nil
	}
	if err != nil {
		return models.Job{}, err
	}
	var job models.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return models.Job{}, fmt.Errorf("unmarshal queued job: %w", err)
	}
	return job, nil
}

// promoteDueRetries moves retry-scheduled jobs whose time has come back onto
// the work queue.
func promoteDueRetries(ctx context.Context) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	due, err := rdx.Conn.ZRangeByScore(ctx, retryKey, &redis.ZRangeBy{
		Min: "-inf", Max: now,
	}).Result()
	if err != nil {
		log.Printf("[Retry] scan failed: %v", err)
		return
	}
	for _, member := range due {
		if err := rdx.Conn.LPush(ctx, queueKey, member).Err(); err != nil {
			log.Printf("[Retry] promote failed: %v", err)
			continue
		}
		rdx.Conn.ZRem(ctx, retryKey, member)
	}
}

func saveJob(ctx context.Context, job models.Job) error {
	job.UpdatedAt = time.Now()
	_, err := db.JobsCollection.UpdateOne(ctx,
		bson.M{"jobid": job.JobID},
		bson.M{"$set": job},
		options.Update().SetUpsert(true),
	)
	return err
}

// indexOutcomeSet is the terminal update for an index run. The fan-out
// counters are set field by field because detail jobs $inc success_venues and
// failed_venues onto the same summary while the fan-out is still underway; a
// whole-document write here would zero whatever already rolled up.
func indexOutcomeSet(job models.Job, summary models.RunSummary) bson.M {
	set := bson.M{
		"state":              job.State,
		"updated_at":         time.Now(),
		"summary.sourceid":   summary.SourceID,
		"summary.candidates": summary.Candidates,
		"summary.skipped":    summary.Skipped,
		"summary.enqueued":   summary.Enqueued,
	}
	if job.LastError != "" {
		set["last_error"] = job.LastError
	}
	return set
}

func saveIndexOutcome(ctx context.Context, job models.Job, summary models.RunSummary) error {
	_, err := db.JobsCollection.UpdateOne(ctx,
		bson.M{"jobid": job.JobID},
		bson.M{"$set": indexOutcomeSet(job, summary)},
	)
	return err
}

// GetJob reads a persisted job record.
func GetJob(ctx context.Context, jobID string) (models.Job, error) {
	var job models.Job
	err := db.JobsCollection.FindOne(ctx, bson.M{"jobid": jobID}).Decode(&job)
	return job, err
}
