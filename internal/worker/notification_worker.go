package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// Publisher fans stored notifications out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, notifications []model.Notification) error
}

// NotificationWorker drains notification_queue, stores notifications in batches and
// publishes them to each recipient's channel.
type NotificationWorker struct {
	rdb       *redis.Client
	repo      repository.NotificationRepository
	publisher Publisher
	log       zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	retryDelay   time.Duration
}

func NewNotificationWorker(rdb *redis.Client, repo repository.NotificationRepository, publisher Publisher, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		rdb:          rdb,
		repo:         repo,
		publisher:    publisher,
		log:          log.With().Str("component", "notification_worker").Logger(),
		batchSize:    BatchSize,
		batchTimeout: BatchTimeout,
		retryDelay:   2 * time.Second,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	buffer := make([]model.NotificationJob, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age.
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= w.batchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown.
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. BLPop blocks for PollTimeout and returns immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.NotificationQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleep(ctx, 3*time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var job model.NotificationJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			// Malformed jobs can never succeed.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed notification job")
			continue
		}
		if len(job.RecipientIDs) == 0 {
			continue
		}

		if len(buffer) == 0 {
			lastFlushTime = time.Now()
		}
		buffer = append(buffer, job)
	}
}

// flushSafe stores the batch in one round trip, falling back to job-by-job inserts
// so one bad job does not block the others.
func (w *NotificationWorker) flushSafe(ctx context.Context, batch []model.NotificationJob) {
	stored, err := w.repo.InsertJobs(ctx, batch)
	if err != nil {
		w.log.Warn().Err(err).Int("jobs", len(batch)).Msg("Batch insert failed, attempting job-by-job recovery")
		stored = w.fallbackInsert(ctx, batch)
	}

	if len(stored) == 0 {
		return
	}
	if err := w.publisher.Publish(ctx, stored); err != nil {
		// Rows are stored; clients will see them on their next fetch.
		w.log.Warn().Err(err).Int("count", len(stored)).Msg("Publishing notifications failed")
		return
	}
	w.log.Debug().Int("jobs", len(batch)).Int("notifications", len(stored)).Msg("Notifications delivered")
}

func (w *NotificationWorker) fallbackInsert(ctx context.Context, batch []model.NotificationJob) []model.Notification {
	var stored []model.Notification
	var requeueList []model.NotificationJob

	for _, job := range batch {
		rows, err := w.repo.InsertJobs(ctx, []model.NotificationJob{job})
		switch {
		case err == nil:
			stored = append(stored, rows...)
		case !errors.Is(err, repository.ErrReferenced):
			w.log.Error().Err(err).Int("institution_id", job.InstitutionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, job)
		case len(job.RecipientIDs) == 1:
			w.dropRecipient(err, job)
		default:
			// One unknown recipient fails the whole statement; the others still get theirs.
			for _, single := range perRecipient(job) {
				rows, err := w.repo.InsertJobs(ctx, []model.NotificationJob{single})
				switch {
				case err == nil:
					stored = append(stored, rows...)
				case errors.Is(err, repository.ErrReferenced):
					w.dropRecipient(err, single)
				default:
					w.log.Error().Err(err).Int("institution_id", single.InstitutionID).Msg("Insert failed, requeueing")
					requeueList = append(requeueList, single)
				}
			}
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
	return stored
}

// dropRecipient discards a single-recipient job whose profile or institution vanished.
func (w *NotificationWorker) dropRecipient(err error, job model.NotificationJob) {
	w.log.Error().Err(err).
		Int("institution_id", job.InstitutionID).
		Ints("recipient_ids", job.RecipientIDs).
		Msg("Dropping notification for unknown recipient")
}

func perRecipient(job model.NotificationJob) []model.NotificationJob {
	jobs := make([]model.NotificationJob, len(job.RecipientIDs))
	for i, id := range job.RecipientIDs {
		jobs[i] = job
		jobs[i].RecipientIDs = []int{id}
	}
	return jobs
}

func (w *NotificationWorker) requeue(ctx context.Context, jobs []model.NotificationJob) {
	pipe := w.rdb.Pipeline()
	for _, job := range jobs {
		data, _ := json.Marshal(job)
		pipe.RPush(ctx, config.WorkerKey.NotificationQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(jobs)).Msg("CRITICAL: Failed to requeue notification jobs. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(jobs)).Msg("Requeued failed jobs back to Redis")
	// Back off so a database outage does not spin the loop.
	sleep(ctx, w.retryDelay)
}

func (w *NotificationWorker) shutdown(buffer []model.NotificationJob) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
