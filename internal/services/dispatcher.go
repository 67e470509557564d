package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/ngenohkevin/circulation/internal/config"
	"github.com/ngenohkevin/circulation/internal/metrics"
)

// QueueStats represents queue statistics
type QueueStats struct {
	Scheduled int64 `json:"scheduled"`
	Due       int64 `json:"due"`
	Dead      int64 `json:"dead"`
}

// DispatchStats summarises one ProcessDue pass.
type DispatchStats struct {
	Claimed int `json:"claimed"`
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Dead    int `json:"dead"`
}

// releaseIfUnchanged drops a payload only if it was not replaced while the
// job was being delivered.
var releaseIfUnchanged = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

// requeueIfUnchanged schedules a retry unless the job was replaced during
// delivery, in which case the replacement keeps its own schedule.
var requeueIfUnchanged = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) ~= ARGV[2] then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
redis.call("ZADD", KEYS[2], ARGV[4], ARGV[1])
return 1
`)

// buryIfUnchanged moves a job to the dead queue unless it was replaced.
var buryIfUnchanged = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) ~= ARGV[2] then
	return 0
end
redis.call("HDEL", KEYS[1], ARGV[1])
redis.call("HSET", KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// RedisDispatcher is the notification queue. Payloads live in a hash keyed by
// job key and the schedule in a sorted set scored by run time, so enqueueing
// an existing key replaces the job.
type RedisDispatcher struct {
	redis      *redis.Client
	logger     *slog.Logger
	prefix     string
	batchSize  int
	maxRetries int
	backoff    time.Duration
}

// NewRedisDispatcher creates a dispatcher from the notifications config
func NewRedisDispatcher(client *redis.Client, cfg config.NotificationsConfig, logger *slog.Logger) *RedisDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &RedisDispatcher{
		redis:      client,
		logger:     logger,
		prefix:     cfg.QueuePrefix,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Minute,
	}
	if d.prefix == "" {
		d.prefix = "notifications"
	}
	if d.batchSize <= 0 {
		d.batchSize = 50
	}
	if d.maxRetries <= 0 {
		d.maxRetries = 3
	}
	return d
}

func (d *RedisDispatcher) jobsKey() string      { return d.prefix + ":jobs" }
func (d *RedisDispatcher) scheduledKey() string { return d.prefix + ":scheduled" }
func (d *RedisDispatcher) deadKey() string      { return d.prefix + ":dead" }

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Enqueue stores or replaces the job under its key.
func (d *RedisDispatcher) Enqueue(ctx context.Context, job Job) error {
	if job.Key == "" {
		return errors.New("job key is required")
	}
	if job.RunAt.IsZero() {
		job.RunAt = time.Now()
	}
	data, err := jsoniter.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = d.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, d.jobsKey(), job.Key, data)
		pipe.ZAdd(ctx, d.scheduledKey(), redis.Z{Score: score(job.RunAt), Member: job.Key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.Key, err)
	}

	d.logger.Debug("Job enqueued", "job_key", job.Key, "template", job.TemplateID, "run_at", job.RunAt)
	return nil
}

// ProcessDue delivers every job whose run time has passed. A job is claimed by
// removing its key from the schedule, so concurrent workers never deliver the
// same claim twice.
func (d *RedisDispatcher) ProcessDue(ctx context.Context, now time.Time, sender Sender) (DispatchStats, error) {
	var stats DispatchStats
	keys, err := d.redis.ZRangeByScore(ctx, d.scheduledKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatFloat(score(now), 'f', 0, 64),
		Count: int64(d.batchSize),
	}).Result()
	if err != nil {
		return stats, fmt.Errorf("failed to read due jobs: %w", err)
	}

	for _, key := range keys {
		claimed, err := d.redis.ZRem(ctx, d.scheduledKey(), key).Result()
		if err != nil {
			return stats, fmt.Errorf("failed to claim job %s: %w", key, err)
		}
		if claimed == 0 {
			continue
		}
		stats.Claimed++

		raw, err := d.redis.HGet(ctx, d.jobsKey(), key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to load job %s: %w", key, err)
		}

		var job Job
		if err := jsoniter.UnmarshalFromString(raw, &job); err != nil {
			d.logger.Error("Failed to unmarshal job", "job_key", key, "error", err)
			d.bury(ctx, key, raw, raw)
			stats.Dead++
			continue
		}

		attemptID := uuid.NewString()
		sendErr := sender.Send(ctx, job)
		if sendErr == nil {
			if err := releaseIfUnchanged.Run(ctx, d.redis, []string{d.jobsKey()}, key, raw).Err(); err != nil && !errors.Is(err, redis.Nil) {
				d.logger.Warn("Failed to release delivered job", "job_key", key, "error", err)
			}
			metrics.NotificationJobs.WithLabelValues("sent").Inc()
			d.logger.Info("Notification delivered", "job_key", key, "attempt_id", attemptID)
			stats.Sent++
			continue
		}

		next, dead := nextAttempt(job, now, sendErr, d.maxRetries, d.backoff)
		if dead {
			data, _ := jsoniter.MarshalToString(next)
			d.bury(ctx, key, raw, data)
			metrics.NotificationJobs.WithLabelValues("dead").Inc()
			d.logger.Error("Notification moved to dead queue",
				"job_key", key, "attempt_id", attemptID, "attempts", next.Attempts, "error", sendErr)
			stats.Dead++
			continue
		}
		requeued, err := d.requeue(ctx, key, raw, next)
		if err != nil {
			d.logger.Error("Failed to requeue job for retry", "job_key", key, "error", err)
			continue
		}
		if !requeued {
			d.logger.Info("Job replaced during delivery, retry dropped", "job_key", key, "attempt_id", attemptID)
			continue
		}
		metrics.NotificationJobs.WithLabelValues("retried").Inc()
		d.logger.Warn("Notification failed, retrying",
			"job_key", key, "attempt_id", attemptID, "attempts", next.Attempts, "run_at", next.RunAt, "error", sendErr)
		stats.Retried++
	}

	if stats.Claimed > 0 {
		d.logger.Info("Queue processing completed",
			"claimed", stats.Claimed, "sent", stats.Sent, "retried", stats.Retried, "dead", stats.Dead)
	}
	return stats, nil
}

// nextAttempt schedules a failed job with linear backoff, or reports that it
// has used up its retries.
func nextAttempt(job Job, now time.Time, err error, maxRetries int, backoff time.Duration) (Job, bool) {
	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts > maxRetries {
		return job, true
	}
	job.RunAt = now.Add(time.Duration(job.Attempts) * backoff)
	return job, false
}

// requeue stores the retry of a claimed job whose payload was claimed as raw.
func (d *RedisDispatcher) requeue(ctx context.Context, key, raw string, next Job) (bool, error) {
	data, err := jsoniter.MarshalToString(next)
	if err != nil {
		return false, fmt.Errorf("failed to marshal job: %w", err)
	}
	n, err := requeueIfUnchanged.Run(ctx, d.redis,
		[]string{d.jobsKey(), d.scheduledKey()},
		key, raw, data, score(next.RunAt),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *RedisDispatcher) bury(ctx context.Context, key, raw, payload string) {
	err := buryIfUnchanged.Run(ctx, d.redis, []string{d.jobsKey(), d.deadKey()}, key, raw, payload).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		d.logger.Error("Failed to move job to dead queue", "job_key", key, "error", err)
	}
}

// Run polls for due jobs until ctx is cancelled.
func (d *RedisDispatcher) Run(ctx context.Context, sender Sender, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("Notification dispatcher started", "interval", interval, "prefix", d.prefix)
	for {
		if _, err := d.ProcessDue(ctx, time.Now(), sender); err != nil && ctx.Err() == nil {
			d.logger.Error("Dispatch pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("Notification dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Stats returns queue statistics
func (d *RedisDispatcher) Stats(ctx context.Context, now time.Time) (*QueueStats, error) {
	pipe := d.redis.Pipeline()
	scheduledCmd := pipe.ZCard(ctx, d.scheduledKey())
	dueCmd := pipe.ZCount(ctx, d.scheduledKey(), "-inf", strconv.FormatFloat(score(now), 'f', 0, 64))
	deadCmd := pipe.HLen(ctx, d.deadKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}
	return &QueueStats{
		Scheduled: scheduledCmd.Val(),
		Due:       dueCmd.Val(),
		Dead:      deadCmd.Val(),
	}, nil
}

// LogSender stands in for a delivery channel by logging each job.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, job Job) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Sending notification",
		"job_key", job.Key,
		"template", job.TemplateID,
		"recipient", job.Recipient,
		"attempt", job.Attempts+1,
	)
	return nil
}

// MemoryQueue is an in-process TaskQueue with the same replace-by-key
// semantics as the redis dispatcher.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[string]Job
	Err  error
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string]Job)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.jobs[job.Key] = job
	return nil
}

// Job returns the job stored under key.
func (q *MemoryQueue) Job(key string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[key]
	return job, ok
}

func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
