package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/redisx"
)

// Delayed is a purpose-built compensating queue on a Redis sorted set: one
// ZSET per topic, score = ready-at in unix millis, member = the job JSON.
// Delivery is at least once; consumers must tolerate duplicates.
type Delayed struct {
	RDB *redis.Client
	Log *slog.Logger

	// MaxAttempts and BackoffBase mirror the retry policy of the original
	// cleanup queue: 3 attempts, exponential backoff from 1s.
	MaxAttempts  int
	BackoffBase  time.Duration
	PollInterval time.Duration
}

func New(rdb *redis.Client, log *slog.Logger) *Delayed {
	return &Delayed{
		RDB:          rdb,
		Log:          log,
		MaxAttempts:  3,
		BackoffBase:  time.Second,
		PollInterval: time.Second,
	}
}

type Job struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler returns nil only when the job is fully processed; anything else
// triggers a redelivery with backoff.
type Handler func(ctx context.Context, job Job) error

// claimScript pops one due member atomically so exactly one consumer owns it.
var claimScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #due == 0 then
  return false
end
redis.call('ZREM', KEYS[1], due[1])
return due[1]
`)

// Enqueue schedules payload on topic after delay and returns the job handle.
func (d *Delayed) Enqueue(ctx context.Context, topic string, payload any, delay time.Duration) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	job := Job{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    body,
		EnqueuedAt: time.Now().UTC(),
	}
	member, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf(redisx.KeyJobQueue, topic)
	score := float64(time.Now().Add(delay).UnixMilli())
	if err := d.RDB.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Consume polls topic until ctx is cancelled, handing due jobs to h.
func (d *Delayed) Consume(ctx context.Context, topic string, h Handler) error {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.drain(ctx, topic, h)
		}
	}
}

func (d *Delayed) drain(ctx context.Context, topic string, h Handler) {
	key := fmt.Sprintf(redisx.KeyJobQueue, topic)
	for {
		raw, err := claimScript.Run(ctx, d.RDB, []string{key}, time.Now().UnixMilli()).Text()
		if errors.Is(err, redis.Nil) {
			return // nothing due
		}
		if err != nil {
			d.Log.Error("delayed queue claim failed", "topic", topic, "err", err)
			return
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			d.Log.Error("delayed queue dropped undecodable job", "topic", topic, "err", err)
			continue
		}
		if err := h(ctx, job); err != nil {
			d.nack(ctx, key, job, err)
		}
	}
}

// nack re-enqueues a failed job with exponential backoff until MaxAttempts
// is exhausted. Exhausted jobs are dropped and logged; the reconciliation
// sweep is the backstop for expirations lost this way.
func (d *Delayed) nack(ctx context.Context, key string, job Job, cause error) {
	job.Attempts++
	if job.Attempts >= d.MaxAttempts {
		d.Log.Error("delayed job exhausted retries", "topic", job.Topic, "job_id", job.ID, "err", cause)
		return
	}
	member, err := json.Marshal(job)
	if err != nil {
		d.Log.Error("delayed job re-marshal failed", "job_id", job.ID, "err", err)
		return
	}
	score := float64(time.Now().Add(Backoff(d.BackoffBase, job.Attempts)).UnixMilli())
	if err := d.RDB.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		d.Log.Error("delayed job requeue failed", "job_id", job.ID, "err", err)
	}
	d.Log.Warn("delayed job retried", "topic", job.Topic, "job_id", job.ID, "attempt", job.Attempts, "err", cause)
}

// Backoff doubles per attempt: base, 2*base, 4*base, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
