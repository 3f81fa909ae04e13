package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/metrics"
	"coursehub-backend/internal/models"
)

// RedisQueue pushes learning jobs onto QueueName.
type RedisQueue struct {
	redis *redis.Client
}

func NewRedisQueue(redisClient *redis.Client) *RedisQueue {
	return &RedisQueue{redis: redisClient}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job models.LearningJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.redis.RPush(ctx, QueueName, raw).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Inline applies jobs on a goroutine of this process. It stands in for the
// Redis queue when none is configured.
type Inline struct {
	handler JobHandler
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

func NewInline(handler JobHandler, logger zerolog.Logger) *Inline {
	return &Inline{handler: handler, logger: logger}
}

func (q *Inline) Enqueue(ctx context.Context, job models.LearningJob) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.handler.Handle(context.WithoutCancel(ctx), job); err != nil {
			q.logger.Error().Err(err).Str("job_id", job.ID).Str("kind", string(job.Kind)).Msg("dropping job")
			metrics.IncLearningEvent(string(job.Kind), "failed")
		}
	}()
	return nil
}

// Wait blocks until every enqueued job has been applied.
func (q *Inline) Wait() {
	q.wg.Wait()
}
