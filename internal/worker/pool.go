package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursehub-backend/internal/metrics"
	"coursehub-backend/internal/models"
)

// QueueName is the Redis list holding queued learning events.
const QueueName = "queue:learning-events"

const (
	defaultPollTimeout = 5 * time.Second
	jobLockTTL         = 10 * time.Minute
)

// JobHandler applies one learning job.
type JobHandler interface {
	Handle(ctx context.Context, job models.LearningJob) error
}

type Option func(*Pool)

// WithPollTimeout bounds each BLPOP so workers notice Stop promptly.
func WithPollTimeout(d time.Duration) Option {
	return func(p *Pool) { p.pollTimeout = d }
}

// Pool runs workers that pop learning jobs from Redis and hand them to a
// JobHandler. Failed jobs are logged and dropped.
type Pool struct {
	redis       *redis.Client
	handler     JobHandler
	workerCount int
	pollTimeout time.Duration
	logger      zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPool(redisClient *redis.Client, handler JobHandler, workerCount int, logger zerolog.Logger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		redis:       redisClient,
		handler:     handler,
		workerCount: workerCount,
		pollTimeout: defaultPollTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info().Int("workers", p.workerCount).Str("queue", QueueName).Msg("worker pool started")
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With().Int("worker", id).Logger()

	for {
		if ctx.Err() != nil {
			logger.Debug().Msg("worker shutting down")
			return
		}

		result, err := p.redis.BLPop(ctx, p.pollTimeout, QueueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("failed to pop job")
				// Avoid spinning while Redis is unreachable.
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		p.process(context.WithoutCancel(ctx), logger, result[1])
	}
}

func (p *Pool) process(ctx context.Context, logger zerolog.Logger, raw string) {
	var job models.LearningJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse job")
		metrics.IncLearningEvent("unknown", "failed")
		return
	}

	// A job pushed twice is applied once.
	lockKey := fmt.Sprintf("job_lock:%s", job.ID)
	locked, err := p.redis.SetNX(ctx, lockKey, "1", jobLockTTL).Result()
	if err != nil || !locked {
		logger.Debug().Str("job_id", job.ID).Msg("job already taken")
		return
	}

	if err := p.handler.Handle(ctx, job); err != nil {
		logger.Error().Err(err).Str("job_id", job.ID).Str("kind", string(job.Kind)).Msg("dropping job")
		metrics.IncLearningEvent(string(job.Kind), "failed")
	}
}
