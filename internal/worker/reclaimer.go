package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
	"github.com/hhuzhang0517/genrtl-saas/internal/pipeline"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream   string
	Group    string
	Consumer string
	// MinIdle is how long a trigger must sit unacked before another worker
	// may take over its run.
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// RedisReclaimer resumes job runs whose trigger was left pending: the worker
// died or shut down mid-run, or the job was locked when the trigger arrived.
// A resumed run continues from the job's last checkpoint.
type RedisReclaimer struct {
	client  *redis.Client
	cfg     RedisReclaimerConfig
	acker   messageAcker
	process queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

type messageAcker interface {
	Ack(ctx context.Context, msg queue.Message) error
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, acker messageAcker, process queue.MessageProcessor) *RedisReclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		acker:     acker,
		process:   process,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run sweeps for stale triggers every Interval until ctx ends or Stop is called.
func (r *RedisReclaimer) Run(ctx context.Context) {
	defer close(r.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "genrtl.worker.reclaimer",
	})

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			resumed, err := r.reclaimOnce(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "reclaim sweep failed", "error", err)
			}
			if resumed > 0 {
				slog.InfoContext(ctx, "reclaim sweep finished", "runs", resumed)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// reclaimOnce takes over up to BatchSize stale triggers and runs each one.
// It returns how many runs it started.
func (r *RedisReclaimer) reclaimOnce(ctx context.Context) (int, error) {
	cursor := "0-0"
	runs := 0

	for int64(runs) < r.cfg.BatchSize {
		claimed, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.cfg.Stream,
			Group:    r.cfg.Group,
			Consumer: r.cfg.Consumer,
			MinIdle:  r.cfg.MinIdle,
			Start:    cursor,
			Count:    r.cfg.BatchSize - int64(runs),
		}).Result()
		if err != nil {
			return runs, fmt.Errorf("xautoclaim: %w", err)
		}

		for _, raw := range claimed {
			if ctx.Err() != nil {
				return runs, nil
			}
			r.resume(ctx, raw)
			runs++
		}

		if next == "0-0" || len(claimed) == 0 {
			break
		}
		cursor = next
	}

	return runs, nil
}

// resume runs one claimed trigger. The processor settles the message, so
// only the outcome is logged here.
func (r *RedisReclaimer) resume(ctx context.Context, raw redis.XMessage) {
	msgID := raw.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	msg, err := queue.ParseMessage(raw)
	if err != nil {
		slog.WarnContext(ctx, "dropping unreadable stale trigger", "error", err)
		if ackErr := r.acker.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw}); ackErr != nil {
			slog.WarnContext(ctx, "failed to ack unreadable trigger", "error", ackErr)
		}
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{JobID: &msg.JobID})
	slog.InfoContext(ctx, "resuming stale job run", "attempt", msg.Attempt)

	start := time.Now()
	err = r.process(ctx, msg)
	logResumeOutcome(ctx, err, time.Since(start))
}

func logResumeOutcome(ctx context.Context, err error, elapsed time.Duration) {
	var runErr *pipeline.RunError

	switch {
	case err == nil:
		slog.InfoContext(ctx, "resumed job run finished", "duration_ms", elapsed.Milliseconds())
	case errors.Is(err, errJobLocked):
		slog.DebugContext(ctx, "job still locked, trigger stays pending")
	case errors.Is(err, pipeline.ErrSuperseded), errors.Is(err, pipeline.ErrJobNotFound):
		slog.InfoContext(ctx, "resumed run had nothing left to do", "reason", err)
	case errors.As(err, &runErr) && runErr.Recorded:
		slog.InfoContext(ctx, "resumed run ended with the job failed", "stage", runErr.Stage)
	case ctx.Err() != nil:
		slog.WarnContext(ctx, "resumed run interrupted, trigger stays pending")
	default:
		slog.ErrorContext(ctx, "resumed run failed", "error", err)
	}
}
