package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
	"github.com/hhuzhang0517/genrtl-saas/internal/pipeline"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
)

// errJobLocked means another run holds the job. The message stays pending
// and the reclaimer retries it once it has been idle long enough.
var errJobLocked = errors.New("job is locked by another run")

type Config struct {
	MaxAttempts int

	// Concurrency caps runs executing at once in this process, reclaimed
	// messages included.
	Concurrency int

	ErrorBackoff time.Duration
}

type Worker struct {
	consumer Consumer
	runner   JobRunner
	locker   JobLocker
	cfg      Config

	slots chan struct{}
	wg    sync.WaitGroup

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

func New(consumer Consumer, runner JobRunner, locker JobLocker, cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		runner:    runner,
		locker:    locker,
		cfg:       cfg,
		slots:     make(chan struct{}, cfg.Concurrency),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reads and dispatches messages until ctx ends or Stop is called, then
// waits for in-flight runs.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)
	defer w.wg.Wait()

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "genrtl.worker"})
	slog.InfoContext(ctx, "worker started", "concurrency", w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(w.cfg.ErrorBackoff):
				case <-ctx.Done():
				case <-w.stopCh:
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		// A message that never gets a slot stays pending for the reclaimer.
		if err := w.acquireSlot(ctx); err != nil {
			return err
		}

		w.wg.Add(1)
		go func(msg queue.Message) {
			defer w.wg.Done()
			defer w.releaseSlot()
			_ = w.handle(ctx, msg)
		}(msg)
	}

	return nil
}

// ProcessMessage runs one message to completion under the admission limit
// and settles it on the stream. Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	if err := w.acquireSlot(ctx); err != nil {
		return err
	}
	defer w.releaseSlot()
	return w.handle(ctx, msg)
}

func (w *Worker) acquireSlot(ctx context.Context) error {
	select {
	case w.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) releaseSlot() {
	<-w.slots
}

func (w *Worker) handle(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: &msg.ID,
		JobID:     &msg.JobID,
		Attempt:   &msg.Attempt,
		Component: "genrtl.worker",
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "processing message")

	start := time.Now()
	err := w.runSafe(ctx, msg)
	sc.RecordError(err)
	w.settle(ctx, msg, err)

	slog.InfoContext(ctx, "message processed",
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", err == nil)
	return err
}

func (w *Worker) runSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	token, acquired, err := w.locker.Acquire(ctx, msg.JobID)
	if err != nil {
		return err
	}
	if !acquired {
		return errJobLocked
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if releaseErr := w.locker.Release(releaseCtx, msg.JobID, token); releaseErr != nil {
			slog.WarnContext(ctx, "failed to release job lock", "error", releaseErr)
		}
	}()

	return w.runner.Run(ctx, pipeline.Trigger{JobID: msg.JobID, OwnerID: msg.OwnerID})
}

// settle acks, requeues or dead-letters msg according to the run outcome.
func (w *Worker) settle(ctx context.Context, msg queue.Message, err error) {
	var runErr *pipeline.RunError

	switch {
	case err == nil:
		w.ack(ctx, msg)

	case ctx.Err() != nil:
		slog.WarnContext(ctx, "run interrupted by shutdown, leaving message pending", "error", err)

	case errors.Is(err, errJobLocked):
		slog.InfoContext(ctx, "job locked by another run, leaving message pending")

	case errors.Is(err, pipeline.ErrSuperseded):
		slog.InfoContext(ctx, "run superseded by another run", "reason", err)
		w.ack(ctx, msg)

	case errors.Is(err, pipeline.ErrJobNotFound):
		w.deadLetter(ctx, msg, err)

	case errors.As(err, &runErr) && runErr.Recorded:
		// The job is terminal; a retry would be a no-op. Dead-letter for alerting.
		w.deadLetter(ctx, msg, err)

	default:
		w.retryOrDeadLetter(ctx, msg, err)
	}
}

func (w *Worker) ack(ctx context.Context, msg queue.Message) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Message will be reclaimed; re-running a terminal job is a no-op.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
}

func (w *Worker) deadLetter(ctx context.Context, msg queue.Message, err error) {
	if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
		slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
	}
}

func (w *Worker) retryOrDeadLetter(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"error", err,
			"attempts", msg.Attempt)
		w.deadLetter(ctx, msg, err)
		return
	}

	slog.WarnContext(ctx, "requeuing failed message", "error", err)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
