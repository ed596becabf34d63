package worker

import (
	"context"

	"github.com/hhuzhang0517/genrtl-saas/internal/pipeline"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// JobRunner abstracts the pipeline for testability.
type JobRunner interface {
	Run(ctx context.Context, trig pipeline.Trigger) error
}

// JobLocker grants at most one holder per job id across worker processes.
type JobLocker interface {
	Acquire(ctx context.Context, jobID int64) (token string, acquired bool, err error)
	Release(ctx context.Context, jobID int64, token string) error
}
